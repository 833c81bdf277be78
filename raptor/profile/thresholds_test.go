package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCategoryBands(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, DepthVeryLow, th.depthCategory(999_999))
	assert.Equal(t, DepthLow, th.depthCategory(1e6))
	assert.Equal(t, DepthMedium, th.depthCategory(5e6))
	assert.Equal(t, DepthHigh, th.depthCategory(2e7))
	assert.Equal(t, DepthVeryHigh, th.depthCategory(5e7))

	assert.Equal(t, BCVLow, th.bcvCategory(0.19))
	assert.Equal(t, BCVMedium, th.bcvCategory(0.2))
	assert.Equal(t, BCVHigh, th.bcvCategory(0.4))
	assert.Equal(t, BCVVeryHigh, th.bcvCategory(0.6))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadThresholdsOverride(t *testing.T) {
	path := writeConfig(t, `
profiling:
  bcv_thresholds:
    low: 0.15
    medium: 0.35
  min_samples: 4
  outlier_zscore: 2.5
`)

	th, err := LoadThresholds(path)
	require.NoError(t, err)

	assert.Equal(t, 0.15, th.BCV.Low)
	assert.Equal(t, 0.35, th.BCV.Medium)
	assert.Equal(t, 0.6, th.BCV.High) // untouched default
	assert.Equal(t, 4, th.MinSamples)
	assert.Equal(t, 2.5, th.OutlierZ)
	assert.Equal(t, DefaultThresholds().Depth, th.Depth)
}

func TestLoadThresholdsRejectsUnorderedBands(t *testing.T) {
	path := writeConfig(t, `
profiling:
  depth_thresholds:
    very_low: 10000000.0
    low: 1000000.0
`)

	_, err := LoadThresholds(path)
	require.ErrorContains(t, err, "strictly increasing")
}

func TestLoadThresholdsMissingFile(t *testing.T) {
	_, err := LoadThresholds(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
