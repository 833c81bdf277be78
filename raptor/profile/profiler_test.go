package profile

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyehBlk/RAPTOR/raptor/matrix"
)

// makeCounts builds a matrix from a deterministic value function.
func makeCounts(t *testing.T, nGenes, nSamples int, value func(g, s int) float64) *matrix.CountMatrix {
	t.Helper()
	genes := make([]string, nGenes)
	for g := range genes {
		genes[g] = fmt.Sprintf("gene%03d", g+1)
	}
	samples := make([]string, nSamples)
	for s := range samples {
		samples[s] = fmt.Sprintf("S%d", s+1)
	}
	data := make([]float64, 0, nGenes*nSamples)
	for g := 0; g < nGenes; g++ {
		for s := 0; s < nSamples; s++ {
			data = append(data, value(g, s))
		}
	}
	m, err := matrix.New(genes, samples, data)
	require.NoError(t, err)
	return m
}

func cleanCounts(t *testing.T) *matrix.CountMatrix {
	return makeCounts(t, 100, 6, func(g, s int) float64 {
		return float64((g*7+s*13)%50 + 10)
	})
}

func TestProfileCleanDataset(t *testing.T) {
	p, err := Run(cleanCounts(t), nil, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 100, p.NGenes)
	assert.Equal(t, 6, p.NSamples)
	assert.Equal(t, 0.0, p.ZeroInflation)
	assert.Empty(t, p.QualityFlags)
	assert.Empty(t, p.Outliers)
	assert.Equal(t, DepthVeryLow, p.DepthCategory)
	require.NotNil(t, p.LibrarySizeCV)
	assert.Less(t, *p.LibrarySizeCV, 0.1)
	require.NotNil(t, p.MeanSampleCorrelation)
	require.NotNil(t, p.MinSampleCorrelation)
	assert.LessOrEqual(t, *p.MinSampleCorrelation, *p.MeanSampleCorrelation)
	require.NotNil(t, p.PCAVarPC1)
	assert.Greater(t, *p.PCAVarPC1, 0.0)
	assert.True(t, p.HasReplicates())
}

func TestProfileConcordantSamplesCorrelateTightly(t *testing.T) {
	// Samples that differ from each other by a small constant offset are
	// near-replicates: no zeros, no quality flags, and every pairwise
	// correlation well above 0.9.
	m := makeCounts(t, 100, 6, func(g, s int) float64 {
		return float64((g%50)*10 + 10 + s)
	})

	p, err := Run(m, nil, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.ZeroInflation)
	assert.Empty(t, p.QualityFlags)
	require.NotNil(t, p.MinSampleCorrelation)
	assert.Greater(t, *p.MinSampleCorrelation, 0.9)
	require.NotNil(t, p.MeanSampleCorrelation)
	assert.Greater(t, *p.MeanSampleCorrelation, 0.9)
}

func TestProfileIsDeterministic(t *testing.T) {
	th := DefaultThresholds()
	first, err := Run(cleanCounts(t), nil, th)
	require.NoError(t, err)
	second, err := Run(cleanCounts(t), nil, th)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProfileSingleSample(t *testing.T) {
	m := makeCounts(t, 50, 1, func(g, s int) float64 { return float64(g + 1) })

	p, err := Run(m, nil, DefaultThresholds())
	require.NoError(t, err)

	assert.Nil(t, p.LibrarySizeCV)
	assert.Nil(t, p.MeanVariance)
	assert.Nil(t, p.BCV)
	assert.Nil(t, p.MeanSampleCorrelation)
	assert.Nil(t, p.PCAVarPC1)
	assert.Empty(t, p.Outliers)
	assert.False(t, p.HasReplicates())
	require.NotEmpty(t, p.QualityFlags)
	assert.Contains(t, p.QualityFlags[0], "too few samples")
}

func TestProfileAllZeros(t *testing.T) {
	m := makeCounts(t, 20, 4, func(g, s int) float64 { return 0 })

	p, err := Run(m, nil, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, 1.0, p.ZeroInflation)
	assert.Equal(t, 0.0, p.MeanLibrarySize)
	assert.Equal(t, DepthVeryLow, p.DepthCategory)
	assert.Nil(t, p.LibrarySizeCV)
	assert.Nil(t, p.BCV)
	assert.Nil(t, p.MeanSampleCorrelation)
	assert.Nil(t, p.ExpressionRangeLog10)
	assert.Equal(t, 0, p.MinGenesPerSample)

	var zeroFlag bool
	for _, f := range p.QualityFlags {
		if strings.HasPrefix(f, "high zero inflation") {
			zeroFlag = true
		}
	}
	assert.True(t, zeroFlag, "expected a zero-inflation quality flag, got %v", p.QualityFlags)
}

func TestProfileDetectsOutlierSample(t *testing.T) {
	// Eleven near-identical samples and one wildly different one. With
	// twelve samples the divergent PC1 score lands past three population
	// standard deviations.
	m := makeCounts(t, 30, 12, func(g, s int) float64 {
		if s == 11 {
			return 1000
		}
		return 10
	})

	p, err := Run(m, nil, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, []string{"S12"}, p.Outliers)
	var outlierFlag bool
	for _, f := range p.QualityFlags {
		if f == "1 potential outlier sample(s) detected: S12" {
			outlierFlag = true
		}
	}
	assert.True(t, outlierFlag, "flags: %v", p.QualityFlags)
}

func TestProfileEmptyMatrix(t *testing.T) {
	_, err := Run(nil, nil, DefaultThresholds())
	require.Error(t, err)
}

func TestProfileLibraryCVFlag(t *testing.T) {
	m := makeCounts(t, 40, 4, func(g, s int) float64 {
		return float64((s + 1) * (s + 1) * 10)
	})

	p, err := Run(m, nil, DefaultThresholds())
	require.NoError(t, err)

	require.NotNil(t, p.LibrarySizeCV)
	assert.Greater(t, *p.LibrarySizeCV, 0.5)
	var cvFlag bool
	for _, f := range p.QualityFlags {
		if strings.HasPrefix(f, "uneven library sizes") {
			cvFlag = true
		}
	}
	assert.True(t, cvFlag, "flags: %v", p.QualityFlags)
}
