package mlearn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyehBlk/RAPTOR/raptor/profile"
)

func TestVectorizeSchema(t *testing.T) {
	p := largeDesignProfile(0)
	x := Vectorize(&p)
	require.Len(t, x, len(FeatureNames()))

	names := FeatureNames()
	byName := func(name string) float64 {
		for i, n := range names {
			if n == name {
				return x[i]
			}
		}
		t.Fatalf("no feature named %s", name)
		return 0
	}

	assert.Equal(t, 12.0, byName("n_samples"))
	assert.Equal(t, 4e7, byName("mean_library_size"))
	assert.Equal(t, 0.93, byName("min_sample_correlation"))
	assert.Equal(t, 0.0, byName("correlation_missing"))
	assert.Equal(t, 3.0, byName("depth_ordinal"))
	assert.Equal(t, 2.0, byName("bcv_ordinal"))
	assert.Equal(t, 1.0, byName("has_replicates"))
}

func TestVectorizeDefaultsForMissingFields(t *testing.T) {
	p := profile.Profile{NGenes: 100, NSamples: 1}
	x := Vectorize(&p)

	names := FeatureNames()
	got := map[string]float64{}
	for i, n := range names {
		got[n] = x[i]
	}

	// Correlations default to 1 (no evidence of dissimilarity), the rest
	// of the missing statistics to 0.
	assert.Equal(t, 1.0, got["mean_sample_correlation"])
	assert.Equal(t, 1.0, got["min_sample_correlation"])
	assert.Equal(t, 1.0, got["correlation_missing"])
	assert.Equal(t, 0.0, got["bcv"])
	assert.Equal(t, 0.0, got["library_size_cv"])
	assert.Equal(t, 0.0, got["bcv_ordinal"])
	assert.Equal(t, 0.0, got["has_replicates"])
}

func TestFeatureNamesIsACopy(t *testing.T) {
	names := FeatureNames()
	names[0] = "mutated"
	assert.Equal(t, "n_samples", FeatureNames()[0])
}
