package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyehBlk/RAPTOR/raptor/profile"
)

func fptr(v float64) *float64 { return &v }

// neutralProfile triggers no scoring rule: moderate replication, medium
// depth, no correlation or dispersion signal.
func neutralProfile() *profile.Profile {
	return &profile.Profile{
		NGenes:          1000,
		NSamples:        4,
		MeanLibrarySize: 2e7,
	}
}

func checkBounds(t *testing.T, rec *Recommendation) {
	t.Helper()
	assert.GreaterOrEqual(t, rec.Score, 0.0)
	assert.LessOrEqual(t, rec.Score, 200.0)
	for _, alt := range rec.Alternatives {
		assert.GreaterOrEqual(t, alt.Score, 0.0)
		assert.LessOrEqual(t, alt.Score, 200.0)
	}
}

func TestNoReplicatesPrefersNOISeq(t *testing.T) {
	p := neutralProfile()
	p.NSamples = 1

	rec, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)

	assert.Equal(t, 6, rec.PipelineID)
	assert.Equal(t, "Salmon-NOISeq", rec.PipelineName)
	assert.NotEmpty(t, rec.Reasons)
	assert.NotEmpty(t, rec.Notes)
	checkBounds(t, rec)
}

func TestSmallSamplesPreferEBSeq(t *testing.T) {
	p := neutralProfile()
	p.NSamples = 3

	rec, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)

	assert.Equal(t, 7, rec.PipelineID)
	require.Len(t, rec.Alternatives, 2)
	assert.Equal(t, 6, rec.Alternatives[0].PipelineID)
}

func TestWellReplicatedHighBCVPrefersReferenceChain(t *testing.T) {
	p := neutralProfile()
	p.NSamples = 8
	p.BCV = fptr(0.8)
	p.BCVCategory = profile.BCVVeryHigh

	rec, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.PipelineID)
	require.Len(t, rec.Alternatives, 2)
	assert.Equal(t, 5, rec.Alternatives[0].PipelineID)
	assert.Equal(t, 2, rec.Alternatives[1].PipelineID)
}

func TestSpeedPriorityOnLargeShallowCohort(t *testing.T) {
	p := neutralProfile()
	p.NSamples = 24
	p.MeanLibrarySize = 5e6

	rec, err := Recommend(p, PrioritySpeed)
	require.NoError(t, err)

	// Salmon and Kallisto tie on score; the lower id wins.
	assert.Equal(t, 3, rec.PipelineID)
	require.Len(t, rec.Alternatives, 2)
	assert.Equal(t, 4, rec.Alternatives[0].PipelineID)
	checkBounds(t, rec)
}

func TestLowCorrelationBoostsVoom(t *testing.T) {
	p := neutralProfile()
	p.MinSampleCorrelation = fptr(0.55)
	p.MeanSampleCorrelation = fptr(0.8)

	rec, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)

	assert.Equal(t, 5, rec.PipelineID)
	require.NotEmpty(t, rec.Reasons)
	assert.Contains(t, rec.Reasons[0], "0.55")
}

func TestZeroInflationIsAdvisoryOnly(t *testing.T) {
	p := neutralProfile()
	p.ZeroInflation = 0.8

	rec, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)

	// No rule moved any score, so the default ordering decides.
	assert.Equal(t, 1, rec.PipelineID)
	assert.Equal(t, 100.0, rec.Score)
	require.Len(t, rec.Notes, 1)
	assert.Contains(t, rec.Notes[0], "zero inflation")
}

func TestMemoryPriorityFavorsLightChains(t *testing.T) {
	p := neutralProfile()

	rec, err := Recommend(p, PriorityMemory)
	require.NoError(t, err)

	pl, err := Get(rec.PipelineID)
	require.NoError(t, err)
	assert.True(t, pl.LowMemory)
}

func TestRecommendIsDeterministic(t *testing.T) {
	p := neutralProfile()
	p.NSamples = 8

	first, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)
	second, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecommendRejectsBadInput(t *testing.T) {
	_, err := Recommend(nil, PriorityBalanced)
	require.Error(t, err)

	_, err = Recommend(neutralProfile(), Priority("warp"))
	require.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityBalanced, p)

	_, err = ParsePriority("fastest")
	require.ErrorContains(t, err, "fastest")
}

// pipelineScore finds a pipeline's score anywhere in the ranking.
func pipelineScore(rec *Recommendation, id int) (float64, bool) {
	if rec.PipelineID == id {
		return rec.Score, true
	}
	for _, alt := range rec.Alternatives {
		if alt.PipelineID == id {
			return alt.Score, true
		}
	}
	return 0, false
}

func TestReferenceChainScoreMonotonicInReplication(t *testing.T) {
	// Adding samples with everything else fixed must never cost the
	// reference DESeq2 chain points.
	prev := 0.0
	for n := 1; n <= 6; n++ {
		p := neutralProfile()
		p.NSamples = n

		rec, err := Recommend(p, PriorityBalanced)
		require.NoError(t, err)

		score, ok := pipelineScore(rec, 1)
		require.True(t, ok, "pipeline 1 absent from ranking at n=%d", n)
		assert.GreaterOrEqual(t, score, prev, "n=%d", n)
		prev = score
	}
}

func TestConfidenceScale(t *testing.T) {
	p := neutralProfile()
	p.NSamples = 1

	rec, err := Recommend(p, PriorityBalanced)
	require.NoError(t, err)
	assert.InDelta(t, rec.Score/200.0, rec.Confidence, 1e-12)
}
