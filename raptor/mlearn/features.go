// Package mlearn trains tree-ensemble recommenders over benchmark corpora
// and serves ranked pipeline predictions from dataset profiles. Everything
// here is seeded: identical corpus, metric and seed produce bit-identical
// models and predictions.
package mlearn

import "github.com/AyehBlk/RAPTOR/raptor/profile"

// featureNames fixes the feature vector schema. Order matters: trained
// models record this list and refuse to predict against a different one.
var featureNames = []string{
	"n_samples",
	"n_genes",
	"mean_library_size",
	"median_library_size",
	"library_size_cv",
	"zero_inflation",
	"mean_expression",
	"median_expression",
	"pct_low_expression",
	"pct_high_expression",
	"bcv",
	"mean_bcv",
	"mean_sample_correlation",
	"min_sample_correlation",
	"correlation_missing",
	"mean_top20_share",
	"depth_ordinal",
	"bcv_ordinal",
	"has_replicates",
}

// Defaults for statistics the profiler could not compute. A missing
// correlation defaults to 1.0 (absence of evidence of dissimilarity, not
// evidence of it) and is flagged through the correlation_missing indicator,
// since 1.0 is itself a valid correlation. Everything else missing defaults
// to 0.
const (
	defaultCorrelation = 1.0
	defaultNumeric     = 0.0
)

var depthOrdinal = map[profile.DepthCategory]float64{
	profile.DepthVeryLow:  0,
	profile.DepthLow:      1,
	profile.DepthMedium:   2,
	profile.DepthHigh:     3,
	profile.DepthVeryHigh: 4,
}

// bcvOrdinal reserves 0 for "not computable" so the ordinal stays ordered.
var bcvOrdinal = map[profile.BCVCategory]float64{
	profile.BCVLow:      1,
	profile.BCVMedium:   2,
	profile.BCVHigh:     3,
	profile.BCVVeryHigh: 4,
}

func orZero(v *float64) float64 {
	if v == nil {
		return defaultNumeric
	}
	return *v
}

func orOne(v *float64) float64 {
	if v == nil {
		return defaultCorrelation
	}
	return *v
}

// Vectorize maps a profile onto the fixed feature schema. The same function
// serves training and prediction, so nil-field defaults can never drift
// between the two.
func Vectorize(p *profile.Profile) []float64 {
	hasReps := 0.0
	if p.NSamples >= 2 {
		hasReps = 1.0
	}
	corrMissing := 0.0
	if p.MinSampleCorrelation == nil {
		corrMissing = 1.0
	}
	return []float64{
		float64(p.NSamples),
		float64(p.NGenes),
		p.MeanLibrarySize,
		p.MedianLibrarySize,
		orZero(p.LibrarySizeCV),
		p.ZeroInflation,
		p.MeanExpression,
		p.MedianExpression,
		p.PctLowExpression,
		p.PctHighExpression,
		orZero(p.BCV),
		orZero(p.MeanBCV),
		orOne(p.MeanSampleCorrelation),
		orOne(p.MinSampleCorrelation),
		corrMissing,
		p.MeanTop20Share,
		depthOrdinal[p.DepthCategory],
		bcvOrdinal[p.BCVCategory],
		hasReps,
	}
}

// FeatureNames returns the schema in vector order. Callers own the slice.
func FeatureNames() []string {
	return append([]string(nil), featureNames...)
}
