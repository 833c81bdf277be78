package profile

// DepthCategory buckets mean library size into fixed ordinal bands.
type DepthCategory string

const (
	DepthVeryLow  DepthCategory = "very_low"
	DepthLow      DepthCategory = "low"
	DepthMedium   DepthCategory = "medium"
	DepthHigh     DepthCategory = "high"
	DepthVeryHigh DepthCategory = "very_high"
)

// BCVCategory buckets the biological coefficient of variation into fixed
// ordinal bands.
type BCVCategory string

const (
	BCVLow      BCVCategory = "low"
	BCVMedium   BCVCategory = "medium"
	BCVHigh     BCVCategory = "high"
	BCVVeryHigh BCVCategory = "very_high"
)

// Profile is the fixed-schema set of descriptors computed from one count
// matrix. Nullable statistics are pointers: nil means the value could not be
// computed for this dataset (too few samples, no dispersed genes, ...) and
// must never be read as zero. Fractions (zero_inflation, top-20 share,
// PCA variance) are on the 0–1 scale throughout.
type Profile struct {
	NGenes   int `json:"n_genes"`
	NSamples int `json:"n_samples"`

	MeanLibrarySize   float64       `json:"mean_library_size"`
	MedianLibrarySize float64       `json:"median_library_size"`
	LibrarySizeCV     *float64      `json:"library_size_cv"`
	DepthCategory     DepthCategory `json:"depth_category"`

	ZeroInflation float64 `json:"zero_inflation"`

	MeanExpression       float64  `json:"mean_expression"`
	MedianExpression     float64  `json:"median_expression"`
	MeanVariance         *float64 `json:"mean_variance"`
	LowExpressionGenes   int      `json:"low_expression_genes"`
	HighExpressionGenes  int      `json:"high_expression_genes"`
	PctLowExpression     float64  `json:"pct_low_expression"`
	PctHighExpression    float64  `json:"pct_high_expression"`
	ExpressionRangeLog10 *float64 `json:"expression_range_log10"`

	BCV         *float64    `json:"bcv"`
	MeanBCV     *float64    `json:"mean_bcv"`
	BCVCategory BCVCategory `json:"bcv_category,omitempty"`

	MeanSampleCorrelation   *float64 `json:"mean_sample_correlation"`
	MedianSampleCorrelation *float64 `json:"median_sample_correlation"`
	MinSampleCorrelation    *float64 `json:"min_sample_correlation"`

	MeanGenesDetected  float64 `json:"mean_genes_detected"`
	MeanGenesPerSample float64 `json:"mean_genes_per_sample"`
	MinGenesPerSample  int     `json:"min_genes_per_sample"`
	MeanTop20Share     float64 `json:"mean_top20_share"`

	PCAVarPC1 *float64 `json:"pca_var_explained_pc1"`
	PCAVarPC2 *float64 `json:"pca_var_explained_pc2"`
	Outliers  []string `json:"outliers"`

	QualityFlags []string `json:"quality_flags"`
}

// HasReplicates reports whether the dataset has at least two samples.
func (p *Profile) HasReplicates() bool {
	return p.NSamples >= 2
}

func ptr(v float64) *float64 { return &v }
