// Package recommend scores analysis pipelines against a dataset profile.
//
// The catalog is static: eight alignment/quantification/differential-expression
// tool chains covering the common design space (gold-standard accuracy, fast
// pseudo-alignment, no-replicate and small-sample methods). The rule-based
// recommender adjusts per-pipeline scores from the profile; the mlearn package
// offers a trained alternative over the same catalog ids.
package recommend

import "fmt"

// Pipeline is one catalog entry. The boolean attributes drive the analysis
// priority adjustments: PseudoAlignment chains skip genome alignment entirely,
// HighThroughput chains scale well with sample count, LowMemory chains run on
// laptop-class hardware.
type Pipeline struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Aligner     string   `json:"aligner"`
	Quantifier  string   `json:"quantifier"`
	DETool      string   `json:"de_tool"`
	Description string   `json:"description"`
	BestFor     []string `json:"best_for"`

	PseudoAlignment bool `json:"pseudo_alignment"`
	HighThroughput  bool `json:"high_throughput"`
	HighAccuracy    bool `json:"high_accuracy"`
	LowMemory       bool `json:"low_memory"`
}

var catalog = []Pipeline{
	{
		ID: 1, Name: "STAR-RSEM-DESeq2",
		Aligner: "STAR", Quantifier: "RSEM", DETool: "DESeq2",
		Description: "splice-aware alignment with expectation-maximization quantification; the accuracy reference chain",
		BestFor:     []string{"well-replicated designs", "publication-grade results", "high biological variability"},
		HighAccuracy: true,
	},
	{
		ID: 2, Name: "HISAT2-featureCounts-edgeR",
		Aligner: "HISAT2", Quantifier: "featureCounts", DETool: "edgeR",
		Description: "memory-light alignment with fast exon-union counting",
		BestFor:     []string{"moderate sample counts", "constrained hardware", "quick turnaround"},
		HighThroughput: true, LowMemory: true,
	},
	{
		ID: 3, Name: "Salmon-tximport-DESeq2",
		Aligner: "none", Quantifier: "Salmon", DETool: "DESeq2",
		Description: "selective alignment with bias-aware transcript quantification imported at gene level",
		BestFor:     []string{"large cohorts", "shallow sequencing", "transcript-level awareness"},
		PseudoAlignment: true, HighThroughput: true, LowMemory: true,
	},
	{
		ID: 4, Name: "Kallisto-sleuth",
		Aligner: "none", Quantifier: "kallisto", DETool: "sleuth",
		Description: "pseudo-alignment with bootstrap-based uncertainty propagated into testing",
		BestFor:     []string{"very fast screens", "large cohorts", "transcript-level testing"},
		PseudoAlignment: true, HighThroughput: true, LowMemory: true,
	},
	{
		ID: 5, Name: "STAR-featureCounts-limma-voom",
		Aligner: "STAR", Quantifier: "featureCounts", DETool: "limma-voom",
		Description: "precision-weighted linear modelling; robust to heteroscedasticity and batch structure",
		BestFor:     []string{"many samples", "batch effects", "complex designs"},
		HighAccuracy: true,
	},
	{
		ID: 6, Name: "Salmon-NOISeq",
		Aligner: "none", Quantifier: "Salmon", DETool: "NOISeq",
		Description: "non-parametric testing that works without biological replicates",
		BestFor:     []string{"no replicates", "pilot experiments"},
		PseudoAlignment: true, LowMemory: true,
	},
	{
		ID: 7, Name: "Kallisto-EBSeq",
		Aligner: "none", Quantifier: "kallisto", DETool: "EBSeq",
		Description: "empirical-Bayes testing tuned for very small group sizes",
		BestFor:     []string{"2-3 samples per group", "isoform-level inference"},
		PseudoAlignment: true, LowMemory: true,
	},
	{
		ID: 8, Name: "STAR-HTSeq-DESeq2",
		Aligner: "STAR", Quantifier: "HTSeq", DETool: "DESeq2",
		Description: "the classic counting chain; slower than featureCounts but widely reproduced",
		BestFor:     []string{"standard designs", "matching published protocols"},
		HighAccuracy: true,
	},
}

// All returns the catalog ordered by ascending id. Callers own the returned
// slice.
func All() []Pipeline {
	out := make([]Pipeline, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the catalog entry with the given id.
func Get(id int) (Pipeline, error) {
	for _, p := range catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Pipeline{}, fmt.Errorf("unknown pipeline id %d", id)
}
