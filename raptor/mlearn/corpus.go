package mlearn

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/AyehBlk/RAPTOR/raptor/profile"
)

// PipelineResult holds the benchmark metrics one pipeline achieved on one
// dataset. Metrics are fractions in [0,1].
type PipelineResult struct {
	PipelineID int     `json:"pipeline_id"`
	F1         float64 `json:"f1"`
	Accuracy   float64 `json:"accuracy"`
}

// BenchmarkRecord is one corpus entry: a dataset profile plus the measured
// performance of each pipeline that was run against it.
type BenchmarkRecord struct {
	Dataset string           `json:"dataset"`
	Profile profile.Profile  `json:"profile"`
	Results []PipelineResult `json:"results"`
}

// BestPipeline returns the id of the best-performing pipeline under the
// given metric, breaking exact ties toward the lower id.
func (r *BenchmarkRecord) BestPipeline(metric string) (int, error) {
	if len(r.Results) == 0 {
		return 0, fmt.Errorf("record %q has no pipeline results", r.Dataset)
	}
	bestID, bestVal := 0, -1.0
	for _, res := range r.Results {
		v, err := metricValue(res, metric)
		if err != nil {
			return 0, err
		}
		if v > bestVal || (v == bestVal && res.PipelineID < bestID) {
			bestID, bestVal = res.PipelineID, v
		}
	}
	return bestID, nil
}

func metricValue(res PipelineResult, metric string) (float64, error) {
	switch metric {
	case "f1":
		return res.F1, nil
	case "accuracy":
		return res.Accuracy, nil
	}
	return 0, fmt.Errorf("unknown metric %q (want f1 or accuracy)", metric)
}

// LoadCorpus reads a JSON array of benchmark records; a .gz suffix selects
// transparent decompression.
func LoadCorpus(path string) ([]BenchmarkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open corpus: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var records []BenchmarkRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	return records, nil
}
