package matrix

import (
	"errors"
	"fmt"
)

// CountMatrix is a gene × sample table of read counts. Rows are genes,
// columns are samples, storage is row-major. Values are float64 so that
// both raw integer counts and normalized abundances fit.
type CountMatrix struct {
	genes   []string
	samples []string
	data    []float64
}

// New builds a CountMatrix from row-major data. Gene and sample identifiers
// must be unique; data length must equal len(genes)*len(samples).
func New(genes, samples []string, data []float64) (*CountMatrix, error) {
	if len(genes) == 0 {
		return nil, errors.New("matrix has no genes")
	}
	if len(samples) == 0 {
		return nil, errors.New("matrix has no samples")
	}
	if len(data) != len(genes)*len(samples) {
		return nil, fmt.Errorf("data length %d does not match %d genes × %d samples", len(data), len(genes), len(samples))
	}
	if dup := firstDuplicate(genes); dup != "" {
		return nil, fmt.Errorf("duplicate gene identifier: %s", dup)
	}
	if dup := firstDuplicate(samples); dup != "" {
		return nil, fmt.Errorf("duplicate sample identifier: %s", dup)
	}
	return &CountMatrix{
		genes:   append([]string(nil), genes...),
		samples: append([]string(nil), samples...),
		data:    append([]float64(nil), data...),
	}, nil
}

func (m *CountMatrix) NGenes() int   { return len(m.genes) }
func (m *CountMatrix) NSamples() int { return len(m.samples) }

// Genes returns the gene identifiers in row order. The slice is shared;
// callers must not modify it.
func (m *CountMatrix) Genes() []string { return m.genes }

// Samples returns the sample identifiers in column order. The slice is
// shared; callers must not modify it.
func (m *CountMatrix) Samples() []string { return m.samples }

func (m *CountMatrix) At(gene, sample int) float64 {
	return m.data[gene*len(m.samples)+sample]
}

// GeneRow returns the counts for one gene across all samples as a view into
// the matrix storage.
func (m *CountMatrix) GeneRow(gene int) []float64 {
	start := gene * len(m.samples)
	return m.data[start : start+len(m.samples)]
}

// SampleColumn copies the counts for one sample across all genes.
func (m *CountMatrix) SampleColumn(sample int) []float64 {
	col := make([]float64, len(m.genes))
	for g := range m.genes {
		col[g] = m.data[g*len(m.samples)+sample]
	}
	return col
}

// LibrarySizes returns the per-sample column sums.
func (m *CountMatrix) LibrarySizes() []float64 {
	sizes := make([]float64, len(m.samples))
	for g := range m.genes {
		row := m.GeneRow(g)
		for s, v := range row {
			sizes[s] += v
		}
	}
	return sizes
}

// SampleIndex returns the column index of a sample identifier, or -1.
func (m *CountMatrix) SampleIndex(id string) int {
	for i, s := range m.samples {
		if s == id {
			return i
		}
	}
	return -1
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}
