package mlearn

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestPipeline(t *testing.T) {
	r := BenchmarkRecord{
		Dataset: "ds1",
		Results: []PipelineResult{
			{PipelineID: 3, F1: 0.8, Accuracy: 0.7},
			{PipelineID: 1, F1: 0.8, Accuracy: 0.9},
			{PipelineID: 5, F1: 0.6, Accuracy: 0.95},
		},
	}

	best, err := r.BestPipeline("f1")
	require.NoError(t, err)
	assert.Equal(t, 1, best) // 0.8 tie between 3 and 1 goes to the lower id

	best, err = r.BestPipeline("accuracy")
	require.NoError(t, err)
	assert.Equal(t, 5, best)

	_, err = r.BestPipeline("auc")
	require.ErrorContains(t, err, "auc")
}

func TestBestPipelineEmptyResults(t *testing.T) {
	r := BenchmarkRecord{Dataset: "empty"}
	_, err := r.BestPipeline("f1")
	require.ErrorContains(t, err, "empty")
}

func TestLoadCorpusPlainAndGzip(t *testing.T) {
	records := syntheticCorpus(4)
	raw, err := json.Marshal(records)
	require.NoError(t, err)

	dir := t.TempDir()

	plain := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(plain, raw, 0o644))
	got, err := LoadCorpus(plain)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "ds001", got[0].Dataset)

	zipped := filepath.Join(dir, "corpus.json.gz")
	f, err := os.Create(zipped)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write(raw)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	got, err = LoadCorpus(zipped)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 2, got[0].Profile.NSamples)
}

func TestLoadCorpusBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadCorpus(path)
	require.Error(t, err)
}
