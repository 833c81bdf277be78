package matrix

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCountsTSV(t *testing.T) {
	in := "gene\tA\tB\n" +
		"g1\t10\t20\n" +
		"g2\t0\t5\n"

	var rows int
	m, err := ReadCounts(strings.NewReader(in), '\t', func() { rows++ })
	require.NoError(t, err)

	assert.Equal(t, []string{"g1", "g2"}, m.Genes())
	assert.Equal(t, []string{"A", "B"}, m.Samples())
	assert.Equal(t, 20.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(1, 0))
	assert.Equal(t, 3, rows) // header plus two gene rows
}

func TestReadCountsCSVMissingValues(t *testing.T) {
	in := "gene,A,B\n" +
		"g1,NA,4\n" +
		"g2,7,\n"

	m, err := ReadCounts(strings.NewReader(in), ',', nil)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(m.At(0, 0)))
	assert.True(t, math.IsNaN(m.At(1, 1)))
	assert.Equal(t, 7.0, m.At(1, 0))
}

func TestReadCountsRejectsGarbage(t *testing.T) {
	in := "gene\tA\tB\n" +
		"g1\t1\ttwo\n"

	_, err := ReadCounts(strings.NewReader(in), '\t', nil)
	require.ErrorContains(t, err, `"two"`)
	require.ErrorContains(t, err, "B")
}

func TestReadCountsRejectsRaggedRows(t *testing.T) {
	in := "gene\tA\tB\n" +
		"g1\t1\n"

	_, err := ReadCounts(strings.NewReader(in), '\t', nil)
	require.Error(t, err)
}

func TestReadCountsEmptyInput(t *testing.T) {
	_, err := ReadCounts(strings.NewReader(""), '\t', nil)
	require.ErrorContains(t, err, "empty")

	_, err = ReadCounts(strings.NewReader("gene\tA\tB\n"), '\t', nil)
	require.ErrorContains(t, err, "no gene rows")
}

func TestLoadCountsGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counts.csv.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte("gene,A,B\ng1,3,4\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	m, err := LoadCounts(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, m.At(0, 0))
	assert.Equal(t, []string{"A", "B"}, m.Samples())
}

func TestDelimiterFor(t *testing.T) {
	assert.Equal(t, byte(','), DelimiterFor("x.csv"))
	assert.Equal(t, byte(','), DelimiterFor("x.csv.gz"))
	assert.Equal(t, byte('\t'), DelimiterFor("x.tsv"))
	assert.Equal(t, byte('\t'), DelimiterFor("x.tsv.gz"))
	assert.Equal(t, byte('\t'), DelimiterFor("x.txt"))
}

func TestReadMetadata(t *testing.T) {
	in := "sample,condition,batch,replicate\n" +
		"A,ctrl,b1,1\n" +
		"B,treat,b2,1\n" +
		"C,treat,,2\n"

	md, err := ReadMetadata(strings.NewReader(in), ',')
	require.NoError(t, err)

	assert.Equal(t, 3, md.Len())
	assert.Equal(t, []string{"A", "B", "C"}, md.Samples())
	info, ok := md.Get("B")
	require.True(t, ok)
	assert.Equal(t, "treat", info.Condition)
	assert.Equal(t, "b2", info.Batch)
	assert.Equal(t, 1, info.Replicate)
	assert.True(t, md.HasBatch())
	assert.ElementsMatch(t, []string{"ctrl", "treat"}, md.Conditions())
}

func TestReadMetadataRejectsDuplicates(t *testing.T) {
	in := "sample,condition\nA,x\nA,y\n"
	_, err := ReadMetadata(strings.NewReader(in), ',')
	require.ErrorContains(t, err, "A")
}
