package matrix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
)

type readCloser struct {
	reader io.Reader
	close  func() error
}

func (r readCloser) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r readCloser) Close() error {
	return r.close()
}

// OpenFile opens a plain or gzip-compressed file for reading. Decompression
// uses pgzip so large .gz matrices decode on multiple cores.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{
			reader: gz,
			close: func() error {
				_ = gz.Close()
				return f.Close()
			},
		}, nil
	}
	return f, nil
}

// DelimiterFor guesses the field delimiter from the file name: .csv and
// .csv.gz are comma-separated, everything else is tab-separated.
func DelimiterFor(path string) byte {
	name := strings.TrimSuffix(path, ".gz")
	if strings.HasSuffix(name, ".csv") {
		return ','
	}
	return '\t'
}

// LoadCounts reads a count matrix from a delimited text file (optionally
// gzip-compressed). The first row holds sample identifiers, the first column
// holds gene identifiers. onRow, when non-nil, is called once per data row.
func LoadCounts(path string, onRow func()) (*CountMatrix, error) {
	in, err := OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open counts: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()
	m, err := ReadCounts(in, DelimiterFor(path), onRow)
	if err != nil {
		return nil, fmt.Errorf("read counts %s: %w", path, err)
	}
	return m, nil
}

// ReadCounts parses a gene × sample count table from r. Missing values
// ("", NA, NaN) load as NaN so the validator can itemize them; they are
// never silently dropped or zero-filled.
func ReadCounts(r io.Reader, delim byte, onRow func()) (*CountMatrix, error) {
	var (
		samples []string
		genes   []string
		data    []float64
	)

	opts := DefaultReadOptions()
	opts.Delimiter = delim
	opts.StrictColumns = true
	opts.OnRow = onRow

	err := ReadRows(r, opts, func(row Row) error {
		if samples == nil {
			samples = headerSamples(row.Fields)
			if len(samples) == 0 {
				return errors.New("header has no sample columns")
			}
			return nil
		}
		if len(row.Fields) != len(samples)+1 {
			return fmt.Errorf("line %d: expected %d fields, got %d", row.Line, len(samples)+1, len(row.Fields))
		}
		gene := string(bytes.TrimSpace(row.Fields[0]))
		if gene == "" {
			return fmt.Errorf("line %d: empty gene identifier", row.Line)
		}
		genes = append(genes, gene)
		for i, f := range row.Fields[1:] {
			v, err := parseCount(f)
			if err != nil {
				return fmt.Errorf("line %d, sample %s: %w", row.Line, samples[i], err)
			}
			data = append(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if samples == nil {
		return nil, errors.New("input table is empty")
	}
	if len(genes) == 0 {
		return nil, errors.New("input table has no gene rows")
	}
	return New(genes, samples, data)
}

// headerSamples returns the sample identifiers from a header row. The first
// field is the gene-id column label and may be empty.
func headerSamples(fields [][]byte) []string {
	if len(fields) < 2 {
		return nil
	}
	samples := make([]string, 0, len(fields)-1)
	for _, f := range fields[1:] {
		samples = append(samples, string(bytes.TrimSpace(f)))
	}
	return samples
}

func parseCount(field []byte) (float64, error) {
	s := string(bytes.TrimSpace(field))
	switch s {
	case "", "NA", "na", "NaN", "nan", "NAN", "null":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}
