package matrix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// SampleInfo holds the experimental annotations for one sample.
type SampleInfo struct {
	Condition string
	Batch     string
	Replicate int
}

// Metadata maps sample identifiers to annotations, in file order.
type Metadata struct {
	samples []string
	info    map[string]SampleInfo
}

func (md *Metadata) Len() int {
	if md == nil {
		return 0
	}
	return len(md.samples)
}

// Samples returns sample identifiers in file order. The slice is shared;
// callers must not modify it.
func (md *Metadata) Samples() []string {
	if md == nil {
		return nil
	}
	return md.samples
}

func (md *Metadata) Get(id string) (SampleInfo, bool) {
	if md == nil {
		return SampleInfo{}, false
	}
	info, ok := md.info[id]
	return info, ok
}

// HasBatch reports whether any sample carries a batch annotation.
func (md *Metadata) HasBatch() bool {
	if md == nil {
		return false
	}
	for _, info := range md.info {
		if info.Batch != "" {
			return true
		}
	}
	return false
}

// Conditions returns the distinct condition labels, in first-seen order.
func (md *Metadata) Conditions() []string {
	if md == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, id := range md.samples {
		c := md.info[id].Condition
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// LoadMetadata reads a sample metadata table. Required column: sample (or
// sample_id); recognized columns: condition, batch, replicate.
func LoadMetadata(path string) (*Metadata, error) {
	in, err := OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()
	md, err := ReadMetadata(in, DelimiterFor(path))
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	return md, nil
}

// ReadMetadata parses sample metadata from r.
func ReadMetadata(r io.Reader, delim byte) (*Metadata, error) {
	var (
		idxSample    = -1
		idxCondition = -1
		idxBatch     = -1
		idxReplicate = -1
		headerSeen   bool
	)
	md := &Metadata{info: make(map[string]SampleInfo)}

	opts := DefaultReadOptions()
	opts.Delimiter = delim

	err := ReadRows(r, opts, func(row Row) error {
		if !headerSeen {
			headerSeen = true
			for i, f := range row.Fields {
				switch string(bytes.TrimSpace(bytes.ToLower(f))) {
				case "sample", "sample_id", "sampleid":
					idxSample = i
				case "condition", "group":
					idxCondition = i
				case "batch":
					idxBatch = i
				case "replicate", "rep":
					idxReplicate = i
				}
			}
			if idxSample < 0 {
				return errors.New("metadata header missing sample column")
			}
			return nil
		}

		id := fieldString(row.Fields, idxSample)
		if id == "" {
			return fmt.Errorf("line %d: empty sample identifier", row.Line)
		}
		if _, ok := md.info[id]; ok {
			return fmt.Errorf("line %d: duplicate sample identifier: %s", row.Line, id)
		}

		info := SampleInfo{
			Condition: fieldString(row.Fields, idxCondition),
			Batch:     fieldString(row.Fields, idxBatch),
		}
		if rep := fieldString(row.Fields, idxReplicate); rep != "" {
			n, err := strconv.Atoi(rep)
			if err != nil {
				return fmt.Errorf("line %d: replicate is not an integer: %q", row.Line, rep)
			}
			info.Replicate = n
		}

		md.samples = append(md.samples, id)
		md.info[id] = info
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !headerSeen {
		return nil, errors.New("metadata table is empty")
	}
	if len(md.samples) == 0 {
		return nil, errors.New("metadata table has no sample rows")
	}
	return md, nil
}

func fieldString(fields [][]byte, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return string(bytes.TrimSpace(fields[idx]))
}
