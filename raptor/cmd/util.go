package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/AyehBlk/RAPTOR/raptor/matrix"
	"github.com/AyehBlk/RAPTOR/raptor/profile"
)

func logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// writeJSON emits indented JSON to stdout or, when path is set, to a file.
func writeJSON(path string, v any) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadInputs reads counts (with a row progress bar for large matrices) and
// optional metadata.
func loadInputs(countsPath, metaPath string, showProgress bool) (*matrix.CountMatrix, *matrix.Metadata, error) {
	var bar *progress
	onRow := func() {}
	if showProgress {
		if total, err := countLines(countsPath); err == nil && total > 1 {
			bar = newProgress(total-1, true)
			onRow = bar.increment
		}
	}

	counts, err := matrix.LoadCounts(countsPath, onRow)
	if bar != nil {
		bar.finish()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load counts: %w", err)
	}

	var meta *matrix.Metadata
	if metaPath != "" {
		meta, err = matrix.LoadMetadata(metaPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load metadata: %w", err)
		}
	}
	return counts, meta, nil
}

func countLines(path string) (int, error) {
	in, err := matrix.OpenFile(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = in.Close()
	}()

	buf := make([]byte, 1024*1024)
	var count int
	var lastByte byte
	for {
		n, err := in.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			lastByte = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if lastByte != '\n' && count > 0 {
		count++
	}
	return count, nil
}

func loadThresholds(configPath string) profile.Thresholds {
	if configPath == "" {
		return profile.DefaultThresholds()
	}
	th, err := profile.LoadThresholds(configPath)
	if err != nil {
		fatalf("load config failed: %v", err)
	}
	return th
}
