package matrix

import (
	"fmt"
	"math"
	"strings"
)

// maxItemized caps how many per-cell violations are listed individually
// before the remainder is summarized in one line.
const maxItemized = 10

// ValidationError reports a malformed count matrix or metadata table with
// one entry per violation. Nothing is ever silently corrected.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "validation failed: " + e.Problems[0]
	}
	return fmt.Sprintf("validation failed with %d problems:\n  - %s", len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// Validate checks a count matrix and optional metadata for structural
// validity: no missing (NaN) entries, no negative or infinite entries, and
// metadata sample identifiers that all match matrix columns. Metadata
// mismatches are reported through the same itemized path as data problems,
// never panicked on. Pure function over its inputs.
func Validate(m *CountMatrix, meta *Metadata) (bool, []string) {
	var problems []string

	if m == nil || m.NGenes() == 0 || m.NSamples() == 0 {
		problems = append(problems, "count matrix is empty")
		return false, problems
	}

	var nan, neg, inf int
	for g, gene := range m.genes {
		row := m.GeneRow(g)
		for s, v := range row {
			switch {
			case math.IsNaN(v):
				nan++
				if nan <= maxItemized {
					problems = append(problems, fmt.Sprintf("missing value at gene %s, sample %s", gene, m.samples[s]))
				}
			case math.IsInf(v, 0):
				inf++
				if inf <= maxItemized {
					problems = append(problems, fmt.Sprintf("non-finite value at gene %s, sample %s", gene, m.samples[s]))
				}
			case v < 0:
				neg++
				if neg <= maxItemized {
					problems = append(problems, fmt.Sprintf("negative value %g at gene %s, sample %s", v, gene, m.samples[s]))
				}
			}
		}
	}
	if nan > maxItemized {
		problems = append(problems, fmt.Sprintf("... and %d more missing values", nan-maxItemized))
	}
	if inf > maxItemized {
		problems = append(problems, fmt.Sprintf("... and %d more non-finite values", inf-maxItemized))
	}
	if neg > maxItemized {
		problems = append(problems, fmt.Sprintf("... and %d more negative values", neg-maxItemized))
	}

	if meta != nil {
		for _, id := range meta.Samples() {
			if m.SampleIndex(id) < 0 {
				problems = append(problems, fmt.Sprintf("metadata sample %s not found in count matrix columns", id))
			}
		}
	}

	return len(problems) == 0, problems
}

// ValidateStrict runs Validate and converts violations into a typed
// *ValidationError for callers that want a hard failure.
func ValidateStrict(m *CountMatrix, meta *Metadata) error {
	ok, problems := Validate(m, meta)
	if ok {
		return nil
	}
	return &ValidationError{Problems: problems}
}
