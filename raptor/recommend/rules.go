package recommend

import (
	"fmt"
	"sort"

	"github.com/AyehBlk/RAPTOR/raptor/profile"
)

// Priority biases scoring toward one axis of the speed/accuracy/memory
// trade-off. Balanced applies no adjustment.
type Priority string

const (
	PriorityBalanced Priority = "balanced"
	PrioritySpeed    Priority = "speed"
	PriorityAccuracy Priority = "accuracy"
	PriorityMemory   Priority = "memory"
)

// ParsePriority validates a priority name from user input.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityBalanced, PrioritySpeed, PriorityAccuracy, PriorityMemory:
		return Priority(s), nil
	case "":
		return PriorityBalanced, nil
	}
	return "", fmt.Errorf("unknown priority %q (want balanced, speed, accuracy or memory)", s)
}

// Scores live on a 0..200 scale. Every pipeline starts at the midpoint and
// rules move it from there; the clamp keeps pathological stacking bounded.
const (
	baseScore = 100
	maxScore  = 200
)

// Rule weights. Kept in one place so the scoring table reads as a unit.
const (
	wNoReplicates      = 60 // n < 2 -> NOISeq
	wSmallSamplesEBSeq = 45 // n in [2,3] -> EBSeq
	wSmallSamplesNOI   = 15
	wReplicatedRSEM    = 40 // n >= 6
	wReplicatedVoom    = 35
	wReplicatedEdgeR   = 20
	wShallowDepth      = 25 // mean depth < 1e7 -> pseudo-aligners
	wLargeCohort       = 20 // n > 20 -> pseudo-aligners
	wLowCorrelation    = 25 // min corr < 0.7 -> limma-voom
	wHighBCV           = 15 // very_high BCV -> DESeq2 reference chain

	speedBonus  = 10 // priority=speed, pseudo-alignment chains
	memoryBonus = 15 // priority=memory, low-memory chains
	priorityX   = 1.5

	shallowDepthCutoff = 1e7
	largeCohortCutoff  = 20
	lowCorrCutoff      = 0.7
	zeroInflAdvisory   = 0.7
)

// Candidate is one ranked catalog entry.
type Candidate struct {
	PipelineID   int     `json:"pipeline_id"`
	PipelineName string  `json:"pipeline_name"`
	Score        float64 `json:"score"`
}

// Recommendation is the scored answer for one profile: the primary choice,
// why it won, and the runners-up.
type Recommendation struct {
	PipelineID   int         `json:"pipeline_id"`
	PipelineName string      `json:"pipeline_name"`
	Score        float64     `json:"score"`
	Confidence   float64     `json:"confidence"`
	Reasons      []string    `json:"reasons"`
	Notes        []string    `json:"notes,omitempty"`
	Alternatives []Candidate `json:"alternatives"`
}

type scored struct {
	pipeline Pipeline
	score    float64
	reasons  []string
}

// Recommend runs the rule table against a profile. Missing (nil) profile
// fields leave their rules untriggered; the function is deterministic and
// total over any profile the profiler can produce.
func Recommend(p *profile.Profile, priority Priority) (*Recommendation, error) {
	if p == nil {
		return nil, fmt.Errorf("nil profile")
	}
	if _, err := ParsePriority(string(priority)); err != nil {
		return nil, err
	}
	if priority == "" {
		priority = PriorityBalanced
	}

	byID := make(map[int]*scored, len(catalog))
	all := make([]*scored, 0, len(catalog))
	for _, pl := range catalog {
		s := &scored{pipeline: pl, score: baseScore}
		byID[pl.ID] = s
		all = append(all, s)
	}
	boost := func(id int, w float64, reason string) {
		s := byID[id]
		s.score += w
		s.reasons = append(s.reasons, reason)
	}

	accX, speedX := 1.0, 1.0
	switch priority {
	case PriorityAccuracy:
		accX = priorityX
	case PrioritySpeed:
		speedX = priorityX
	}

	var notes []string

	// Replication drives method choice more than anything else.
	switch {
	case p.NSamples < 2:
		boost(6, wNoReplicates, "no biological replicates: NOISeq tests without them")
		notes = append(notes, "single-sample design: differential results will be descriptive only")
	case p.NSamples <= 3:
		boost(7, wSmallSamplesEBSeq, fmt.Sprintf("only %d samples: EBSeq's empirical Bayes borrows strength across genes", p.NSamples))
		boost(6, wSmallSamplesNOI, "very small design: non-parametric testing stays usable")
	case p.NSamples >= 6:
		boost(1, accX*wReplicatedRSEM, fmt.Sprintf("%d samples: enough replication for the reference DESeq2 chain", p.NSamples))
		boost(5, accX*wReplicatedVoom, "well-replicated design suits precision-weighted linear models")
		boost(2, wReplicatedEdgeR, "replicated design works well with edgeR's tagwise dispersion")
	}

	if p.MeanLibrarySize < shallowDepthCutoff {
		reason := fmt.Sprintf("shallow sequencing (mean %.1fM reads): pseudo-alignment loses little accuracy and runs far faster", p.MeanLibrarySize/1e6)
		boost(3, speedX*wShallowDepth, reason)
		boost(4, speedX*wShallowDepth, reason)
	}
	if p.NSamples > largeCohortCutoff {
		reason := fmt.Sprintf("large cohort (%d samples): alignment-free quantification keeps wall time manageable", p.NSamples)
		boost(3, speedX*wLargeCohort, reason)
		boost(4, speedX*wLargeCohort, reason)
	}

	if p.MinSampleCorrelation != nil && *p.MinSampleCorrelation < lowCorrCutoff {
		boost(5, wLowCorrelation, fmt.Sprintf("low minimum sample correlation (%.2f): voom's observation weights damp discordant samples", *p.MinSampleCorrelation))
	}
	if p.ZeroInflation > zeroInflAdvisory {
		notes = append(notes, fmt.Sprintf("high zero inflation (%.0f%%): pre-filter lowly expressed genes before testing", 100*p.ZeroInflation))
	}
	if p.BCVCategory == profile.BCVVeryHigh {
		boost(1, wHighBCV, "very high biological variability: DESeq2's shrinkage estimators handle dispersed data well")
	}

	switch priority {
	case PrioritySpeed:
		for _, s := range all {
			if s.pipeline.PseudoAlignment {
				s.score += speedBonus
				s.reasons = append(s.reasons, "speed priority favors alignment-free chains")
			}
		}
	case PriorityMemory:
		for _, s := range all {
			if s.pipeline.LowMemory {
				s.score += memoryBonus
				s.reasons = append(s.reasons, "memory priority favors low-footprint chains")
			}
		}
	}

	for _, s := range all {
		if s.score > maxScore {
			s.score = maxScore
		}
		if s.score < 0 {
			s.score = 0
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].pipeline.ID < all[j].pipeline.ID
	})

	top := all[0]
	rec := &Recommendation{
		PipelineID:   top.pipeline.ID,
		PipelineName: top.pipeline.Name,
		Score:        top.score,
		Confidence:   top.score / maxScore,
		Reasons:      top.reasons,
		Notes:        notes,
	}
	if rec.Reasons == nil {
		rec.Reasons = []string{"no profile signal distinguished the candidates; default ranking applies"}
	}
	for _, s := range all[1:3] {
		rec.Alternatives = append(rec.Alternatives, Candidate{
			PipelineID:   s.pipeline.ID,
			PipelineName: s.pipeline.Name,
			Score:        s.score,
		})
	}
	return rec, nil
}
