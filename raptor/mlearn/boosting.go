package mlearn

import (
	"errors"
	"math"
	"math/rand"
)

// gradientBoosting is a multiclass softmax gradient-boosted ensemble: each
// round fits one shallow regression tree per class to the probability
// residuals and adds it with shrinkage.
type gradientBoosting struct {
	NRounds        int     `json:"n_rounds"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	LearningRate   float64 `json:"learning_rate"`
	NClasses       int     `json:"n_classes"`

	// Rounds[r][c] is the round-r tree for class c.
	Rounds [][]*decisionTree `json:"rounds"`
}

func newGradientBoosting(nClasses int) *gradientBoosting {
	return &gradientBoosting{
		NRounds:        50,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
		LearningRate:   0.1,
		NClasses:       nClasses,
	}
}

func (g *gradientBoosting) name() string { return "gradient-boosting" }

func (g *gradientBoosting) fit(X [][]float64, y []int, rng *rand.Rand) error {
	if len(X) == 0 {
		return errors.New("empty training set")
	}
	n := len(X)

	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, g.NClasses)
	}

	cfg := treeConfig{
		Criterion:      criterionMSE,
		MaxDepth:       g.MaxDepth,
		MinSamplesLeaf: g.MinSamplesLeaf,
	}

	g.Rounds = make([][]*decisionTree, 0, g.NRounds)
	residual := make([]float64, n)
	for r := 0; r < g.NRounds; r++ {
		round := make([]*decisionTree, g.NClasses)
		for c := 0; c < g.NClasses; c++ {
			for i := 0; i < n; i++ {
				p := softmax(scores[i])
				target := 0.0
				if y[i] == c {
					target = 1.0
				}
				residual[i] = target - p[c]
			}
			treeRng := rand.New(rand.NewSource(rng.Int63()))
			round[c] = fitTree(X, residual, cfg, treeRng)
		}
		// Score updates happen after the whole round so every class tree in
		// a round sees the same probabilities.
		for i := 0; i < n; i++ {
			for c := 0; c < g.NClasses; c++ {
				scores[i][c] += g.LearningRate * round[c].predictScalar(X[i])
			}
		}
		g.Rounds = append(g.Rounds, round)
	}
	return nil
}

func (g *gradientBoosting) predictProba(x []float64) []float64 {
	scores := make([]float64, g.NClasses)
	for _, round := range g.Rounds {
		for c, t := range round {
			scores[c] += g.LearningRate * t.predictScalar(x)
		}
	}
	return softmax(scores)
}

func (g *gradientBoosting) featureImportances() []float64 {
	var imp []float64
	var count float64
	for _, round := range g.Rounds {
		for _, t := range round {
			if imp == nil {
				imp = make([]float64, len(t.Importances))
			}
			for i, v := range t.Importances {
				imp[i] += v
			}
			count++
		}
	}
	if count == 0 {
		return nil
	}
	for i := range imp {
		imp[i] /= count
	}
	return imp
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
