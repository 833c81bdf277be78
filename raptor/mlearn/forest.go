package mlearn

import (
	"errors"
	"math"
	"math/rand"
)

// classifier is the strategy contract shared by the ensemble models. fit sees
// class indexes (0..k-1), not pipeline ids; the Recommender owns the mapping.
type classifier interface {
	fit(X [][]float64, y []int, rng *rand.Rand) error
	predictProba(x []float64) []float64
	featureImportances() []float64
	name() string
}

type randomForest struct {
	NTrees         int             `json:"n_trees"`
	MaxDepth       int             `json:"max_depth"`
	MinSamplesLeaf int             `json:"min_samples_leaf"`
	NClasses       int             `json:"n_classes"`
	Trees          []*decisionTree `json:"trees"`
}

func newRandomForest(nClasses int) *randomForest {
	return &randomForest{
		NTrees:         100,
		MaxDepth:       10,
		MinSamplesLeaf: 1,
		NClasses:       nClasses,
	}
}

func (f *randomForest) name() string { return "random-forest" }

func (f *randomForest) fit(X [][]float64, y []int, rng *rand.Rand) error {
	if len(X) == 0 {
		return errors.New("empty training set")
	}
	nFeatures := len(X[0])
	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	f.Trees = make([]*decisionTree, 0, f.NTrees)
	for t := 0; t < f.NTrees; t++ {
		// Each tree draws its bootstrap and split randomness from its own
		// child source so the forest is reproducible under a fixed seed.
		treeRng := rand.New(rand.NewSource(rng.Int63()))

		bx := make([][]float64, len(X))
		by := make([]float64, len(X))
		for i := range X {
			j := treeRng.Intn(len(X))
			bx[i] = X[j]
			by[i] = float64(y[j])
		}
		cfg := treeConfig{
			Criterion:      criterionGini,
			MaxDepth:       f.MaxDepth,
			MinSamplesLeaf: f.MinSamplesLeaf,
			MaxFeatures:    maxFeatures,
			NClasses:       f.NClasses,
		}
		f.Trees = append(f.Trees, fitTree(bx, by, cfg, treeRng))
	}
	return nil
}

func (f *randomForest) predictProba(x []float64) []float64 {
	probs := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		for c, p := range t.predict(x) {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs
}

func (f *randomForest) featureImportances() []float64 {
	if len(f.Trees) == 0 {
		return nil
	}
	imp := make([]float64, len(f.Trees[0].Importances))
	for _, t := range f.Trees {
		for i, v := range t.Importances {
			imp[i] += v
		}
	}
	for i := range imp {
		imp[i] /= float64(len(f.Trees))
	}
	return imp
}
