package mlearn

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a CART tree. Leaves carry a value vector: the
// class distribution for classification trees, a single mean for regression
// trees. Fields are exported for JSON model persistence.
type treeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

const (
	criterionGini = "gini"
	criterionMSE  = "mse"
)

// treeConfig controls one tree build. MaxFeatures == 0 means consider every
// feature at every split.
type treeConfig struct {
	Criterion      string `json:"criterion"`
	MaxDepth       int    `json:"max_depth"`
	MinSamplesLeaf int    `json:"min_samples_leaf"`
	MaxFeatures    int    `json:"max_features"`
	NClasses       int    `json:"n_classes"`
}

type decisionTree struct {
	Config treeConfig `json:"config"`
	Root   *treeNode  `json:"root"`

	// Accumulated impurity decrease per feature, normalized after the build.
	Importances []float64 `json:"importances"`
}

type splitSample struct {
	x []float64
	y float64 // class index for classification, target for regression
}

func fitTree(X [][]float64, y []float64, cfg treeConfig, rng *rand.Rand) *decisionTree {
	t := &decisionTree{
		Config:      cfg,
		Importances: make([]float64, len(X[0])),
	}
	samples := make([]splitSample, len(X))
	for i := range X {
		samples[i] = splitSample{x: X[i], y: y[i]}
	}
	t.Root = t.grow(samples, 0, rng)

	var total float64
	for _, v := range t.Importances {
		total += v
	}
	if total > 0 {
		for i := range t.Importances {
			t.Importances[i] /= total
		}
	}
	return t
}

func (t *decisionTree) grow(samples []splitSample, depth int, rng *rand.Rand) *treeNode {
	if depth >= t.Config.MaxDepth || len(samples) < 2*t.Config.MinSamplesLeaf || t.pure(samples) {
		return t.leaf(samples)
	}

	feature, threshold, gain := t.bestSplit(samples, rng)
	if gain <= 0 {
		return t.leaf(samples)
	}

	var left, right []splitSample
	for _, s := range samples {
		if s.x[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) < t.Config.MinSamplesLeaf || len(right) < t.Config.MinSamplesLeaf {
		return t.leaf(samples)
	}

	t.Importances[feature] += gain * float64(len(samples))
	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.grow(left, depth+1, rng),
		Right:     t.grow(right, depth+1, rng),
	}
}

func (t *decisionTree) pure(samples []splitSample) bool {
	first := samples[0].y
	for _, s := range samples[1:] {
		if s.y != first {
			return false
		}
	}
	return true
}

func (t *decisionTree) leaf(samples []splitSample) *treeNode {
	if t.Config.Criterion == criterionGini {
		dist := make([]float64, t.Config.NClasses)
		for _, s := range samples {
			dist[int(s.y)]++
		}
		for i := range dist {
			dist[i] /= float64(len(samples))
		}
		return &treeNode{Leaf: true, Value: dist}
	}
	var sum float64
	for _, s := range samples {
		sum += s.y
	}
	return &treeNode{Leaf: true, Value: []float64{sum / float64(len(samples))}}
}

// bestSplit scans candidate features (a random subset when MaxFeatures is
// set) and candidate thresholds at midpoints between distinct sorted values,
// returning the split with the largest impurity decrease.
func (t *decisionTree) bestSplit(samples []splitSample, rng *rand.Rand) (feature int, threshold, gain float64) {
	nFeatures := len(samples[0].x)
	candidates := make([]int, nFeatures)
	for i := range candidates {
		candidates[i] = i
	}
	if t.Config.MaxFeatures > 0 && t.Config.MaxFeatures < nFeatures {
		rng.Shuffle(nFeatures, func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:t.Config.MaxFeatures]
		// Stable scan order keeps tie-breaking independent of shuffle order.
		sort.Ints(candidates)
	}

	parent := t.impurity(samples)
	feature, gain = -1, 0

	values := make([]float64, 0, len(samples))
	for _, f := range candidates {
		values = values[:0]
		for _, s := range samples {
			values = append(values, s.x[f])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			thr := (values[i] + values[i-1]) / 2
			var left, right []splitSample
			for _, s := range samples {
				if s.x[f] <= thr {
					left = append(left, s)
				} else {
					right = append(right, s)
				}
			}
			if len(left) < t.Config.MinSamplesLeaf || len(right) < t.Config.MinSamplesLeaf {
				continue
			}
			n := float64(len(samples))
			g := parent - float64(len(left))/n*t.impurity(left) - float64(len(right))/n*t.impurity(right)
			if g > gain {
				feature, threshold, gain = f, thr, g
			}
		}
	}
	return feature, threshold, gain
}

func (t *decisionTree) impurity(samples []splitSample) float64 {
	if t.Config.Criterion == criterionGini {
		counts := make([]float64, t.Config.NClasses)
		for _, s := range samples {
			counts[int(s.y)]++
		}
		n := float64(len(samples))
		gini := 1.0
		for _, c := range counts {
			p := c / n
			gini -= p * p
		}
		return gini
	}
	var sum float64
	for _, s := range samples {
		sum += s.y
	}
	mean := sum / float64(len(samples))
	var ss float64
	for _, s := range samples {
		d := s.y - mean
		ss += d * d
	}
	return ss / float64(len(samples))
}

// predict walks the tree to a leaf value vector.
func (t *decisionTree) predict(x []float64) []float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func (t *decisionTree) predictScalar(x []float64) float64 {
	v := t.predict(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return v[0]
}
