package mlearn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationTreeSeparatesClasses(t *testing.T) {
	X := [][]float64{{0.0}, {0.1}, {0.2}, {0.8}, {0.9}, {1.0}}
	y := []float64{0, 0, 0, 1, 1, 1}

	cfg := treeConfig{Criterion: criterionGini, MaxDepth: 3, MinSamplesLeaf: 1, NClasses: 2}
	tree := fitTree(X, y, cfg, rand.New(rand.NewSource(1)))

	assert.Equal(t, 1.0, tree.predict([]float64{0.05})[0])
	assert.Equal(t, 1.0, tree.predict([]float64{0.95})[1])

	// Feature 0 carries all the signal.
	require.Len(t, tree.Importances, 1)
	assert.InDelta(t, 1.0, tree.Importances[0], 1e-12)
}

func TestRegressionTreeFitsStep(t *testing.T) {
	X := [][]float64{{0.0}, {0.1}, {0.2}, {0.8}, {0.9}, {1.0}}
	y := []float64{-1, -1, -1, 2, 2, 2}

	cfg := treeConfig{Criterion: criterionMSE, MaxDepth: 3, MinSamplesLeaf: 1}
	tree := fitTree(X, y, cfg, rand.New(rand.NewSource(1)))

	assert.InDelta(t, -1.0, tree.predictScalar([]float64{0.15}), 1e-12)
	assert.InDelta(t, 2.0, tree.predictScalar([]float64{0.85}), 1e-12)
}

func TestTreeHandlesPureNode(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []float64{1, 1, 1}

	cfg := treeConfig{Criterion: criterionGini, MaxDepth: 3, MinSamplesLeaf: 1, NClasses: 2}
	tree := fitTree(X, y, cfg, rand.New(rand.NewSource(1)))

	require.True(t, tree.Root.Leaf)
	assert.Equal(t, []float64{0, 1}, tree.Root.Value)
}

func TestSoftmaxSumsToOne(t *testing.T) {
	p := softmax([]float64{1, 2, 3})
	var sum float64
	for _, v := range p {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Greater(t, p[2], p[0])
}
