package mlearn

import (
	"math/rand"
	"sort"
)

func accuracyOf(truth, pred []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	var hits int
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// macroF1 averages per-class F1 over the classes present in truth. Classes
// the model never predicts contribute zero, so the macro average punishes
// collapsed predictions.
func macroF1(truth, pred []int, nClasses int) float64 {
	tp := make([]float64, nClasses)
	fp := make([]float64, nClasses)
	fn := make([]float64, nClasses)
	seen := make([]bool, nClasses)
	for i := range truth {
		seen[truth[i]] = true
		if truth[i] == pred[i] {
			tp[truth[i]]++
		} else {
			fp[pred[i]]++
			fn[truth[i]]++
		}
	}
	var sum float64
	var n int
	for c := 0; c < nClasses; c++ {
		if !seen[c] {
			continue
		}
		n++
		denom := 2*tp[c] + fp[c] + fn[c]
		if denom > 0 {
			sum += 2 * tp[c] / denom
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// confusion[t][p] counts test examples of true class t predicted as p.
func confusion(truth, pred []int, nClasses int) [][]int {
	m := make([][]int, nClasses)
	for i := range m {
		m[i] = make([]int, nClasses)
	}
	for i := range truth {
		m[truth[i]][pred[i]]++
	}
	return m
}

// stratifiedSplit shuffles indices within each class and holds out testFrac
// of every class, so rare labels appear on both sides whenever they have at
// least two examples. Both halves come back in ascending index order.
func stratifiedSplit(y []int, testFrac float64, rng *rand.Rand) (train, test []int) {
	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(float64(len(idx)) * testFrac)
		if nTest == 0 && len(idx) >= 2 {
			nTest = 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// kFolds deals shuffled indices into k folds of near-equal size.
func kFolds(n, k int, rng *rand.Rand) [][]int {
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	folds := make([][]int, k)
	for i, v := range idx {
		folds[i%k] = append(folds[i%k], v)
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}
