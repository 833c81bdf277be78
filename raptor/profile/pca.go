package profile

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func newDense(rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, nil)
}

// principalComponents returns the component variances and the projection of
// each observation onto the first principal component. A nil variance slice
// means the decomposition failed or the input is too small to decompose.
func principalComponents(obs *mat.Dense) (vars, pc1 []float64) {
	n, d := obs.Dims()
	if n < 2 || d < 1 {
		return nil, nil
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(obs, nil); !ok {
		return nil, nil
	}
	vars = pc.VarsTo(nil)
	if len(vars) == 0 {
		return nil, nil
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	// Project mean-centered observations onto the first component.
	means := make([]float64, d)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, obs)
		means[j] = stat.Mean(col, nil)
	}
	pc1 = make([]float64, n)
	for i := 0; i < n; i++ {
		var dot float64
		for j := 0; j < d; j++ {
			dot += (obs.At(i, j) - means[j]) * vecs.At(j, 0)
		}
		pc1[i] = dot
	}
	return vars, pc1
}
