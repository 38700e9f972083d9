package analytics

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errSingular = errors.New("singular system")

// solveRidge minimizes |Xb - y|^2 + sum(penalty[j] * b[j]^2). The penalized normal
// matrix XᵀX + diag(penalty) is symmetric, so it is solved by Cholesky.
func solveRidge(x [][]float64, y []float64, penalty []float64) ([]float64, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, errors.New("empty design matrix")
	}
	n, p := len(x), len(x[0])
	if len(y) != n || len(penalty) != p {
		return nil, errors.New("design matrix shape mismatch")
	}
	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.SetRow(i, row)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, design.T())
	for j, w := range penalty {
		gram.SetSym(j, j, gram.At(j, j)+w)
	}
	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(n, y))

	var chol mat.Cholesky
	if !chol.Factorize(&gram) {
		return nil, errSingular
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		// Ill-conditioned systems still yield a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	out := make([]float64, p)
	for j := range out {
		out[j] = beta.AtVec(j)
	}
	return out, nil
}

func dot(a, b []float64) float64 { return floats.Dot(a, b) }

// meanStd is stat.MeanStdDev with zero spread below two samples.
func meanStd(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
