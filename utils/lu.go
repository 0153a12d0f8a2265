package utils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LU is a cached dense factorization. The merge and local-solve stages keep
// these around so that late-bound source terms can be propagated without
// re-factoring the interface systems.
type LU struct {
	lu *mat.LU
	n  int
}

// Factor LU-factors the square matrix A. The returned error reports exact
// singularity; near-singularity is left to the caller's condition check so
// that the tolerance stays a configuration constant.
func Factor(A Matrix) (f *LU, err error) {
	var (
		nr, nc = A.Dims()
	)
	if nr != nc {
		err = fmt.Errorf("cannot factor a %dx%d matrix", nr, nc)
		return
	}
	lu := &mat.LU{}
	lu.Factorize(A.M)
	f = &LU{lu: lu, n: nr}
	return
}

// Solve computes X such that A X = B.
func (f *LU) Solve(B Matrix) (X Matrix, err error) {
	var (
		_, nc = B.Dims()
	)
	X = NewMatrix(f.n, nc)
	if err = f.lu.SolveTo(X.M, false, B.M); err != nil {
		err = fmt.Errorf("unable to solve, matrix is singular: %w", err)
	}
	return
}

// SolveVec computes x such that A x = b.
func (f *LU) SolveVec(b Vector) (x Vector, err error) {
	x = NewVector(f.n)
	if err = f.lu.SolveVecTo(x.V, false, b.V); err != nil {
		err = fmt.Errorf("unable to solve, matrix is singular: %w", err)
	}
	return
}

// Solve is the one-shot form: factor A, then solve A X = B.
func Solve(A, B Matrix) (X Matrix, err error) {
	var f *LU
	if f, err = Factor(A); err != nil {
		return
	}
	return f.Solve(B)
}
