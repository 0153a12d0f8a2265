package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// CMatrix is the complex128 companion of Matrix, used by the ItI variant.
// Multiplication runs on gonum's CDense. gonum carries no complex dense
// factorization, so linear solves go through the standard 2n x 2n real
// embedding [[Ar, -Ai], [Ai, Ar]] and reuse the real LU machinery.
type CMatrix struct {
	M *mat.CDense
}

func NewCMatrix(nr, nc int, dataO ...[]complex128) (R CMatrix) {
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewCMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		R = CMatrix{mat.NewCDense(nr, nc, dataO[0])}
	} else {
		R = CMatrix{mat.NewCDense(nr, nc, make([]complex128, nr*nc))}
	}
	return
}

// NewCMatrixFromReal promotes a real matrix.
func NewCMatrixFromReal(A Matrix) (R CMatrix) {
	var (
		nr, nc = A.Dims()
	)
	R = NewCMatrix(nr, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(i, j, complex(A.At(i, j), 0))
		}
	}
	return
}

func NewCIdentity(n int) (R CMatrix) {
	R = NewCMatrix(n, n)
	for i := 0; i < n; i++ {
		R.M.Set(i, i, 1)
	}
	return
}

func (m CMatrix) Dims() (r, c int)       { return m.M.Dims() }
func (m CMatrix) At(i, j int) complex128 { return m.M.At(i, j) }

func (m CMatrix) Copy() (R CMatrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewCMatrix(nr, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(i, j, m.M.At(i, j))
		}
	}
	return
}

func (m CMatrix) Mul(A CMatrix) (R CMatrix) {
	var (
		nrM, _ = m.Dims()
		_, ncA = A.Dims()
	)
	R = NewCMatrix(nrM, ncA)
	// gonum's CDense has no Mul method; call the same multiply via cblas128.
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, m.M.RawCMatrix(), A.M.RawCMatrix(), 0, R.M.RawCMatrix())
	return
}

// Add is in-place.
func (m CMatrix) Add(A CMatrix) CMatrix {
	var (
		nr, nc = m.Dims()
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			m.M.Set(i, j, m.M.At(i, j)+A.At(i, j))
		}
	}
	return m
}

// Subtract is in-place.
func (m CMatrix) Subtract(A CMatrix) CMatrix {
	var (
		nr, nc = m.Dims()
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			m.M.Set(i, j, m.M.At(i, j)-A.At(i, j))
		}
	}
	return m
}

// Scale is in-place.
func (m CMatrix) Scale(a complex128) CMatrix {
	var (
		nr, nc = m.Dims()
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			m.M.Set(i, j, a*m.M.At(i, j))
		}
	}
	return m
}

func (m CMatrix) Set(i, j int, val complex128) CMatrix {
	m.M.Set(i, j, val)
	return m
}

func (m CMatrix) Slice(I, K, J, L int) (R CMatrix) {
	R = NewCMatrix(K-I, L-J)
	for i := I; i < K; i++ {
		for j := J; j < L; j++ {
			R.M.Set(i-I, j-J, m.M.At(i, j))
		}
	}
	return
}

func (m CMatrix) SliceRows(I Index) (R CMatrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewCMatrix(len(I), nc)
	for iNew, i := range I {
		if i < 0 || i > nr-1 {
			panic(fmt.Errorf("unable to subset rows from matrix: index = %d, max = %d", i, nr-1))
		}
		for j := 0; j < nc; j++ {
			R.M.Set(iNew, j, m.M.At(i, j))
		}
	}
	return
}

func (m CMatrix) SliceCols(I Index) (R CMatrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewCMatrix(nr, len(I))
	for jNew, j := range I {
		if j < 0 || j > nc-1 {
			panic(fmt.Errorf("unable to subset columns from matrix: index = %d, max = %d", j, nc-1))
		}
		for i := 0; i < nr; i++ {
			R.M.Set(i, jNew, m.M.At(i, j))
		}
	}
	return
}

// AssignRows copies A's rows into the receiver's rows indexed by I, in place.
func (m CMatrix) AssignRows(I Index, A CMatrix) CMatrix {
	var (
		_, nc = m.Dims()
	)
	for iA, i := range I {
		for j := 0; j < nc; j++ {
			m.M.Set(i, j, A.At(iA, j))
		}
	}
	return m
}

func (m CMatrix) MulVec(v CVector) (R CVector) {
	var (
		nr, nc = m.Dims()
	)
	R = NewCVector(nr)
	for i := 0; i < nr; i++ {
		var sum complex128
		for j := 0; j < nc; j++ {
			sum += m.M.At(i, j) * v[j]
		}
		R[i] = sum
	}
	return
}

// embed builds the real block representation [[Ar, -Ai], [Ai, Ar]].
func (m CMatrix) embed() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(2*nr, 2*nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			v := m.M.At(i, j)
			re, im := real(v), imag(v)
			R.M.Set(i, j, re)
			R.M.Set(i, nc+j, -im)
			R.M.Set(nr+i, j, im)
			R.M.Set(nr+i, nc+j, re)
		}
	}
	return
}

// Cond estimates the condition number via the real embedding, which shares
// the complex matrix's singular values.
func (m CMatrix) Cond() float64 {
	return m.embed().Cond()
}

// SingularValues returns the singular values in descending order. The real
// embedding carries each singular value of the complex matrix twice.
func (m CMatrix) SingularValues() (sv []float64) {
	var svd mat.SVD
	if !svd.Factorize(m.embed().M, mat.SVDNone) {
		return nil
	}
	all := svd.Values(nil)
	sv = make([]float64, 0, len(all)/2)
	for i := 0; i < len(all); i += 2 {
		sv = append(sv, all[i])
	}
	return
}

// CLU is a cached factorization of a complex square matrix, held as the LU
// of its real embedding.
type CLU struct {
	f *LU
	n int
}

func CFactor(A CMatrix) (f *CLU, err error) {
	var (
		nr, nc = A.Dims()
	)
	if nr != nc {
		err = fmt.Errorf("cannot factor a %dx%d matrix", nr, nc)
		return
	}
	var lu *LU
	if lu, err = Factor(A.embed()); err != nil {
		return
	}
	f = &CLU{f: lu, n: nr}
	return
}

// Solve computes X such that A X = B.
func (f *CLU) Solve(B CMatrix) (X CMatrix, err error) {
	var (
		nrB, ncB = B.Dims()
	)
	if nrB != f.n {
		err = fmt.Errorf("dimension mismatch in complex solve: %d vs %d", nrB, f.n)
		return
	}
	RB := NewMatrix(2*f.n, ncB)
	for i := 0; i < f.n; i++ {
		for j := 0; j < ncB; j++ {
			v := B.At(i, j)
			RB.M.Set(i, j, real(v))
			RB.M.Set(f.n+i, j, imag(v))
		}
	}
	var RX Matrix
	if RX, err = f.f.Solve(RB); err != nil {
		return
	}
	X = NewCMatrix(f.n, ncB)
	for i := 0; i < f.n; i++ {
		for j := 0; j < ncB; j++ {
			X.M.Set(i, j, complex(RX.At(i, j), RX.At(f.n+i, j)))
		}
	}
	return
}

func (f *CLU) SolveVec(b CVector) (x CVector, err error) {
	B := NewCMatrix(len(b), 1)
	for i, v := range b {
		B.M.Set(i, 0, v)
	}
	var X CMatrix
	if X, err = f.Solve(B); err != nil {
		return
	}
	x = NewCVector(len(b))
	for i := range x {
		x[i] = X.At(i, 0)
	}
	return
}

// CSolve is the one-shot form: factor A, then solve A X = B.
func CSolve(A, B CMatrix) (X CMatrix, err error) {
	var f *CLU
	if f, err = CFactor(A); err != nil {
		return
	}
	return f.Solve(B)
}

// CVector is a complex column, kept as a bare slice.
type CVector []complex128

func NewCVector(n int) CVector { return make(CVector, n) }

func (v CVector) Copy() (R CVector) {
	R = NewCVector(len(v))
	copy(R, v)
	return
}

func (v CVector) Add(a CVector) CVector {
	for i := range v {
		v[i] += a[i]
	}
	return v
}

func (v CVector) Subtract(a CVector) CVector {
	for i := range v {
		v[i] -= a[i]
	}
	return v
}

func (v CVector) Scale(a complex128) CVector {
	for i := range v {
		v[i] *= a
	}
	return v
}

func (v CVector) Subset(I Index) (R CVector) {
	R = NewCVector(len(I))
	for iNew, i := range I {
		R[iNew] = v[i]
	}
	return
}

func (v CVector) Assign(I Index, a CVector) CVector {
	for iA, i := range I {
		v[i] = a[iA]
	}
	return v
}

func CConcat(vs ...CVector) (R CVector) {
	var n int
	for _, v := range vs {
		n += len(v)
	}
	R = NewCVector(n)
	var at int
	for _, v := range vs {
		at += copy(R[at:], v)
	}
	return
}

func (v CVector) MaxAbs() (max float64) {
	for _, c := range v {
		a := math.Hypot(real(c), imag(c))
		if a > max {
			max = a
		}
	}
	return
}
