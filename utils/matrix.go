package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Matrix wraps a dense gonum matrix with chainable methods sized for the
// operator algebra in this repository. Methods that return a new Matrix do
// not change the receiver; methods documented as in-place do.
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{m}
	return
}

func NewIdentity(n int) (R Matrix) {
	R = NewMatrix(n, n)
	for i := 0; i < n; i++ {
		R.M.Set(i, i, 1)
	}
	return
}

func NewDiagonal(d []float64) (R Matrix) {
	R = NewMatrix(len(d), len(d))
	for i, val := range d {
		R.M.Set(i, i, val)
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }

func (m Matrix) IsEmpty() bool { return m.M == nil }

func (m Matrix) Copy() (R Matrix) {
	var (
		nr, nc = m.Dims()
		data   = m.M.RawMatrix().Data
		dataR  = make([]float64, len(data))
	)
	copy(dataR, data)
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Transpose() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(j, i, m.M.At(i, j))
		}
	}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) {
	var (
		nrM, _ = m.Dims()
		_, ncA = A.Dims()
	)
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A.M)
	return
}

// MulVec multiplies m by a column vector.
func (m Matrix) MulVec(v Vector) (R Vector) {
	var (
		nr, _ = m.Dims()
	)
	R = NewVector(nr)
	R.V.MulVec(m.M, v.V)
	return
}

// Add is in-place.
func (m Matrix) Add(A Matrix) Matrix {
	var (
		dataM = m.RawMatrix().Data
		dataA = A.RawMatrix().Data
	)
	for i, val := range dataA {
		dataM[i] += val
	}
	return m
}

// Subtract is in-place.
func (m Matrix) Subtract(A Matrix) Matrix {
	var (
		dataM = m.RawMatrix().Data
		dataA = A.RawMatrix().Data
	)
	for i, val := range dataA {
		dataM[i] -= val
	}
	return m
}

// Scale is in-place.
func (m Matrix) Scale(a float64) Matrix {
	var (
		data = m.RawMatrix().Data
	)
	for i := range data {
		data[i] *= a
	}
	return m
}

// ScaleRows multiplies row i by d[i], in place.
func (m Matrix) ScaleRows(d []float64) Matrix {
	var (
		nr, nc = m.Dims()
	)
	if len(d) != nr {
		panic(fmt.Errorf("ScaleRows: have %d factors for %d rows", len(d), nr))
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			m.M.Set(i, j, m.M.At(i, j)*d[i])
		}
	}
	return m
}

func (m Matrix) Set(i, j int, val float64) Matrix {
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) SetRow(i int, data []float64) Matrix {
	m.M.SetRow(i, data)
	return m
}

func (m Matrix) SetCol(j int, data []float64) Matrix {
	m.M.SetCol(j, data)
	return m
}

// Slice copies the half-open row/column ranges [I,K) x [J,L).
func (m Matrix) Slice(I, K, J, L int) (R Matrix) {
	R = NewMatrix(K-I, L-J)
	for i := I; i < K; i++ {
		for j := J; j < L; j++ {
			R.M.Set(i-I, j-J, m.M.At(i, j))
		}
	}
	return
}

func (m Matrix) SliceRows(I Index) (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(len(I), nc)
	for iNew, i := range I {
		if i < 0 || i > nr-1 {
			panic(fmt.Errorf("unable to subset rows from matrix: index = %d, max = %d", i, nr-1))
		}
		R.M.SetRow(iNew, m.M.RawRowView(i))
	}
	return
}

func (m Matrix) SliceCols(I Index) (R Matrix) {
	var (
		nr, nc = m.Dims()
		col    = make([]float64, nr)
	)
	R = NewMatrix(nr, len(I))
	for jNew, j := range I {
		if j < 0 || j > nc-1 {
			panic(fmt.Errorf("unable to subset columns from matrix: index = %d, max = %d", j, nc-1))
		}
		for i := 0; i < nr; i++ {
			col[i] = m.M.At(i, j)
		}
		R.M.SetCol(jNew, col)
	}
	return
}

// AssignRows copies A's rows into the receiver's rows indexed by I, in place.
func (m Matrix) AssignRows(I Index, A Matrix) Matrix {
	var (
		nr, _ = m.Dims()
	)
	for iA, i := range I {
		if i < 0 || i > nr-1 {
			panic(fmt.Errorf("bad row index %d, max = %d", i, nr-1))
		}
		m.M.SetRow(i, A.M.RawRowView(iA))
	}
	return m
}

// Cond returns the 1-norm condition number estimate.
func (m Matrix) Cond() float64 {
	return mat.Cond(m.M, 1)
}

func (m Matrix) Col(j int) (V Vector) {
	var (
		nr, _ = m.Dims()
	)
	V = NewVector(nr)
	for i := 0; i < nr; i++ {
		V.V.SetVec(i, m.M.At(i, j))
	}
	return
}

func (m Matrix) Print(msgO ...string) (s string) {
	var msg string
	if len(msgO) != 0 {
		msg = msgO[0]
	}
	s = fmt.Sprintf("%s = \n%8.5f\n", msg, mat.Formatted(m.M, mat.Squeeze()))
	return
}
