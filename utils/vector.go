package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (V Vector) {
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v", n, len(dataO[0]))
			panic(err)
		}
		V = Vector{mat.NewVecDense(n, dataO[0])}
	} else {
		V = Vector{mat.NewVecDense(n, make([]float64, n))}
	}
	return
}

func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) Len() int                 { return v.V.Len() }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }

func (v Vector) Copy() (R Vector) {
	R = NewVector(v.Len())
	R.V.CopyVec(v.V)
	return
}

// Add is in-place.
func (v Vector) Add(a Vector) Vector {
	v.V.AddVec(v.V, a.V)
	return v
}

// Subtract is in-place.
func (v Vector) Subtract(a Vector) Vector {
	v.V.SubVec(v.V, a.V)
	return v
}

// Scale is in-place.
func (v Vector) Scale(a float64) Vector {
	v.V.ScaleVec(a, v.V)
	return v
}

func (v Vector) Set(i int, val float64) Vector {
	v.V.SetVec(i, val)
	return v
}

func (v Vector) Subset(I Index) (R Vector) {
	R = NewVector(len(I))
	for iNew, i := range I {
		R.V.SetVec(iNew, v.V.AtVec(i))
	}
	return
}

// Assign copies a's entries into the receiver at positions I, in place.
func (v Vector) Assign(I Index, a Vector) Vector {
	for iA, i := range I {
		v.V.SetVec(i, a.AtVec(iA))
	}
	return v
}

// Concat appends the vectors end to end into a new Vector.
func Concat(vs ...Vector) (R Vector) {
	var n int
	for _, v := range vs {
		n += v.Len()
	}
	R = NewVector(n)
	var at int
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			R.V.SetVec(at, v.AtVec(i))
			at++
		}
	}
	return
}

func (v Vector) MaxAbs() (max float64) {
	for i := 0; i < v.Len(); i++ {
		if a := math.Abs(v.AtVec(i)); a > max {
			max = a
		}
	}
	return
}

func (v Vector) Norm2() (n float64) {
	return mat.Norm(v.V, 2)
}
