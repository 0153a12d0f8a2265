// Package pde describes the elliptic boundary value problems the solver
// accepts: variable coefficient second order operators with Dirichlet or
// impedance boundary data.
package pde

import (
	"fmt"
	"math"

	"github.com/meliao/ha-hps/element"
)

// Variant selects the boundary operator the hierarchy propagates.
type Variant int

const (
	// DtN propagates real Dirichlet-to-Neumann maps.
	DtN Variant = iota
	// ItI propagates complex impedance-to-impedance maps, 2D only.
	ItI
)

func (v Variant) String() string {
	if v == ItI {
		return "ItI"
	}
	return "DtN"
}

// CoefFn evaluates a spatially varying coefficient.
type CoefFn func(x, y, z float64) float64

// Problem is one boundary value problem
//
//	sum_t c_t(x) D_t u = f(x)   in the domain,
//
// with coefficient functions keyed by operator term. Nil entries are zero.
// For the ItI variant Eta sets the impedance parameter; zero means the
// default sqrt of the TermI magnitude at the domain center, falling back
// to 4 when that vanishes.
type Problem struct {
	Name    string
	Variant Variant
	Coef    map[element.Term]CoefFn
	Source  CoefFn
	Eta     float64
}

func (pb *Problem) Check(dim int) (err error) {
	if pb.Variant == ItI && dim != 2 {
		err = fmt.Errorf("problem %q: impedance variant is 2D only", pb.Name)
		return
	}
	for t := range pb.Coef {
		if dim == 2 {
			switch t {
			case element.TermDz, element.TermDxz, element.TermDyz, element.TermDzz:
				err = fmt.Errorf("problem %q: coefficient %v in a 2D problem", pb.Name, t)
				return
			}
		}
	}
	if len(pb.Coef) == 0 {
		err = fmt.Errorf("problem %q: no operator coefficients", pb.Name)
	}
	return
}

// EtaOr resolves the impedance parameter against the problem coefficients
// at the given domain center.
func (pb *Problem) EtaOr(c [3]float64) (eta float64) {
	if pb.Eta != 0 {
		return pb.Eta
	}
	if fn := pb.Coef[element.TermI]; fn != nil {
		if k := math.Abs(fn(c[0], c[1], c[2])); k > 0 {
			return math.Sqrt(k)
		}
	}
	return 4
}

func constCoef(v float64) CoefFn {
	return func(x, y, z float64) float64 { return v }
}

// Laplace is the constant coefficient Poisson problem -lap(u) = f.
func Laplace(dim int, f CoefFn) (pb *Problem) {
	pb = &Problem{
		Name:   "laplace",
		Coef:   map[element.Term]CoefFn{element.TermDxx: constCoef(-1), element.TermDyy: constCoef(-1)},
		Source: f,
	}
	if dim == 3 {
		pb.Coef[element.TermDzz] = constCoef(-1)
	}
	return
}

// Helmholtz is -lap(u) - k^2 n(x) u = f with wavenumber k and scattering
// potential n. A nil n means free space.
func Helmholtz(dim int, k float64, n, f CoefFn) (pb *Problem) {
	if n == nil {
		n = constCoef(1)
	}
	pb = Laplace(dim, f)
	pb.Name = "helmholtz"
	pb.Coef[element.TermI] = func(x, y, z float64) float64 { return -k * k * n(x, y, z) }
	pb.Eta = k
	return
}

// ItIHelmholtz is the impedance variant of Helmholtz, used when the outer
// problem closes the domain with Robin data.
func ItIHelmholtz(k float64, n, f CoefFn) (pb *Problem) {
	pb = Helmholtz(2, k, n, f)
	pb.Name = "helmholtz-iti"
	pb.Variant = ItI
	return
}

// LeafSample holds a problem's coefficients and source evaluated on one
// leaf's collocation grid, in the leaf's boundary-first ordering.
type LeafSample struct {
	Coef   map[element.Term][]float64
	Source []float64
}

// SampleLeaf evaluates the problem on the grid of a leaf with center c and
// side lengths h, walking the reference nodes in boundary-first order.
func (pb *Problem) SampleLeaf(ref *element.Reference, c, h [3]float64) (s LeafSample) {
	var (
		p   = ref.P
		pts = make([][3]float64, ref.Npts)
	)
	for n, m := range ref.BPerm {
		var ix [3]int
		ix[0] = m % p
		ix[1] = m / p % p
		if ref.Dim == 3 {
			ix[2] = m / (p * p)
		}
		for a := 0; a < ref.Dim; a++ {
			pts[n][a] = c[a] + ref.R[ix[a]]*h[a]/2
		}
	}
	s.Coef = make(map[element.Term][]float64, len(pb.Coef))
	for t, fn := range pb.Coef {
		if fn == nil {
			continue
		}
		v := make([]float64, ref.Npts)
		for n, x := range pts {
			v[n] = fn(x[0], x[1], x[2])
		}
		s.Coef[t] = v
	}
	if pb.Source != nil {
		s.Source = make([]float64, ref.Npts)
		for n, x := range pts {
			s.Source[n] = pb.Source(x[0], x[1], x[2])
		}
	}
	return
}
