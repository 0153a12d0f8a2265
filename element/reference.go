package element

import (
	"fmt"

	"github.com/meliao/ha-hps/utils"
)

// Term identifies one term of the linear second-order operator
//
//	c_xx u_xx + c_xy u_xy + ... + c_x u_x + ... + c_I u.
type Term int

const (
	TermDxx Term = iota
	TermDxy
	TermDyy
	TermDxz
	TermDyz
	TermDzz
	TermDx
	TermDy
	TermDz
	TermI
	numTerms
)

func (t Term) String() string {
	switch t {
	case TermDxx:
		return "Dxx"
	case TermDxy:
		return "Dxy"
	case TermDyy:
		return "Dyy"
	case TermDxz:
		return "Dxz"
	case TermDyz:
		return "Dyz"
	case TermDzz:
		return "Dzz"
	case TermDx:
		return "Dx"
	case TermDy:
		return "Dy"
	case TermDz:
		return "Dz"
	case TermI:
		return "I"
	}
	return "unknown"
}

// axisExp gives, per axis, the power of (2/h_axis) the term picks up when
// the reference operator is mapped onto a physical cell.
var axisExp = map[Term][3]int{
	TermDxx: {2, 0, 0},
	TermDxy: {1, 1, 0},
	TermDyy: {0, 2, 0},
	TermDxz: {1, 0, 1},
	TermDyz: {0, 1, 1},
	TermDzz: {0, 0, 2},
	TermDx:  {1, 0, 0},
	TermDy:  {0, 1, 0},
	TermDz:  {0, 0, 1},
	TermI:   {0, 0, 0},
}

// Reference holds the differentiation and interpolation operators for one
// (dimension, p, q) pair. Instances are immutable after construction and
// shared read-only across all concurrent leaf solves.
//
// Orderings, fixed once here and relied on everywhere else:
//   - interior collocation points are tensor-product Chebyshev nodes,
//     flat index i + p*j (+ p*p*k in 3D), x fastest;
//   - grid unknowns are permuted boundary-first: the Chebyshev boundary
//     points (each corner/edge point assigned to exactly one face, faces in
//     the order Xmin, Xmax, Ymin, Ymax, Zmin, Zmax) followed by the
//     interior points in ascending tensor order;
//   - boundary data lives on per-face Gauss panels of q points per
//     dimension, faces in the same canonical order, each face traversed
//     fastest along its lowest-numbered tangential axis, ascending.
type Reference struct {
	Dim, P, Q int

	R    []float64 // 1D Chebyshev nodes
	G    []float64 // 1D Gauss nodes
	Wg   []float64 // Gauss weights
	D1   utils.Matrix
	IGC  utils.Matrix // (p x q) Gauss panel -> Chebyshev nodes
	ICG  utils.Matrix // (q x p) Chebyshev nodes -> Gauss panel
	RefM utils.Matrix // (2q x q) coarse Gauss panel -> two half panels
	CrsM utils.Matrix // (q x 2q) two half panels -> coarse Gauss panel

	Npts  int         // p^dim
	Nbc   int         // Chebyshev boundary points, corners counted once
	Nbg   int         // Gauss boundary points: 2*dim*q^(dim-1)
	BPerm utils.Index // boundary-first position -> tensor index

	ops map[Term]utils.Matrix // reference-cell operators, boundary-first ordering

	Pmat utils.Matrix // (Nbc x Nbg) Gauss boundary data -> Chebyshev boundary values

	Qref  utils.Matrix // (Nbg x Npts) unscaled normal derivative at Gauss boundary points
	Qaxis []int        // per-row axis of the normal, scaling 2/h_axis
	Eg    utils.Matrix // (Nbg x Npts) solution values at Gauss boundary points

	NCref  utils.Matrix // (Nbc x Npts) unscaled normal derivative at Chebyshev boundary points
	NCaxis []int
}

// New builds the reference operators. dim must be 2 or 3 and the boundary
// panel order q must satisfy 2 <= q < p.
func New(dim, p, q int) (ref *Reference, err error) {
	if dim != 2 && dim != 3 {
		err = fmt.Errorf("unsupported dimension %d", dim)
		return
	}
	if p < 3 || q < 2 || q >= p {
		err = fmt.Errorf("invalid discretization orders p = %d, q = %d (need p >= 3, 2 <= q < p)", p, q)
		return
	}
	ref = &Reference{Dim: dim, P: p, Q: q}
	ref.R = ChebyshevNodes(p)
	ref.G, ref.Wg = GaussNodes(q)
	ref.D1 = DiffMatrix(ref.R)
	ref.IGC = InterpMatrix(ref.G, ref.R)
	ref.ICG = InterpMatrix(ref.R, ref.G)
	ref.buildRefinement()
	if dim == 2 {
		ref.build2D()
	} else {
		ref.build3D()
	}
	return
}

// Op returns the reference-cell operator for term t, already permuted to
// boundary-first ordering.
func (ref *Reference) Op(t Term) (M utils.Matrix, ok bool) {
	M, ok = ref.ops[t]
	return
}

// TermScale maps a reference operator onto a physical cell with side
// lengths h.
func (ref *Reference) TermScale(t Term, h [3]float64) (s float64) {
	s = 1
	exp := axisExp[t]
	for a := 0; a < ref.Dim; a++ {
		for e := 0; e < exp[a]; e++ {
			s *= 2 / h[a]
		}
	}
	return
}

// FluxMap returns the map from grid values to outward normal derivatives at
// the Gauss boundary points of a cell with side lengths h.
func (ref *Reference) FluxMap(h [3]float64) (Q utils.Matrix) {
	Q = ref.Qref.Copy()
	scale := make([]float64, len(ref.Qaxis))
	for i, a := range ref.Qaxis {
		scale[i] = 2 / h[a]
	}
	Q.ScaleRows(scale)
	return
}

// BoundaryDerivMap is the Chebyshev-boundary companion of FluxMap, used by
// the ItI variant's incoming impedance operator.
func (ref *Reference) BoundaryDerivMap(h [3]float64) (N utils.Matrix) {
	N = ref.NCref.Copy()
	scale := make([]float64, len(ref.NCaxis))
	for i, a := range ref.NCaxis {
		scale[i] = 2 / h[a]
	}
	N.ScaleRows(scale)
	return
}

func (ref *Reference) buildRefinement() {
	var (
		q     = ref.Q
		lower = make([]float64, q)
		upper = make([]float64, q)
	)
	for i, g := range ref.G {
		lower[i] = (g - 1) / 2
		upper[i] = (g + 1) / 2
	}
	ref.RefM = utils.NewMatrix(2*q, q)
	lo := InterpMatrix(ref.G, lower)
	hi := InterpMatrix(ref.G, upper)
	for t := 0; t < q; t++ {
		ref.RefM.SetRow(t, rowOf(lo, t))
		ref.RefM.SetRow(q+t, rowOf(hi, t))
	}
	// Each coarse node sits in one half; interpolate from that half's panel.
	ref.CrsM = utils.NewMatrix(q, 2*q)
	for t, g := range ref.G {
		if g < 0 {
			r := InterpMatrix(lower, []float64{g})
			for j := 0; j < q; j++ {
				ref.CrsM.Set(t, j, r.At(0, j))
			}
		} else {
			r := InterpMatrix(upper, []float64{g})
			for j := 0; j < q; j++ {
				ref.CrsM.Set(t, q+j, r.At(0, j))
			}
		}
	}
}

func rowOf(M utils.Matrix, i int) (row []float64) {
	_, nc := M.Dims()
	row = make([]float64, nc)
	for j := 0; j < nc; j++ {
		row[j] = M.At(i, j)
	}
	return
}
