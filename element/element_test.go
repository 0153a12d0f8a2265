package element

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meliao/ha-hps/utils"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNodes(t *testing.T) {
	r := ChebyshevNodes(7)
	assert.Equal(t, 7, len(r))
	assert.Equal(t, -1., r[0])
	assert.Equal(t, 1., r[6])
	for i := 1; i < len(r); i++ {
		assert.True(t, r[i] > r[i-1])
	}

	g, w := GaussNodes(5)
	assert.Equal(t, 5, len(g))
	// quadrature integrates x^8 over [-1,1] exactly with 5 points
	var sum float64
	for i, x := range g {
		sum += w[i] * math.Pow(x, 8)
	}
	assert.True(t, near(sum, 2./9., 1.e-12))
	// nodes are interior and symmetric
	assert.True(t, g[0] > -1 && g[4] < 1)
	assert.True(t, near(g[0], -g[4], 1.e-12))
	assert.True(t, near(g[2], 0, 1.e-12))
}

func TestDiffMatrix(t *testing.T) {
	var (
		r = ChebyshevNodes(8)
		D = DiffMatrix(r)
		n = len(r)
		u = make([]float64, n)
	)
	// exact for polynomials below the grid order
	for i, x := range r {
		u[i] = 3*x*x*x - 2*x + 1
	}
	du := D.MulVec(utils.NewVector(n, u))
	for i, x := range r {
		assert.True(t, near(du.AtVec(i), 9*x*x-2, 1.e-10))
	}
}

func TestInterpMatrix(t *testing.T) {
	var (
		src = ChebyshevNodes(6)
		tgt = []float64{-0.9, -0.3, 0.15, 0.77}
		I   = InterpMatrix(src, tgt)
		u   = make([]float64, len(src))
	)
	for i, x := range src {
		u[i] = x*x*x*x - x
	}
	v := I.MulVec(utils.NewVector(len(src), u))
	for i, x := range tgt {
		assert.True(t, near(v.AtVec(i), x*x*x*x-x, 1.e-11))
	}
}

func TestReferenceShapes(t *testing.T) {
	ref, err := New(2, 6, 4)
	assert.NoError(t, err)
	assert.Equal(t, 36, ref.Npts)
	assert.Equal(t, 20, ref.Nbc)
	assert.Equal(t, 16, ref.Nbg)
	assert.Equal(t, ref.Npts, len(ref.BPerm))
	// the permutation is a bijection
	seen := make(map[int]bool)
	for _, m := range ref.BPerm {
		assert.False(t, seen[m])
		seen[m] = true
	}

	ref3, err := New(3, 5, 3)
	assert.NoError(t, err)
	assert.Equal(t, 125, ref3.Npts)
	assert.Equal(t, 125-27, ref3.Nbc)
	assert.Equal(t, 54, ref3.Nbg)

	_, err = New(2, 4, 4)
	assert.Error(t, err)
	_, err = New(4, 6, 4)
	assert.Error(t, err)
}

// sample evaluates f on the boundary-first grid of a cell centered at the
// origin with side lengths h.
func sample2D(ref *Reference, h [3]float64, f func(x, y float64) float64) (u utils.Vector) {
	p := ref.P
	u = utils.NewVector(ref.Npts)
	for n, m := range ref.BPerm {
		i, j := m%p, m/p
		u.Set(n, f(ref.R[i]*h[0]/2, ref.R[j]*h[1]/2))
	}
	return
}

func TestOperators2D(t *testing.T) {
	ref, err := New(2, 7, 5)
	assert.NoError(t, err)
	h := [3]float64{0.5, 0.25, 0}
	f := func(x, y float64) float64 { return x*x*y + 2*x*y*y - y }
	u := sample2D(ref, h, f)

	Dxx, ok := ref.Op(TermDxx)
	assert.True(t, ok)
	lap, _ := ref.Op(TermDyy)
	L := Dxx.Copy().Scale(ref.TermScale(TermDxx, h))
	L.Add(lap.Copy().Scale(ref.TermScale(TermDyy, h)))
	v := L.MulVec(u)
	p := ref.P
	for n, m := range ref.BPerm {
		i, j := m%p, m/p
		x, y := ref.R[i]*h[0]/2, ref.R[j]*h[1]/2
		assert.True(t, near(v.AtVec(n), 2*y+4*x, 1.e-8))
	}
}

func TestFluxMap2D(t *testing.T) {
	ref, err := New(2, 7, 5)
	assert.NoError(t, err)
	h := [3]float64{1, 1, 0}
	f := func(x, y float64) float64 { return x*x + 3*y }
	u := sample2D(ref, h, f)
	flux := ref.FluxMap(h).MulVec(u)
	q := ref.Q
	for s := 0; s < q; s++ {
		// outward normals: -ux at x=-1/2, ux at x=1/2, -uy, uy
		assert.True(t, near(flux.AtVec(s), 1, 1.e-9))
		assert.True(t, near(flux.AtVec(q+s), 1, 1.e-9))
		assert.True(t, near(flux.AtVec(2*q+s), -3, 1.e-9))
		assert.True(t, near(flux.AtVec(3*q+s), 3, 1.e-9))
	}
}

func TestBoundaryInterp2D(t *testing.T) {
	ref, err := New(2, 6, 4)
	assert.NoError(t, err)
	// Pmat reproduces boundary values of a low order trace, and Eg
	// restricted to boundary values matches direct sampling.
	g := utils.NewVector(ref.Nbg)
	q := ref.Q
	f := func(x, y float64) float64 { return x*x - y*y + x*y }
	for s, gp := range ref.G {
		g.Set(s, f(-1, gp))
		g.Set(q+s, f(1, gp))
		g.Set(2*q+s, f(gp, -1))
		g.Set(3*q+s, f(gp, 1))
	}
	ub := ref.Pmat.MulVec(g)
	p := ref.P
	for n := 0; n < ref.Nbc; n++ {
		m := ref.BPerm[n]
		i, j := m%p, m/p
		assert.True(t, near(ub.AtVec(n), f(ref.R[i], ref.R[j]), 1.e-10))
	}
}

func TestBoundaryInterpFullOrder(t *testing.T) {
	// q = p-1 makes Pmat square in 2D. The corner rows average both
	// adjacent face panels, so the map stays invertible and a degree q-1
	// trace passes through exactly.
	ref, err := New(2, 6, 5)
	assert.NoError(t, err)
	assert.Equal(t, ref.Nbc, ref.Nbg)
	assert.True(t, ref.Pmat.Cond() < 1.e+6)

	g := utils.NewVector(ref.Nbg)
	q := ref.Q
	f := func(x, y float64) float64 { return x*x*x*x + y*y*y*y }
	for s, gp := range ref.G {
		g.Set(s, f(-1, gp))
		g.Set(q+s, f(1, gp))
		g.Set(2*q+s, f(gp, -1))
		g.Set(3*q+s, f(gp, 1))
	}
	ub := ref.Pmat.MulVec(g)
	p := ref.P
	for n := 0; n < ref.Nbc; n++ {
		m := ref.BPerm[n]
		i, j := m%p, m/p
		assert.True(t, near(ub.AtVec(n), f(ref.R[i], ref.R[j]), 1.e-10))
	}

	// the 3D analog shares edge and corner rows the same way
	ref3, err := New(3, 4, 3)
	assert.NoError(t, err)
	g3 := utils.NewVector(ref3.Nbg)
	q2 := ref3.Q * ref3.Q
	f3 := func(x, y, z float64) float64 { return x*x*y + y*z*z - x*y*z }
	face := func(fc int, s, tt float64) (x, y, z float64) {
		switch fc {
		case FaceXmin:
			return -1, s, tt
		case FaceXmax:
			return 1, s, tt
		case FaceYmin:
			return s, -1, tt
		case FaceYmax:
			return s, 1, tt
		case FaceZmin:
			return s, tt, -1
		default:
			return s, tt, 1
		}
	}
	for fc := FaceXmin; fc <= FaceZmax; fc++ {
		for tt := 0; tt < ref3.Q; tt++ {
			for s := 0; s < ref3.Q; s++ {
				x, y, z := face(fc, ref3.G[s], ref3.G[tt])
				g3.Set(fc*q2+s+ref3.Q*tt, f3(x, y, z))
			}
		}
	}
	ub3 := ref3.Pmat.MulVec(g3)
	p3 := ref3.P
	for n := 0; n < ref3.Nbc; n++ {
		m := ref3.BPerm[n]
		i, j, k := m%p3, (m/p3)%p3, m/(p3*p3)
		want := f3(ref3.R[i], ref3.R[j], ref3.R[k])
		assert.True(t, near(ub3.AtVec(n), want, 1.e-10))
	}
}

func TestRefinement(t *testing.T) {
	ref, err := New(2, 8, 6)
	assert.NoError(t, err)
	q := ref.Q
	// refine then coarsen is the identity on panel data
	u := utils.NewVector(q)
	for i, g := range ref.G {
		u.Set(i, g*g*g-0.5*g)
	}
	fine := ref.RefM.MulVec(u)
	back := ref.CrsM.MulVec(fine)
	for i := 0; i < q; i++ {
		assert.True(t, near(back.AtVec(i), u.AtVec(i), 1.e-11))
	}
	// fine panels sample the halves of [-1,1]
	for s, g := range ref.G {
		x := (g - 1) / 2
		assert.True(t, near(fine.AtVec(s), x*x*x-0.5*x, 1.e-11))
	}
}
