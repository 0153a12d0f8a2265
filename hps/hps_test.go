package hps

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meliao/ha-hps/element"
	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

func unitSquare(t *testing.T, depth int) *tree.Tree {
	tr, err := tree.NewUniform(2, depth, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	require.NoError(t, err)
	return tr
}

func newSolver(t *testing.T, cfg Config, tr *tree.Tree, pb *pde.Problem) *Solver {
	s, err := New(cfg, tr, pb)
	require.NoError(t, err)
	require.NoError(t, s.Build())
	return s
}

// maxErr compares a solution against the exact field on every leaf grid
// point.
func maxErr(s *Solver, sol *Solution, exact func(x, y, z float64) float64) (max float64) {
	for id, u := range sol.Leaves {
		for m, x := range s.GridPoints(id) {
			if d := u.AtVec(m) - exact(x[0], x[1], x[2]); d > max {
				max = d
			} else if -d > max {
				max = -d
			}
		}
	}
	return
}

func maxDiff(a, b *Solution) (max float64) {
	for id, u := range a.Leaves {
		if d := u.Copy().Subtract(b.Leaves[id]).MaxAbs(); d > max {
			max = d
		}
	}
	return
}

func TestLaplaceQuadtree(t *testing.T) {
	var (
		exact = func(x, y, z float64) float64 {
			return x*x*x*x + y*y*y*y
		}
		f = func(x, y, z float64) float64 {
			return -(12*x*x + 12*y*y)
		}
		tr  = unitSquare(t, 2)
		cfg = Config{P: 6, Q: 5, RetainOperators: true, CondLimit: DefaultCondLimit}
		s   = newSolver(t, cfg, tr, pde.Laplace(2, f))
	)
	g := s.SampleBoundary(tr.Root, exact)
	sol, err := s.Solve(g)
	require.NoError(t, err)
	assert.Equal(t, 16, len(sol.Leaves))
	assert.Less(t, maxErr(s, sol, exact), 1.e-10)
}

func TestRootMapFlux(t *testing.T) {
	var (
		// harmonic, so the particular flux vanishes
		exact = func(x, y, z float64) float64 { return x*x*x - 3*x*y*y }
		ux    = func(x, y float64) float64 { return 3*x*x - 3*y*y }
		uy    = func(x, y float64) float64 { return -6 * x * y }
		tr    = unitSquare(t, 2)
		cfg   = Config{P: 6, Q: 5, RetainOperators: true}
		s     = newSolver(t, cfg, tr, pde.Laplace(2, nil))
	)
	T, h, err := s.RootMap()
	require.NoError(t, err)
	var (
		g    = s.SampleBoundary(tr.Root, exact)
		flux = T.MulVec(g).Add(h)
		pts  = s.BoundaryPoints(tr.Root)
	)
	for i, x := range pts {
		var want float64
		switch {
		case x[0] == 0:
			want = -ux(x[0], x[1])
		case x[0] == 1:
			want = ux(x[0], x[1])
		case x[1] == 0:
			want = -uy(x[0], x[1])
		default:
			want = uy(x[0], x[1])
		}
		assert.InDelta(t, want, flux.AtVec(i), 1.e-9)
	}

	// a constant potential carries no flux
	ones := s.SampleBoundary(tr.Root, func(x, y, z float64) float64 { return 1 })
	assert.Less(t, T.MulVec(ones).MaxAbs(), 1.e-9)
}

// rootWeights assembles the diagonal Gauss quadrature matrix of the root
// boundary, one half-unit panel per leaf face at depth one.
func rootWeights(s *Solver) utils.Matrix {
	var (
		ref = s.Reference()
		lay = s.RootLayout()
		w   = make([]float64, lay.N)
	)
	for face := 0; face < 4; face++ {
		for n, i := range lay.FaceIndex(face) {
			w[i] = ref.Wg[n%ref.Q] * 0.25
		}
	}
	return utils.NewDiagonal(w)
}

func TestRootMapSelfAdjoint(t *testing.T) {
	// Green's identity makes the Laplace DtN self adjoint in the boundary
	// L2 inner product: <g1, T g2> = <T g1, g2>.
	var (
		tr  = unitSquare(t, 1)
		cfg = Config{P: 8, Q: 6, RetainOperators: true}
		s   = newSolver(t, cfg, tr, pde.Laplace(2, nil))
	)
	T, _, err := s.RootMap()
	require.NoError(t, err)

	var (
		W   = rootWeights(s)
		dot = func(a, b utils.Vector) (d float64) {
			wb := W.MulVec(b)
			for i := 0; i < a.Len(); i++ {
				d += a.AtVec(i) * wb.AtVec(i)
			}
			return
		}
		traces = []func(x, y, z float64) float64{
			func(x, y, z float64) float64 { return x*x - y*y },
			func(x, y, z float64) float64 { return x * y },
			func(x, y, z float64) float64 { return x*x*x - 3*x*y*y },
		}
	)
	for a := 0; a < len(traces); a++ {
		for b := a + 1; b < len(traces); b++ {
			var (
				ga = s.SampleBoundary(tr.Root, traces[a])
				gb = s.SampleBoundary(tr.Root, traces[b])
			)
			assert.InDelta(t, dot(ga, T.MulVec(gb)), dot(T.MulVec(ga), gb), 1.e-8)
		}
	}
}

func TestSolveSubtreeMatchesSolve(t *testing.T) {
	var (
		exact = func(x, y, z float64) float64 { return x*x*x*x + y*y*y*y }
		f     = func(x, y, z float64) float64 { return -(12*x*x + 12*y*y) }
		tr    = unitSquare(t, 2)
		cfg   = Config{P: 6, Q: 5, RetainOperators: true}
		s     = newSolver(t, cfg, tr, pde.Laplace(2, f))
		g     = s.SampleBoundary(tr.Root, exact)
	)
	sol, err := s.Solve(g)
	require.NoError(t, err)
	fused, err := s.SolveSubtree(tr.Root, g)
	require.NoError(t, err)
	assert.Less(t, maxDiff(sol, fused), 1.e-11)

	// a proper subtree solve against its own boundary data
	child := tr.Patches[tr.Root].Children[0]
	gc := s.SampleBoundary(child, exact)
	csol, err := s.SolveSubtree(child, gc)
	require.NoError(t, err)
	assert.Equal(t, 4, len(csol.Leaves))
	assert.Less(t, maxErr(s, csol, exact), 1.e-10)
}

func TestDtNOnlyBuild(t *testing.T) {
	var (
		tr  = unitSquare(t, 1)
		cfg = Config{P: 6, Q: 4, RetainOperators: false}
		s   = newSolver(t, cfg, tr, pde.Laplace(2, nil))
	)
	T, _, err := s.RootMap()
	require.NoError(t, err)
	nr, nc := T.Dims()
	// depth 1: four root faces, two panels of q points each
	assert.Equal(t, 8*cfg.Q, nr)
	assert.Equal(t, s.RootLayout().N, nr)
	assert.Equal(t, nr, nc)

	_, err = s.Solve(utils.NewVector(nr))
	assert.ErrorIs(t, err, ErrNoRetainedOperators)

	// the fused path does not need retained operators
	g := s.SampleBoundary(tr.Root, func(x, y, z float64) float64 { return x * y })
	_, err = s.SolveSubtree(tr.Root, g)
	assert.NoError(t, err)
}

func TestRecompute(t *testing.T) {
	var (
		bump = 0.
		k    = 8.
		n    = func(x, y, z float64) float64 {
			if x < 0.5 && y < 0.5 {
				return 1 + bump
			}
			return 1
		}
		f   = func(x, y, z float64) float64 { return 1 }
		tr  = unitSquare(t, 2)
		cfg = Config{P: 8, Q: 6, RetainOperators: true}
		s   = newSolver(t, cfg, tr, pde.Helmholtz(2, k, n, f))
		g   = s.SampleBoundary(tr.Root, func(x, y, z float64) float64 { return 0 })
	)
	_, err := s.Solve(g)
	require.NoError(t, err)

	// perturb the potential in the lower left quadrant
	bump = 0.3
	ll := tr.Patches[tr.Root].Children[0]
	s.MarkDirty(ll)

	// dirty closure: the quadrant, its leaves and the root
	assert.Equal(t, Dirty, s.NodeState(ll))
	assert.Equal(t, Dirty, s.NodeState(tr.Root))
	assert.Equal(t, Dirty, s.NodeState(tr.Patches[ll].Children[2]))
	assert.Equal(t, Clean, s.NodeState(tr.Patches[tr.Root].Children[3]))

	_, err = s.Solve(g)
	assert.ErrorIs(t, err, ErrStaleOperatorUse)
	var ne *NodeError
	assert.ErrorAs(t, err, &ne)

	require.NoError(t, s.Recompute())
	for id := range tr.Patches {
		assert.Equal(t, Clean, s.NodeState(tree.NodeID(id)))
	}
	sol, err := s.Solve(g)
	require.NoError(t, err)

	// a fresh build over the perturbed potential agrees
	fresh := newSolver(t, cfg, tr, pde.Helmholtz(2, k, n, f))
	ref, err := fresh.Solve(g)
	require.NoError(t, err)
	assert.Less(t, maxDiff(sol, ref), 1.e-11)
}

func TestUpdateSource(t *testing.T) {
	var (
		f1  = func(x, y, z float64) float64 { return x }
		f2  = func(x, y, z float64) float64 { return y*y - x }
		tr  = unitSquare(t, 2)
		cfg = Config{P: 7, Q: 5, RetainOperators: true}
		s   = newSolver(t, cfg, tr, pde.Laplace(2, f1))
		g   = s.SampleBoundary(tr.Root, func(x, y, z float64) float64 { return 0 })
	)
	require.NoError(t, s.UpdateSource(f2))
	sol, err := s.Solve(g)
	require.NoError(t, err)

	fresh := newSolver(t, cfg, tr, pde.Laplace(2, f2))
	ref, err := fresh.Solve(g)
	require.NoError(t, err)
	assert.Less(t, maxDiff(sol, ref), 1.e-11)
}

func TestAdaptiveTwoToOne(t *testing.T) {
	var (
		exact = func(x, y, z float64) float64 { return x*x*x*y - x*y*y*y }
		tr, _ = tree.New(2, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	)
	kids, err := tr.Subdivide(tr.Root)
	require.NoError(t, err)
	_, err = tr.Subdivide(kids[0])
	require.NoError(t, err)
	require.NoError(t, tr.Validate())

	var (
		cfg = Config{P: 7, Q: 5, RetainOperators: true}
		s   = newSolver(t, cfg, tr, pde.Laplace(2, nil))
		g   = s.SampleBoundary(tr.Root, exact)
	)
	sol, err := s.Solve(g)
	require.NoError(t, err)
	assert.Equal(t, 7, len(sol.Leaves))
	assert.Less(t, maxErr(s, sol, exact), 1.e-9)
}

func TestLaplaceOctree(t *testing.T) {
	var (
		exact = func(x, y, z float64) float64 { return x*x - z*z + x*y }
		tr, _ = tree.NewUniform(3, 1, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
		cfg   = Config{P: 5, Q: 3, RetainOperators: true}
		s     = newSolver(t, cfg, tr, pde.Laplace(3, nil))
		g     = s.SampleBoundary(tr.Root, exact)
	)
	sol, err := s.Solve(g)
	require.NoError(t, err)
	assert.Equal(t, 8, len(sol.Leaves))
	assert.Less(t, maxErr(s, sol, exact), 1.e-9)
}

func TestSingularLocalSystem(t *testing.T) {
	var (
		tr = unitSquare(t, 1)
		pb = &pde.Problem{
			Name: "degenerate",
			Coef: map[element.Term]pde.CoefFn{
				element.TermI: func(x, y, z float64) float64 { return 0 },
			},
		}
	)
	s, err := New(Config{P: 6, Q: 4, CondLimit: DefaultCondLimit, RetainOperators: true}, tr, pb)
	require.NoError(t, err)
	err = s.Build()
	assert.ErrorIs(t, err, ErrSingularLocalSystem)
	var ne *NodeError
	require.True(t, errors.As(err, &ne))
	assert.True(t, tr.Patches[ne.ID].IsLeaf())
}

func TestMismatchedPanelOrders(t *testing.T) {
	tr := unitSquare(t, 1)
	_, err := New(Config{P: 4, Q: 4}, tr, pde.Laplace(2, nil))
	assert.Error(t, err)
}

// planeWaveImpedance samples the incoming impedance data u_n + i*eta*u of
// the plane wave exp(ikx) on the root boundary, face by face so the
// outward normal is known.
func planeWaveImpedance(s *Solver, k float64) (f utils.CVector) {
	var (
		lay = s.RootLayout()
		pts = s.BoundaryPoints(s.Tree().Root)
		ik  = complex(0, k)
	)
	f = utils.NewCVector(lay.N)
	for face := 0; face < 4; face++ {
		for _, i := range lay.FaceIndex(face) {
			u := cmplx.Exp(ik * complex(pts[i][0], 0))
			var un complex128
			switch face {
			case element.FaceXmin:
				un = -ik * u
			case element.FaceXmax:
				un = ik * u
			}
			f[i] = un + ik*u
		}
	}
	return
}

func maxErrC(s *Solver, sol *CSolution, exact func(x, y, z float64) complex128) (max float64) {
	for id, u := range sol.Leaves {
		for m, x := range s.GridPoints(id) {
			if d := cmplx.Abs(u[m] - exact(x[0], x[1], x[2])); d > max {
				max = d
			}
		}
	}
	return
}

func TestItIPlaneWave(t *testing.T) {
	var (
		k     = 6.
		exact = func(x, y, z float64) complex128 {
			return cmplx.Exp(complex(0, k*x))
		}
		tr  = unitSquare(t, 2)
		cfg = Config{P: 8, Q: 6, RetainOperators: true}
		s   = newSolver(t, cfg, tr, pde.ItIHelmholtz(k, nil, nil))
		f   = planeWaveImpedance(s, k)
	)
	R, _, err := s.RootMapItI()
	require.NoError(t, err)
	nr, nc := R.Dims()
	assert.Equal(t, s.RootLayout().N, nr)
	assert.Equal(t, nr, nc)

	sol, err := s.SolveItI(f)
	require.NoError(t, err)
	assert.Equal(t, 16, len(sol.Leaves))
	assert.Less(t, maxErrC(s, sol, exact), 1.e-5)

	// the fused transient path reproduces the stored downward pass
	fused, err := s.SolveSubtreeItI(tr.Root, f)
	require.NoError(t, err)
	for id, u := range sol.Leaves {
		for m := range u {
			assert.InDelta(t, 0, cmplx.Abs(u[m]-fused.Leaves[id][m]), 1.e-11)
		}
	}
}

func TestItIRootMapUnitary(t *testing.T) {
	// without absorption the impedance map conserves the boundary L2 norm,
	// so in the quadrature-weighted frame its singular values sit at one
	var (
		tr  = unitSquare(t, 1)
		cfg = Config{P: 8, Q: 6, RetainOperators: true}
		s   = newSolver(t, cfg, tr, pde.ItIHelmholtz(2, nil, nil))
	)
	R, _, err := s.RootMapItI()
	require.NoError(t, err)

	var (
		W    = rootWeights(s)
		n, _ = R.Dims()
		Rw   = utils.NewCMatrix(n, n)
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			scale := math.Sqrt(W.At(i, i) / W.At(j, j))
			Rw.Set(i, j, complex(scale, 0)*R.At(i, j))
		}
	}
	sv := Rw.SingularValues()
	require.Equal(t, n, len(sv))
	for _, v := range sv {
		assert.InDelta(t, 1, v, 1.e-3)
	}
}

func TestBuildIdempotent(t *testing.T) {
	var (
		tr  = unitSquare(t, 1)
		pb  = pde.Helmholtz(2, 5, nil, func(x, y, z float64) float64 { return x + y })
		cfg = Config{P: 7, Q: 5, RetainOperators: true}
		s1  = newSolver(t, cfg, tr, pb)
		s2  = newSolver(t, cfg, tr, pb)
	)
	T1, h1, err := s1.RootMap()
	require.NoError(t, err)
	T2, h2, err := s2.RootMap()
	require.NoError(t, err)
	nr, nc := T1.Dims()
	for r := 0; r < nr; r++ {
		for c := 0; c < nc; c++ {
			assert.Equal(t, T1.At(r, c), T2.At(r, c))
		}
	}
	assert.Equal(t, 0., h1.Copy().Subtract(h2).MaxAbs())
}

func TestItIRejectsAdaptive(t *testing.T) {
	tr, _ := tree.New(2, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	kids, err := tr.Subdivide(tr.Root)
	require.NoError(t, err)
	_, err = tr.Subdivide(kids[0])
	require.NoError(t, err)

	s, err := New(Config{P: 7, Q: 5, RetainOperators: true}, tr, pde.ItIHelmholtz(4, nil, nil))
	require.NoError(t, err)
	err = s.Build()
	assert.ErrorIs(t, err, ErrPatchMismatch)
}
