package hps

import (
	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// buildLeaf collocates the problem on one leaf and produces its boundary
// map and particular solution.
func (s *Solver) buildLeaf(dst []*nodeOps, id tree.NodeID) (err error) {
	var (
		p      = &s.tr.Patches[id]
		h      = p.H()
		sample = s.pb.SampleLeaf(s.ref, p.Center(), h)
		A      = s.assembleInterior(sample, h)
		node   = &nodeOps{layout: tree.NewLeafLayout(s.tr.Dim, s.cfg.Q, p.Lo, p.Hi)}
	)
	if s.pb.Variant == pde.ItI {
		node.ileaf, err = s.leafItI(A, sample, h)
	} else {
		node.leaf, err = s.leafDtN(A, sample, h)
	}
	if err != nil {
		err = nodeErr(id, p.Level, err)
		return
	}
	dst[id] = node
	return
}

// assembleInterior builds the interior collocation rows of the operator,
// coefficient sampled per grid point and reference terms scaled onto the
// physical cell.
func (s *Solver) assembleInterior(sample pde.LeafSample, h [3]float64) (A utils.Matrix) {
	var (
		ref = s.ref
		ni  = ref.Npts - ref.Nbc
	)
	A = utils.NewMatrix(ni, ref.Npts)
	for t, c := range sample.Coef {
		Op, ok := ref.Op(t)
		if !ok {
			continue
		}
		sc := ref.TermScale(t, h)
		for r := 0; r < ni; r++ {
			w := c[ref.Nbc+r] * sc
			if w == 0 {
				continue
			}
			for col := 0; col < ref.Npts; col++ {
				A.Set(r, col, A.At(r, col)+w*Op.At(ref.Nbc+r, col))
			}
		}
	}
	return
}

// leafDtN eliminates the interior against Dirichlet boundary data:
//
//	u = Y g + [0; vi],  flux = T g + h.
func (s *Solver) leafDtN(A utils.Matrix, sample pde.LeafSample, h [3]float64) (lf *leafDtN, err error) {
	var (
		ref = s.ref
		nb  = ref.Nbc
		np  = ref.Npts
		Ib  = utils.NewRange(0, nb)
		Ii  = utils.NewRange(nb, np)
		Aii = A.SliceCols(Ii)
		Aib = A.SliceCols(Ib)
	)
	if s.cfg.CondLimit > 0 && Aii.Cond() > s.cfg.CondLimit {
		err = ErrSingularLocalSystem
		return
	}
	var lu *utils.LU
	if lu, err = utils.Factor(Aii); err != nil {
		err = ErrSingularLocalSystem
		return
	}
	var Yi utils.Matrix
	if Yi, err = lu.Solve(Aib.Mul(ref.Pmat)); err != nil {
		err = ErrSingularLocalSystem
		return
	}
	Yi.Scale(-1)
	Y := utils.NewMatrix(np, ref.Nbg)
	Y.AssignRows(Ib, ref.Pmat)
	Y.AssignRows(Ii, Yi)

	var (
		Qh = ref.FluxMap(h)
		Qi = Qh.SliceCols(Ii)
		vi = utils.NewVector(np - nb)
		hv = utils.NewVector(ref.Nbg)
	)
	if sample.Source != nil {
		si := utils.NewVector(np-nb, sample.Source[nb:])
		if vi, err = lu.SolveVec(si); err != nil {
			err = ErrSingularLocalSystem
			return
		}
		hv = Qi.MulVec(vi)
	}
	lf = &leafDtN{T: Qh.Mul(Y), h: hv, Y: Y, vi: vi, lu: lu, Qi: Qi}
	return
}

// leafItI solves against incoming impedance data f = u_n + i*eta*u on the
// boundary and maps it to outgoing data u_n - i*eta*u:
//
//	u = Y f + v,  outgoing = R f + h.
func (s *Solver) leafItI(A utils.Matrix, sample pde.LeafSample, h [3]float64) (lf *leafItI, err error) {
	var (
		ref = s.ref
		nb  = ref.Nbc
		np  = ref.Npts
		ie  = complex(0, s.eta)
		B   = utils.NewCMatrix(np, np)
		Nc  = ref.BoundaryDerivMap(h)
	)
	// incoming impedance rows at the grid boundary points
	for r := 0; r < nb; r++ {
		for c := 0; c < np; c++ {
			B.Set(r, c, complex(Nc.At(r, c), 0))
		}
		B.Set(r, r, B.At(r, r)+ie)
	}
	for r := nb; r < np; r++ {
		for c := 0; c < np; c++ {
			B.Set(r, c, complex(A.At(r-nb, c), 0))
		}
	}
	if s.cfg.CondLimit > 0 && B.Cond() > s.cfg.CondLimit {
		err = ErrSingularLocalSystem
		return
	}
	var lu *utils.CLU
	if lu, err = utils.CFactor(B); err != nil {
		err = ErrSingularLocalSystem
		return
	}

	// outgoing impedance at the Gauss boundary points
	QH := utils.NewCMatrixFromReal(ref.FluxMap(h))
	QH.Subtract(utils.NewCMatrixFromReal(ref.Eg).Scale(ie))

	rhs := utils.NewCMatrix(np, ref.Nbg)
	for r := 0; r < nb; r++ {
		for c := 0; c < ref.Nbg; c++ {
			rhs.Set(r, c, complex(ref.Pmat.At(r, c), 0))
		}
	}
	var Y utils.CMatrix
	if Y, err = lu.Solve(rhs); err != nil {
		err = ErrSingularLocalSystem
		return
	}

	var (
		v  = utils.NewCVector(np)
		hv = utils.NewCVector(ref.Nbg)
	)
	if sample.Source != nil {
		sv := utils.NewCVector(np)
		for r := nb; r < np; r++ {
			sv[r] = complex(sample.Source[r], 0)
		}
		if v, err = lu.SolveVec(sv); err != nil {
			err = ErrSingularLocalSystem
			return
		}
		hv = QH.MulVec(v)
	}
	lf = &leafItI{R: QH.Mul(Y), h: hv, Y: Y, v: v, lu: lu, QH: QH}
	return
}
