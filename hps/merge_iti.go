package hps

import (
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// mergeItI merges two impedance operands. The children share the interface
// trace with opposite normals, so each child's incoming interface data is
// the negated outgoing data of its sibling,
//
//	i_a3 = -o_b3,  i_b3 = -o_a3.
//
// Eliminating the outgoing data closes into a pair of systems for the
// incoming interface data itself,
//
//	(I - Rb33 Ra33) i_a3 = Rb33 Ra31 i_ae - Rb31 i_be + Rb33 h_a3 - h_b3
//	(I - Ra33 Rb33) i_b3 = Ra33 Rb31 i_be - Ra31 i_ae + Ra33 h_b3 - h_a3,
//
// whose solution operators Sa, Sb, ta, tb feed the downward pass directly.
func (s *Solver) mergeItI(mg tree.Merge, RA, RB utils.CMatrix, hA, hB utils.CVector) (stg *stageItI, err error) {
	var (
		Ra33 = RA.SliceRows(mg.ShA).SliceCols(mg.ShA)
		Ra31 = RA.SliceRows(mg.ShA).SliceCols(mg.ExtA)
		Ra13 = RA.SliceRows(mg.ExtA).SliceCols(mg.ShA)
		Ra11 = RA.SliceRows(mg.ExtA).SliceCols(mg.ExtA)
		Rb33 = RB.SliceRows(mg.ShB).SliceCols(mg.ShB)
		Rb31 = RB.SliceRows(mg.ShB).SliceCols(mg.ExtB)
		Rb13 = RB.SliceRows(mg.ExtB).SliceCols(mg.ShB)
		Rb11 = RB.SliceRows(mg.ExtB).SliceCols(mg.ExtB)
		hA3  = hA.Subset(mg.ShA)
		hAe  = hA.Subset(mg.ExtA)
		hB3  = hB.Subset(mg.ShB)
		hBe  = hB.Subset(mg.ExtB)
		n3   = len(mg.ShA)
		nEa  = len(mg.ExtA)
		nEb  = len(mg.ExtB)
	)
	WaInv := utils.NewCIdentity(n3).Subtract(Ra33.Mul(Rb33))
	WbInv := utils.NewCIdentity(n3).Subtract(Rb33.Mul(Ra33))
	if s.cfg.CondLimit > 0 && (WaInv.Cond() > s.cfg.CondLimit || WbInv.Cond() > s.cfg.CondLimit) {
		err = ErrSingularMergeSystem
		return
	}
	var luWa, luWb *utils.CLU
	if luWa, err = utils.CFactor(WaInv); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	if luWb, err = utils.CFactor(WbInv); err != nil {
		err = ErrSingularMergeSystem
		return
	}

	// incoming interface data of each child from the stacked exterior
	// incoming data, i_a3 = Sa [i_ae; i_be] + ta
	var (
		rhsA = utils.NewCMatrix(n3, nEa+nEb)
		rhsB = utils.NewCMatrix(n3, nEa+nEb)
		ra   = Rb33.Mul(Ra31)
		rb   = Ra33.Mul(Rb31)
	)
	for r := 0; r < n3; r++ {
		for c := 0; c < nEa; c++ {
			rhsA.Set(r, c, ra.At(r, c))
			rhsB.Set(r, c, -Ra31.At(r, c))
		}
		for c := 0; c < nEb; c++ {
			rhsA.Set(r, nEa+c, -Rb31.At(r, c))
			rhsB.Set(r, nEa+c, rb.At(r, c))
		}
	}
	var Sa, Sb utils.CMatrix
	if Sa, err = luWb.Solve(rhsA); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	if Sb, err = luWa.Solve(rhsB); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	var ta, tb utils.CVector
	if ta, err = luWb.SolveVec(Rb33.MulVec(hA3).Subtract(hB3)); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	if tb, err = luWa.SolveVec(Ra33.MulVec(hB3).Subtract(hA3)); err != nil {
		err = ErrSingularMergeSystem
		return
	}

	// parent outgoing map over the stacked exterior
	var (
		up  = Ra13.Mul(Sa)
		lo  = Rb13.Mul(Sb)
		Rst = utils.NewCMatrix(nEa+nEb, nEa+nEb)
		hst = utils.CConcat(hAe.Add(Ra13.MulVec(ta)), hBe.Add(Rb13.MulVec(tb)))
	)
	for r := 0; r < nEa; r++ {
		for c := 0; c < nEa+nEb; c++ {
			Rst.Set(r, c, up.At(r, c))
		}
		for c := 0; c < nEa; c++ {
			Rst.Set(r, c, Rst.At(r, c)+Ra11.At(r, c))
		}
	}
	for r := 0; r < nEb; r++ {
		for c := 0; c < nEa+nEb; c++ {
			Rst.Set(nEa+r, c, lo.At(r, c))
		}
		for c := 0; c < nEb; c++ {
			Rst.Set(nEa+r, nEa+c, Rst.At(nEa+r, nEa+c)+Rb11.At(r, c))
		}
	}

	stg = &stageItI{
		mg:   mg,
		R:    Rst.SliceRows(mg.Perm).SliceCols(mg.Perm),
		h:    hst.Subset(mg.Perm),
		luWa: luWa,
		luWb: luWb,
		Sa:   Sa,
		Sb:   Sb,
		ta:   ta,
		tb:   tb,
		Ra33: Ra33,
		Rb33: Rb33,
		E3a:  Ra13,
		E3b:  Rb13,
	}
	return
}
