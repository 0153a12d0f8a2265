package hps

import (
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// mergeDtN merges two Dirichlet-to-Neumann operands by eliminating the
// shared interface. With outward fluxes on both sides the interface
// conditions are a common trace g3 and hA3 + hB3 = 0, giving
//
//	D g3 = -(TA[3,e] gAe + TB[3,e] gBe + hA3 + hB3),  D = TA33 + TB33.
//
// The interface unknowns live on the union panelization; on a two-to-one
// interface a side's blocks are conjugated with its panel interpolation.
func (s *Solver) mergeDtN(mg tree.Merge, TA, TB utils.Matrix, hA, hB utils.Vector) (stg *stageDtN, err error) {
	var (
		TA33 = TA.SliceRows(mg.ShA).SliceCols(mg.ShA)
		TAe3 = TA.SliceRows(mg.ExtA).SliceCols(mg.ShA)
		TA3e = TA.SliceRows(mg.ShA).SliceCols(mg.ExtA)
		TAee = TA.SliceRows(mg.ExtA).SliceCols(mg.ExtA)
		TB33 = TB.SliceRows(mg.ShB).SliceCols(mg.ShB)
		TBe3 = TB.SliceRows(mg.ExtB).SliceCols(mg.ShB)
		TB3e = TB.SliceRows(mg.ShB).SliceCols(mg.ExtB)
		TBee = TB.SliceRows(mg.ExtB).SliceCols(mg.ExtB)
		hA3  = hA.Subset(mg.ShA)
		hAe  = hA.Subset(mg.ExtA)
		hB3  = hB.Subset(mg.ShB)
		hBe  = hB.Subset(mg.ExtB)
	)
	if !mg.UpA.IsEmpty() {
		TA33 = mg.UpA.Mul(TA33).Mul(mg.DnA)
		TA3e = mg.UpA.Mul(TA3e)
		TAe3 = TAe3.Mul(mg.DnA)
		hA3 = mg.UpA.MulVec(hA3)
	}
	if !mg.UpB.IsEmpty() {
		TB33 = mg.UpB.Mul(TB33).Mul(mg.DnB)
		TB3e = mg.UpB.Mul(TB3e)
		TBe3 = TBe3.Mul(mg.DnB)
		hB3 = mg.UpB.MulVec(hB3)
	}

	D := TA33.Add(TB33)
	if s.cfg.CondLimit > 0 && D.Cond() > s.cfg.CondLimit {
		err = ErrSingularMergeSystem
		return
	}
	var luD *utils.LU
	if luD, err = utils.Factor(D); err != nil {
		err = ErrSingularMergeSystem
		return
	}

	var (
		n3  = mg.N3
		nEa = len(mg.ExtA)
		nEb = len(mg.ExtB)
	)
	rhs := utils.NewMatrix(n3, nEa+nEb)
	for r := 0; r < n3; r++ {
		for c := 0; c < nEa; c++ {
			rhs.Set(r, c, TA3e.At(r, c))
		}
		for c := 0; c < nEb; c++ {
			rhs.Set(r, nEa+c, TB3e.At(r, c))
		}
	}
	var S utils.Matrix
	if S, err = luD.Solve(rhs); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	S.Scale(-1)
	var gT utils.Vector
	if gT, err = luD.SolveVec(hA3.Copy().Add(hB3)); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	gT.Scale(-1)

	E3 := utils.NewMatrix(nEa+nEb, n3)
	E3.AssignRows(utils.NewRange(0, nEa), TAe3)
	E3.AssignRows(utils.NewRange(nEa, nEa+nEb), TBe3)

	Tst := E3.Mul(S)
	for r := 0; r < nEa; r++ {
		for c := 0; c < nEa; c++ {
			Tst.Set(r, c, Tst.At(r, c)+TAee.At(r, c))
		}
	}
	for r := 0; r < nEb; r++ {
		for c := 0; c < nEb; c++ {
			Tst.Set(nEa+r, nEa+c, Tst.At(nEa+r, nEa+c)+TBee.At(r, c))
		}
	}
	hst := utils.Concat(hAe, hBe).Add(E3.MulVec(gT))

	stg = &stageDtN{
		mg:  mg,
		T:   Tst.SliceRows(mg.Perm).SliceCols(mg.Perm),
		h:   hst.Subset(mg.Perm),
		luD: luD,
		S:   S,
		gT:  gT,
		E3:  E3,
	}
	return
}
