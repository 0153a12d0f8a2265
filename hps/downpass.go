package hps

import (
	"fmt"

	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// Solution holds per-leaf grid solutions in tensor node ordering, x
// fastest.
type Solution struct {
	Leaves map[tree.NodeID]utils.Vector
}

// CSolution is the complex impedance analog.
type CSolution struct {
	Leaves map[tree.NodeID]utils.CVector
}

// Solve runs the downward pass for Dirichlet boundary data g, given in the
// root's canonical boundary ordering, and returns the volume solution on
// every leaf.
func (s *Solver) Solve(g utils.Vector) (sol *Solution, err error) {
	if err = s.checkSolvable(); err != nil {
		return
	}
	if s.pb.Variant != pde.DtN {
		err = fmt.Errorf("impedance problems solve through SolveItI")
		return
	}
	if g.Len() != s.ops[s.tr.Root].layout.N {
		err = fmt.Errorf("boundary data length %d, root boundary has %d points", g.Len(), s.ops[s.tr.Root].layout.N)
		return
	}
	sol = &Solution{Leaves: make(map[tree.NodeID]utils.Vector)}
	s.downDtN(s.ops, s.tr.Root, g, sol)
	return
}

// SolveItI runs the downward pass for incoming impedance data.
func (s *Solver) SolveItI(f utils.CVector) (sol *CSolution, err error) {
	if err = s.checkSolvable(); err != nil {
		return
	}
	if s.pb.Variant != pde.ItI {
		err = fmt.Errorf("Dirichlet problems solve through Solve")
		return
	}
	if len(f) != s.ops[s.tr.Root].layout.N {
		err = fmt.Errorf("boundary data length %d, root boundary has %d points", len(f), s.ops[s.tr.Root].layout.N)
		return
	}
	sol = &CSolution{Leaves: make(map[tree.NodeID]utils.CVector)}
	s.downItI(s.ops, s.tr.Root, f, sol)
	return
}

func (s *Solver) checkSolvable() (err error) {
	if !s.built {
		err = ErrNotBuilt
		return
	}
	if !s.cfg.RetainOperators {
		err = ErrNoRetainedOperators
		return
	}
	for id := range s.state {
		if s.state[id] != Clean {
			err = nodeErr(tree.NodeID(id), s.tr.Patches[id].Level, ErrStaleOperatorUse)
			return
		}
	}
	return
}

func (s *Solver) downDtN(ops []*nodeOps, id tree.NodeID, g utils.Vector, sol *Solution) {
	var (
		p = &s.tr.Patches[id]
		n = ops[id]
	)
	if n.leaf != nil {
		var (
			ref = s.ref
			u   = n.leaf.Y.MulVec(g)
		)
		for i := 0; i < n.leaf.vi.Len(); i++ {
			u.Set(ref.Nbc+i, u.AtVec(ref.Nbc+i)+n.leaf.vi.AtVec(i))
		}
		// back from boundary-first to tensor ordering
		sol.Leaves[id] = u.Subset(ref.BPerm.Inverse())
		return
	}
	// invert the merge stages: the last stage consumed the node's own
	// boundary data, each earlier stage is an operand of a later one
	var (
		plan = mergePlan(s.tr.Dim)
		data = make([]utils.Vector, len(n.stages))
	)
	data[len(n.stages)-1] = g
	for si := len(n.stages) - 1; si >= 0; si-- {
		gA, gB := downStageDtN(n.stages[si], data[si])
		for opi, gc := range [2]utils.Vector{gA, gB} {
			op := plan[si][opi]
			if op >= 0 {
				s.downDtN(ops, p.Children[op], gc, sol)
			} else {
				data[^op] = gc
			}
		}
	}
}

// downStageDtN recovers both operands' Dirichlet data from the stage
// parent's data.
func downStageDtN(stg *stageDtN, gP utils.Vector) (gA, gB utils.Vector) {
	var (
		mg      = stg.mg
		nEa     = len(mg.ExtA)
		nEb     = len(mg.ExtB)
		stacked = utils.NewVector(nEa + nEb)
	)
	for i, pi := range mg.Perm {
		stacked.Set(pi, gP.AtVec(i))
	}
	g3 := stg.S.MulVec(stacked).Add(stg.gT)
	g3A, g3B := g3, g3
	if !mg.DnA.IsEmpty() {
		g3A = mg.DnA.MulVec(g3)
	}
	if !mg.DnB.IsEmpty() {
		g3B = mg.DnB.MulVec(g3)
	}
	gA = utils.NewVector(len(mg.ExtA) + len(mg.ShA))
	gA.Assign(mg.ExtA, stacked.Subset(utils.NewRange(0, nEa)))
	gA.Assign(mg.ShA, g3A)
	gB = utils.NewVector(len(mg.ExtB) + len(mg.ShB))
	gB.Assign(mg.ExtB, stacked.Subset(utils.NewRange(nEa, nEa+nEb)))
	gB.Assign(mg.ShB, g3B)
	return
}

func (s *Solver) downItI(ops []*nodeOps, id tree.NodeID, f utils.CVector, sol *CSolution) {
	var (
		p = &s.tr.Patches[id]
		n = ops[id]
	)
	if n.ileaf != nil {
		var (
			ref = s.ref
			u   = n.ileaf.Y.MulVec(f).Add(n.ileaf.v)
		)
		sol.Leaves[id] = u.Subset(ref.BPerm.Inverse())
		return
	}
	var (
		plan = mergePlan(s.tr.Dim)
		data = make([]utils.CVector, len(n.istage))
	)
	data[len(n.istage)-1] = f
	for si := len(n.istage) - 1; si >= 0; si-- {
		fA, fB := downStageItI(n.istage[si], data[si])
		for opi, fc := range [2]utils.CVector{fA, fB} {
			op := plan[si][opi]
			if op >= 0 {
				s.downItI(ops, p.Children[op], fc, sol)
			} else {
				data[^op] = fc
			}
		}
	}
}

// downStageItI recovers both operands' incoming impedance data.
func downStageItI(stg *stageItI, fP utils.CVector) (fA, fB utils.CVector) {
	var (
		mg      = stg.mg
		nEa     = len(mg.ExtA)
		nEb     = len(mg.ExtB)
		stacked = utils.NewCVector(nEa + nEb)
	)
	for i, pi := range mg.Perm {
		stacked[pi] = fP[i]
	}
	var (
		f3A = stg.Sa.MulVec(stacked).Add(stg.ta)
		f3B = stg.Sb.MulVec(stacked).Add(stg.tb)
	)
	fA = utils.NewCVector(nEa + len(mg.ShA))
	fA.Assign(mg.ExtA, stacked.Subset(utils.NewRange(0, nEa)))
	fA.Assign(mg.ShA, f3A)
	fB = utils.NewCVector(nEb + len(mg.ShB))
	fB.Assign(mg.ExtB, stacked.Subset(utils.NewRange(nEa, nEa+nEb)))
	fB.Assign(mg.ShB, f3B)
	return
}
