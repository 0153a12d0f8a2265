package hps

import (
	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// MarkDirty invalidates the operators of the given patches after a local
// coefficient change: everything below each patch must re-solve, and every
// ancestor merge depends on the result. Solves fail with
// ErrStaleOperatorUse until Recompute runs.
func (s *Solver) MarkDirty(ids ...tree.NodeID) {
	if s.state == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		for _, d := range s.tr.Descendants(id) {
			s.state[d] = Dirty
		}
		for _, a := range s.tr.PathToRoot(id) {
			s.state[a] = Dirty
		}
	}
}

// Recompute rebuilds exactly the dirty part of the hierarchy, re-solving
// dirty leaves and redoing dirty merges against the untouched siblings'
// existing operators.
func (s *Solver) Recompute() (err error) {
	if !s.built {
		err = ErrNotBuilt
		return
	}
	s.mu.Lock()
	var (
		leaves []tree.NodeID
		levels [][]tree.NodeID
	)
	for _, id := range s.tr.Leaves() {
		if s.state[id] == Dirty {
			s.state[id] = Rebuilding
			leaves = append(leaves, id)
		}
	}
	for _, level := range s.tr.Levels() {
		var dirty []tree.NodeID
		for _, id := range level {
			if s.state[id] == Dirty {
				s.state[id] = Rebuilding
				dirty = append(dirty, id)
			}
		}
		if len(dirty) != 0 {
			levels = append(levels, dirty)
		}
	}
	s.mu.Unlock()

	err = s.buildNodes(s.ops, leaves, levels)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.state {
		if s.state[id] != Rebuilding {
			continue
		}
		if err != nil {
			s.state[id] = Dirty
			continue
		}
		s.state[id] = Clean
		if !s.cfg.RetainOperators {
			s.ops[id].strip()
		}
	}
	return
}

// UpdateSource re-propagates a new volume source through the existing
// factorizations. The interface and local systems are not re-factored, so
// this is the cheap path when only the right hand side changes.
func (s *Solver) UpdateSource(f pde.CoefFn) (err error) {
	if err = s.checkSolvable(); err != nil {
		return
	}
	s.pb.Source = f
	if err = s.parallelOver(s.tr.Leaves(), func(id tree.NodeID) error {
		return s.updateLeafSource(id)
	}); err != nil {
		return
	}
	for _, level := range s.tr.Levels() {
		if err = s.parallelOver(level, func(id tree.NodeID) error {
			return s.updateNodeSource(id)
		}); err != nil {
			return
		}
	}
	return
}

func (s *Solver) updateLeafSource(id tree.NodeID) (err error) {
	var (
		p      = &s.tr.Patches[id]
		ref    = s.ref
		nb     = ref.Nbc
		np     = ref.Npts
		sample = s.pb.SampleLeaf(ref, p.Center(), p.H())
		n      = s.ops[id]
	)
	if n.leaf != nil {
		lf := n.leaf
		if sample.Source == nil {
			lf.vi = utils.NewVector(np - nb)
			lf.h = utils.NewVector(ref.Nbg)
			return
		}
		si := utils.NewVector(np-nb, sample.Source[nb:])
		if lf.vi, err = lf.lu.SolveVec(si); err != nil {
			err = nodeErr(id, p.Level, ErrSingularLocalSystem)
			return
		}
		lf.h = lf.Qi.MulVec(lf.vi)
		return
	}
	lf := n.ileaf
	if sample.Source == nil {
		lf.v = utils.NewCVector(np)
		lf.h = utils.NewCVector(ref.Nbg)
		return
	}
	sv := utils.NewCVector(np)
	for r := nb; r < np; r++ {
		sv[r] = complex(sample.Source[r], 0)
	}
	if lf.v, err = lf.lu.SolveVec(sv); err != nil {
		err = nodeErr(id, p.Level, ErrSingularLocalSystem)
		return
	}
	lf.h = lf.QH.MulVec(lf.v)
	return
}

// updateNodeSource re-runs only the particular parts of an internal
// node's merge stages.
func (s *Solver) updateNodeSource(id tree.NodeID) (err error) {
	var (
		p    = &s.tr.Patches[id]
		n    = s.ops[id]
		plan = mergePlan(s.tr.Dim)
	)
	if s.pb.Variant == pde.ItI {
		for si, stg := range n.istage {
			_, hA := s.operandItI(s.ops, p, n, plan[si][0])
			_, hB := s.operandItI(s.ops, p, n, plan[si][1])
			if err = s.updateStageItI(stg, hA, hB); err != nil {
				err = nodeErr(id, p.Level, err)
				return
			}
		}
		return
	}
	for si, stg := range n.stages {
		_, hA := s.operandDtN(s.ops, p, n, plan[si][0])
		_, hB := s.operandDtN(s.ops, p, n, plan[si][1])
		if err = s.updateStageDtN(stg, hA, hB); err != nil {
			err = nodeErr(id, p.Level, err)
			return
		}
	}
	return
}

func (s *Solver) updateStageDtN(stg *stageDtN, hA, hB utils.Vector) (err error) {
	var (
		mg  = stg.mg
		hA3 = hA.Subset(mg.ShA)
		hAe = hA.Subset(mg.ExtA)
		hB3 = hB.Subset(mg.ShB)
		hBe = hB.Subset(mg.ExtB)
	)
	if !mg.UpA.IsEmpty() {
		hA3 = mg.UpA.MulVec(hA3)
	}
	if !mg.UpB.IsEmpty() {
		hB3 = mg.UpB.MulVec(hB3)
	}
	if stg.gT, err = stg.luD.SolveVec(hA3.Add(hB3)); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	stg.gT.Scale(-1)
	hst := utils.Concat(hAe, hBe).Add(stg.E3.MulVec(stg.gT))
	stg.h = hst.Subset(mg.Perm)
	return
}

func (s *Solver) updateStageItI(stg *stageItI, hA, hB utils.CVector) (err error) {
	var (
		mg  = stg.mg
		hA3 = hA.Subset(mg.ShA)
		hAe = hA.Subset(mg.ExtA)
		hB3 = hB.Subset(mg.ShB)
		hBe = hB.Subset(mg.ExtB)
	)
	if stg.ta, err = stg.luWb.SolveVec(stg.Rb33.MulVec(hA3).Subtract(hB3)); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	if stg.tb, err = stg.luWa.SolveVec(stg.Ra33.MulVec(hB3).Subtract(hA3)); err != nil {
		err = ErrSingularMergeSystem
		return
	}
	hst := utils.CConcat(hAe.Add(stg.E3a.MulVec(stg.ta)), hBe.Add(stg.E3b.MulVec(stg.tb)))
	stg.h = hst.Subset(mg.Perm)
	return
}
