package hps

import (
	"fmt"

	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// SolveSubtree solves a single boundary value problem on the subtree
// rooted at id, building its operators transiently and discarding them.
// It never reads or writes the stored hierarchy, so it works on dirty
// regions and on solvers built without retained operators. g is Dirichlet
// data on the subtree root boundary in canonical ordering.
func (s *Solver) SolveSubtree(id tree.NodeID, g utils.Vector) (sol *Solution, err error) {
	if s.pb.Variant != pde.DtN {
		err = fmt.Errorf("impedance problems solve through SolveSubtreeItI")
		return
	}
	ops, err := s.buildSubtree(id)
	if err != nil {
		return
	}
	if g.Len() != ops[id].layout.N {
		err = fmt.Errorf("boundary data length %d, subtree boundary has %d points", g.Len(), ops[id].layout.N)
		return
	}
	sol = &Solution{Leaves: make(map[tree.NodeID]utils.Vector)}
	s.downDtN(ops, id, g, sol)
	return
}

// SolveSubtreeItI is the impedance analog.
func (s *Solver) SolveSubtreeItI(id tree.NodeID, f utils.CVector) (sol *CSolution, err error) {
	if s.pb.Variant != pde.ItI {
		err = fmt.Errorf("Dirichlet problems solve through SolveSubtree")
		return
	}
	ops, err := s.buildSubtree(id)
	if err != nil {
		return
	}
	if len(f) != ops[id].layout.N {
		err = fmt.Errorf("boundary data length %d, subtree boundary has %d points", len(f), ops[id].layout.N)
		return
	}
	sol = &CSolution{Leaves: make(map[tree.NodeID]utils.CVector)}
	s.downItI(ops, id, f, sol)
	return
}

func (s *Solver) buildSubtree(id tree.NodeID) (ops []*nodeOps, err error) {
	var (
		within = make(map[tree.NodeID]bool)
		leaves []tree.NodeID
	)
	for _, d := range s.tr.Descendants(id) {
		within[d] = true
		if s.tr.Patches[d].IsLeaf() {
			leaves = append(leaves, d)
		}
	}
	var levels [][]tree.NodeID
	for _, level := range s.tr.Levels() {
		var in []tree.NodeID
		for _, n := range level {
			if within[n] {
				in = append(in, n)
			}
		}
		if len(in) != 0 {
			levels = append(levels, in)
		}
	}
	ops = make([]*nodeOps, len(s.tr.Patches))
	err = s.buildNodes(ops, leaves, levels)
	return
}
