// Package hps implements a hierarchical fast direct solver for linear
// elliptic boundary value problems. Leaves of a quadtree or octree carry
// spectral collocation solves, pairwise Schur complement merges compose
// their boundary maps level by level up to the root, and a downward pass
// through the stored elimination operators recovers the volume solution
// for any boundary data at small marginal cost.
package hps

import (
	"sync"

	"github.com/meliao/ha-hps/element"
	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// State tracks the validity of a node's operators under coefficient
// changes.
type State int

const (
	Clean State = iota
	Dirty
	Rebuilding
)

// leafDtN holds one leaf's Dirichlet-to-Neumann solve operators. Y maps
// Gauss boundary data to the boundary-first grid solution, vi is the
// interior particular solution, h its outward boundary flux.
type leafDtN struct {
	T  utils.Matrix
	h  utils.Vector
	Y  utils.Matrix
	vi utils.Vector
	lu *utils.LU    // interior collocation block
	Qi utils.Matrix // flux map restricted to interior columns
}

// leafItI is the complex impedance analog; h and the particular solution
// carry the outgoing impedance convention.
type leafItI struct {
	R  utils.CMatrix
	h  utils.CVector
	Y  utils.CMatrix
	v  utils.CVector
	lu *utils.CLU
	QH utils.CMatrix
}

// stageDtN is one pairwise merge inside an internal node. S and gT map the
// stacked exterior data and the children's particular fluxes onto the
// interface solution, E3 carries the interface back out to the exterior
// flux rows. T and h are the stage result in its canonical boundary order.
type stageDtN struct {
	mg  tree.Merge
	T   utils.Matrix
	h   utils.Vector
	luD *utils.LU
	S   utils.Matrix
	gT  utils.Vector
	E3  utils.Matrix
}

type stageItI struct {
	mg       tree.Merge
	R        utils.CMatrix
	h        utils.CVector
	luWa     *utils.CLU    // I - Ra33*Rb33
	luWb     *utils.CLU    // I - Rb33*Ra33
	Sa, Sb   utils.CMatrix // stacked ext incoming -> child interface incoming
	ta, tb   utils.CVector
	Ra33     utils.CMatrix
	Rb33     utils.CMatrix
	E3a, E3b utils.CMatrix // Ra13, Rb13
}

// nodeOps is the per-patch operator record: exactly one of the leaf or
// stage fields is populated. Stages run in merge-plan order; the last one
// holds the node's own boundary map.
type nodeOps struct {
	layout tree.Layout
	leaf   *leafDtN
	ileaf  *leafItI
	stages []*stageDtN
	istage []*stageItI
}

func (n *nodeOps) boundaryMap() (T utils.Matrix, h utils.Vector) {
	if n.leaf != nil {
		return n.leaf.T, n.leaf.h
	}
	last := n.stages[len(n.stages)-1]
	return last.T, last.h
}

func (n *nodeOps) boundaryMapItI() (R utils.CMatrix, h utils.CVector) {
	if n.ileaf != nil {
		return n.ileaf.R, n.ileaf.h
	}
	last := n.istage[len(n.istage)-1]
	return last.R, last.h
}

// Solver owns the operator hierarchy for one problem on one tree.
type Solver struct {
	cfg   Config
	tr    *tree.Tree
	pb    *pde.Problem
	ref   *element.Reference
	eta   float64
	ops   []*nodeOps
	state []State
	built bool
	mu    sync.Mutex // guards state transitions
}

// New prepares a solver; Build performs the upward pass.
func New(cfg Config, tr *tree.Tree, pb *pde.Problem) (s *Solver, err error) {
	if err = cfg.check(); err != nil {
		return
	}
	if err = pb.Check(tr.Dim); err != nil {
		return
	}
	var ref *element.Reference
	if ref, err = element.New(tr.Dim, cfg.P, cfg.Q); err != nil {
		return
	}
	s = &Solver{
		cfg: cfg,
		tr:  tr,
		pb:  pb,
		ref: ref,
		eta: pb.EtaOr(tr.Patches[tr.Root].Center()),
	}
	return
}

func (s *Solver) Reference() *element.Reference { return s.ref }
func (s *Solver) Tree() *tree.Tree              { return s.tr }

// NodeState reports the recomputation state of a patch.
func (s *Solver) NodeState(id tree.NodeID) State { return s.state[id] }

// Build runs the upward pass: local solves on all leaves, then merges
// level by level toward the root. Nodes within a level build in parallel.
func (s *Solver) Build() (err error) {
	s.ops = make([]*nodeOps, len(s.tr.Patches))
	s.state = make([]State, len(s.tr.Patches))
	if err = s.buildNodes(s.ops, s.tr.Leaves(), s.tr.Levels()); err != nil {
		s.ops = nil
		return
	}
	if !s.cfg.RetainOperators {
		for _, n := range s.ops {
			if n != nil {
				n.strip()
			}
		}
	}
	s.built = true
	return
}

// buildNodes populates dst for the given leaves and merge levels. The
// fused subtree path reuses it against a transient arena.
func (s *Solver) buildNodes(dst []*nodeOps, leaves []tree.NodeID, levels [][]tree.NodeID) (err error) {
	if err = s.parallelOver(leaves, func(id tree.NodeID) error {
		return s.buildLeaf(dst, id)
	}); err != nil {
		return
	}
	for _, level := range levels {
		if err = s.parallelOver(level, func(id tree.NodeID) error {
			return s.buildInternal(dst, id)
		}); err != nil {
			return
		}
	}
	return
}

// parallelOver splits ids across workers the way the flux kernels split
// element ranges, one partition per goroutine.
func (s *Solver) parallelOver(ids []tree.NodeID, f func(tree.NodeID) error) (err error) {
	if len(ids) == 0 {
		return
	}
	pm := utils.NewPartitionMap(s.cfg.workers(), len(ids))
	var (
		wg   sync.WaitGroup
		errs = make([]error, pm.ParallelDegree)
	)
	for np := 0; np < pm.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			imin, imax := pm.GetBucketRange(np)
			for i := imin; i < imax; i++ {
				if e := f(ids[i]); e != nil {
					errs[np] = e
					return
				}
			}
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			err = e
			return
		}
	}
	return
}

// mergePlan gives the staged pairwise merges of one internal node's
// children, x then y then z. Operand encoding: i >= 0 is child i, i < 0 is
// stage ~i.
func mergePlan(dim int) [][3]int {
	if dim == 2 {
		return [][3]int{
			{0, 1, 0},
			{2, 3, 0},
			{-1, -2, 1},
		}
	}
	return [][3]int{
		{0, 1, 0},
		{2, 3, 0},
		{4, 5, 0},
		{6, 7, 0},
		{-1, -2, 1},
		{-3, -4, 1},
		{-5, -6, 2},
	}
}

func (s *Solver) buildInternal(dst []*nodeOps, id tree.NodeID) (err error) {
	var (
		p    = &s.tr.Patches[id]
		plan = mergePlan(s.tr.Dim)
		node = &nodeOps{}
	)
	layoutOf := func(op int) tree.Layout {
		if op >= 0 {
			return dst[p.Children[op]].layout
		}
		if s.pb.Variant == pde.ItI {
			return node.istage[^op].mg.Parent
		}
		return node.stages[^op].mg.Parent
	}
	for _, st := range plan {
		var mg tree.Merge
		if mg, err = tree.NewMerge(layoutOf(st[0]), layoutOf(st[1]), st[2], s.ref); err != nil {
			err = nodeErr(id, p.Level, err)
			return
		}
		if s.pb.Variant == pde.ItI {
			if mg.Refined {
				err = nodeErr(id, p.Level, ErrPatchMismatch)
				return
			}
			Ra, ha := s.operandItI(dst, p, node, st[0])
			Rb, hb := s.operandItI(dst, p, node, st[1])
			var stg *stageItI
			if stg, err = s.mergeItI(mg, Ra, Rb, ha, hb); err != nil {
				err = nodeErr(id, p.Level, err)
				return
			}
			node.istage = append(node.istage, stg)
		} else {
			Ta, ha := s.operandDtN(dst, p, node, st[0])
			Tb, hb := s.operandDtN(dst, p, node, st[1])
			var stg *stageDtN
			if stg, err = s.mergeDtN(mg, Ta, Tb, ha, hb); err != nil {
				err = nodeErr(id, p.Level, err)
				return
			}
			node.stages = append(node.stages, stg)
		}
		node.layout = mg.Parent
	}
	dst[id] = node
	return
}

func (s *Solver) operandDtN(dst []*nodeOps, p *tree.Patch, node *nodeOps, op int) (utils.Matrix, utils.Vector) {
	if op >= 0 {
		return dst[p.Children[op]].boundaryMap()
	}
	stg := node.stages[^op]
	return stg.T, stg.h
}

func (s *Solver) operandItI(dst []*nodeOps, p *tree.Patch, node *nodeOps, op int) (utils.CMatrix, utils.CVector) {
	if op >= 0 {
		return dst[p.Children[op]].boundaryMapItI()
	}
	stg := node.istage[^op]
	return stg.R, stg.h
}

// strip drops the downward solve operators, leaving only the boundary
// maps.
func (n *nodeOps) strip() {
	if n.leaf != nil {
		n.leaf = &leafDtN{T: n.leaf.T, h: n.leaf.h}
	}
	if n.ileaf != nil {
		n.ileaf = &leafItI{R: n.ileaf.R, h: n.ileaf.h}
	}
	for i, st := range n.stages {
		n.stages[i] = &stageDtN{mg: st.mg, T: st.T, h: st.h}
	}
	for i, st := range n.istage {
		n.istage[i] = &stageItI{mg: st.mg, R: st.R, h: st.h}
	}
}

// RootMap returns the root patch's Dirichlet-to-Neumann map and particular
// flux in the root's canonical boundary ordering.
func (s *Solver) RootMap() (T utils.Matrix, h utils.Vector, err error) {
	if !s.built {
		err = ErrNotBuilt
		return
	}
	T, h = s.ops[s.tr.Root].boundaryMap()
	return
}

// RootMapItI is the impedance analog.
func (s *Solver) RootMapItI() (R utils.CMatrix, h utils.CVector, err error) {
	if !s.built {
		err = ErrNotBuilt
		return
	}
	R, h = s.ops[s.tr.Root].boundaryMapItI()
	return
}

// RootLayout describes the root boundary vector.
func (s *Solver) RootLayout() tree.Layout { return s.ops[s.tr.Root].layout }
