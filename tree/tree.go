// Package tree maintains the spatial decomposition of the domain into a
// quadtree or octree of box patches, plus the index bookkeeping that aligns
// patch boundaries during pairwise merges.
package tree

import (
	"errors"
	"fmt"
)

// ErrPatchMismatch reports two patch boundaries that cannot be conformed,
// neither equal nor in a two-to-one refinement relation.
var ErrPatchMismatch = errors.New("patch boundary mismatch")

type NodeID int

const NoNode NodeID = -1

// Patch is one axis-aligned box of the decomposition. Children, when
// present, are ordered c = ix + 2*iy + 4*iz over the low/high split of
// each axis.
type Patch struct {
	ID       NodeID
	Parent   NodeID
	Children []NodeID
	Level    int
	Lo, Hi   [3]float64
}

func (p *Patch) IsLeaf() bool { return len(p.Children) == 0 }

func (p *Patch) H() (h [3]float64) {
	for a := 0; a < 3; a++ {
		h[a] = p.Hi[a] - p.Lo[a]
	}
	return
}

func (p *Patch) Center() (c [3]float64) {
	for a := 0; a < 3; a++ {
		c[a] = (p.Lo[a] + p.Hi[a]) / 2
	}
	return
}

// Tree is an arena of patches rooted at Root. Node IDs index Patches
// directly and never move.
type Tree struct {
	Dim     int
	Patches []Patch
	Root    NodeID
}

// New creates a tree whose root is the single leaf [lo, hi].
func New(dim int, lo, hi [3]float64) (tr *Tree, err error) {
	if dim != 2 && dim != 3 {
		err = fmt.Errorf("unsupported dimension %d", dim)
		return
	}
	for a := 0; a < dim; a++ {
		if hi[a] <= lo[a] {
			err = fmt.Errorf("empty domain extent on axis %d", a)
			return
		}
	}
	if dim == 2 {
		lo[2], hi[2] = 0, 0
	}
	tr = &Tree{Dim: dim}
	tr.Patches = append(tr.Patches, Patch{ID: 0, Parent: NoNode, Lo: lo, Hi: hi})
	return
}

// NewUniform builds a fully refined tree of the given depth, 4^depth leaves
// in 2D and 8^depth in 3D.
func NewUniform(dim, depth int, lo, hi [3]float64) (tr *Tree, err error) {
	if tr, err = New(dim, lo, hi); err != nil {
		return
	}
	frontier := []NodeID{tr.Root}
	for d := 0; d < depth; d++ {
		var next []NodeID
		for _, id := range frontier {
			var kids []NodeID
			if kids, err = tr.Subdivide(id); err != nil {
				return
			}
			next = append(next, kids...)
		}
		frontier = next
	}
	return
}

// Subdivide splits a leaf into its 2^dim children.
func (tr *Tree) Subdivide(id NodeID) (kids []NodeID, err error) {
	p := &tr.Patches[id]
	if !p.IsLeaf() {
		err = fmt.Errorf("node %d is already subdivided", id)
		return
	}
	var (
		c  = p.Center()
		lo = p.Lo
		hi = p.Hi
		lv = p.Level
		n  = 1 << tr.Dim
	)
	kids = make([]NodeID, n)
	for ci := 0; ci < n; ci++ {
		var clo, chi [3]float64
		for a := 0; a < 3; a++ {
			if a >= tr.Dim {
				continue
			}
			if ci>>a&1 == 0 {
				clo[a], chi[a] = lo[a], c[a]
			} else {
				clo[a], chi[a] = c[a], hi[a]
			}
		}
		kid := NodeID(len(tr.Patches))
		tr.Patches = append(tr.Patches, Patch{
			ID: kid, Parent: id, Level: lv + 1, Lo: clo, Hi: chi,
		})
		kids[ci] = kid
	}
	// reacquire, the append may have moved the arena
	tr.Patches[id].Children = kids
	return
}

func (tr *Tree) Leaves() (ids []NodeID) {
	for i := range tr.Patches {
		if tr.Patches[i].IsLeaf() {
			ids = append(ids, tr.Patches[i].ID)
		}
	}
	return
}

// Levels groups the internal nodes by level, deepest first, the order in
// which merges must run so that children are always built before their
// parent.
func (tr *Tree) Levels() (levels [][]NodeID) {
	var maxLv int
	for i := range tr.Patches {
		if tr.Patches[i].Level > maxLv {
			maxLv = tr.Patches[i].Level
		}
	}
	byLv := make([][]NodeID, maxLv+1)
	for i := range tr.Patches {
		p := &tr.Patches[i]
		if !p.IsLeaf() {
			byLv[p.Level] = append(byLv[p.Level], p.ID)
		}
	}
	for lv := maxLv; lv >= 0; lv-- {
		if len(byLv[lv]) != 0 {
			levels = append(levels, byLv[lv])
		}
	}
	return
}

// Descendants returns id and everything below it.
func (tr *Tree) Descendants(id NodeID) (ids []NodeID) {
	stack := []NodeID{id}
	for len(stack) != 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, n)
		stack = append(stack, tr.Patches[n].Children...)
	}
	return
}

// PathToRoot returns the ancestor chain starting at id's parent.
func (tr *Tree) PathToRoot(id NodeID) (ids []NodeID) {
	for n := tr.Patches[id].Parent; n != NoNode; n = tr.Patches[n].Parent {
		ids = append(ids, n)
	}
	return
}
