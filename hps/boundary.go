package hps

import (
	"sort"

	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

// BoundaryPoints returns the physical coordinates of a node's boundary
// Gauss points in its canonical boundary ordering: face blocks in face
// order, each face's points ascending along the slow then the fast
// tangential axis, matching the merge interleaving.
func (s *Solver) BoundaryPoints(id tree.NodeID) (pts [][3]float64) {
	var (
		node = &s.tr.Patches[id]
		dim  = s.tr.Dim
		q    = s.cfg.Q
	)
	for f := 0; f < 2*dim; f++ {
		var (
			fa    = f / 2
			plane float64
			tg    []int
		)
		if f%2 == 0 {
			plane = node.Lo[fa]
		} else {
			plane = node.Hi[fa]
		}
		for a := 0; a < dim; a++ {
			if a != fa {
				tg = append(tg, a)
			}
		}
		type bp struct {
			slow, fast float64
			x          [3]float64
		}
		var face []bp
		for _, d := range s.tr.Descendants(id) {
			p := &s.tr.Patches[d]
			if !p.IsLeaf() {
				continue
			}
			var (
				c = p.Center()
				h = p.H()
			)
			if f%2 == 0 && p.Lo[fa] != plane || f%2 == 1 && p.Hi[fa] != plane {
				continue
			}
			n2 := 1
			if dim == 3 {
				n2 = q
			}
			for t := 0; t < n2; t++ {
				for fs := 0; fs < q; fs++ {
					var x [3]float64
					x[fa] = plane
					x[tg[0]] = c[tg[0]] + s.ref.G[fs]*h[tg[0]]/2
					slow := 0.
					if dim == 3 {
						x[tg[1]] = c[tg[1]] + s.ref.G[t]*h[tg[1]]/2
						slow = x[tg[1]]
					}
					face = append(face, bp{slow: slow, fast: x[tg[0]], x: x})
				}
			}
		}
		sort.Slice(face, func(i, j int) bool {
			if face[i].slow != face[j].slow {
				return face[i].slow < face[j].slow
			}
			return face[i].fast < face[j].fast
		})
		for _, b := range face {
			pts = append(pts, b.x)
		}
	}
	return
}

// SampleBoundary evaluates f at the node's boundary points.
func (s *Solver) SampleBoundary(id tree.NodeID, f func(x, y, z float64) float64) (g utils.Vector) {
	pts := s.BoundaryPoints(id)
	g = utils.NewVector(len(pts))
	for i, x := range pts {
		g.Set(i, f(x[0], x[1], x[2]))
	}
	return
}

// SampleBoundaryC is the complex analog, used for incoming impedance data.
func (s *Solver) SampleBoundaryC(id tree.NodeID, f func(x, y, z float64) complex128) (g utils.CVector) {
	pts := s.BoundaryPoints(id)
	g = utils.NewCVector(len(pts))
	for i, x := range pts {
		g[i] = f(x[0], x[1], x[2])
	}
	return
}

// GridPoints returns a leaf's collocation points in tensor ordering, the
// ordering of Solution leaf vectors.
func (s *Solver) GridPoints(id tree.NodeID) (pts [][3]float64) {
	var (
		p   = &s.tr.Patches[id]
		ref = s.ref
		c   = p.Center()
		h   = p.H()
	)
	pts = make([][3]float64, ref.Npts)
	for m := range pts {
		var ix [3]int
		ix[0] = m % ref.P
		ix[1] = m / ref.P % ref.P
		if s.tr.Dim == 3 {
			ix[2] = m / (ref.P * ref.P)
		}
		for a := 0; a < s.tr.Dim; a++ {
			pts[m][a] = c[a] + ref.R[ix[a]]*h[a]/2
		}
	}
	return
}
