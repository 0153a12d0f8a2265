package tree

import (
	"github.com/meliao/ha-hps/element"
	"github.com/meliao/ha-hps/utils"
)

// Span is one Gauss panel's extent along a face's tangential axis.
type Span struct {
	Lo, Hi float64
}

func (s Span) mid() float64 { return (s.Lo + s.Hi) / 2 }

// FaceSeg locates one face's block inside a patch boundary vector. N1
// counts points along the fast tangential axis, N2 along the slow one
// (N2 is 1 in 2D). The block occupies [Off, Off+N1*N2). In 2D, Pan lists
// the q-point panels making up the face in traversal order; panels of
// different widths occur next to two-to-one refinements.
type FaceSeg struct {
	Off, N1, N2 int
	Pan         []Span
}

func (s FaceSeg) N() int { return s.N1 * s.N2 }

// Layout describes the boundary vector of a patch: canonical face blocks
// Xmin, Xmax, Ymin, Ymax (, Zmin, Zmax), each traversed ascending with the
// lower tangential axis fastest.
type Layout struct {
	Dim, N int
	Faces  [6]FaceSeg
}

// NewLeafLayout is the layout of the leaf [lo, hi] with q Gauss points per
// face dimension, one panel per face in 2D.
func NewLeafLayout(dim, q int, lo, hi [3]float64) (l Layout) {
	l.Dim = dim
	var n1, n2 int
	if dim == 2 {
		n1, n2 = q, 1
	} else {
		n1, n2 = q, q
	}
	off := 0
	for f := 0; f < 2*dim; f++ {
		l.Faces[f] = FaceSeg{Off: off, N1: n1, N2: n2}
		if dim == 2 {
			tg := faceTangents(dim, f)[0]
			l.Faces[f].Pan = []Span{{Lo: lo[tg], Hi: hi[tg]}}
		}
		off += n1 * n2
	}
	l.N = off
	return
}

// FaceIndex gives the boundary vector indices of face f.
func (l Layout) FaceIndex(f int) utils.Index {
	s := l.Faces[f]
	return utils.NewRange(s.Off, s.Off+s.N())
}

// tangential axes of a face, ascending
func faceTangents(dim, f int) (t []int) {
	fa := f / 2
	for a := 0; a < dim; a++ {
		if a != fa {
			t = append(t, a)
		}
	}
	return
}

// Merge carries the index maps of one pairwise merge: A is the low box and
// B the high box along Axis. ShA/ShB select each child's shared face; ExtA/
// ExtB the exterior remainder in canonical face order. Perm maps parent
// boundary positions into the stacked [extA; extB] vector.
//
// The interface unknowns live on the union panelization of the two shared
// faces, refining every coarse panel that meets a two-to-one neighbor. UpA
// interpolates A's shared face data onto it and DnA restricts back; empty
// matrices mean the face already is at union resolution. N3 counts the
// union points.
type Merge struct {
	Axis   int
	ShA    utils.Index
	ShB    utils.Index
	ExtA   utils.Index
	ExtB   utils.Index
	Perm   utils.Index
	Parent Layout

	N3       int
	Refined  bool
	UpA, DnA utils.Matrix
	UpB, DnB utils.Matrix
}

// NewMerge aligns the boundaries of layouts a and b for a merge along the
// given axis and derives the parent layout. ref supplies the refinement
// and coarsening panel operators for two-to-one interfaces.
func NewMerge(a, b Layout, axis int, ref *element.Reference) (m Merge, err error) {
	var (
		dim = a.Dim
		fa  = 2*axis + 1
		fb  = 2 * axis
		sa  = a.Faces[fa]
		sb  = b.Faces[fb]
	)
	m.Axis = axis
	m.ShA = a.FaceIndex(fa)
	m.ShB = b.FaceIndex(fb)
	if dim == 3 {
		// 3D interfaces must conform exactly; two-to-one octree
		// refinement is not supported
		if sa.N1 != sb.N1 || sa.N2 != sb.N2 {
			err = ErrPatchMismatch
			return
		}
		m.N3 = sa.N()
	} else {
		if sa.N() != len(sa.Pan)*ref.Q || sb.N() != len(sb.Pan)*ref.Q {
			err = ErrPatchMismatch
			return
		}
		if m.N3, m.Refined, m.UpA, m.DnA, m.UpB, m.DnB, err = alignPanels(sa.Pan, sb.Pan, ref); err != nil {
			return
		}
	}

	m.ExtA = extIndex(a, fa)
	m.ExtB = extIndex(b, fb)

	// parent faces in canonical order, each built from one or two child
	// face segments in parent traversal order
	type part struct {
		base  int // offset into the stacked ext vector
		seg   FaceSeg
		byRow bool // interleaved per slow row with the other part
	}
	var (
		nExtA = len(m.ExtA)
		offA  = extOffsets(a, fa, 0)
		offB  = extOffsets(b, fb, nExtA)
		parts = make([][]part, 2*dim)
		off   = 0
	)
	for f := 0; f < 2*dim; f++ {
		switch {
		case f == fb: // low face of the merge axis, all A
			parts[f] = []part{{base: offA[f], seg: a.Faces[f]}}
		case f == fa: // high face, all B
			parts[f] = []part{{base: offB[f], seg: b.Faces[f]}}
		default:
			tg := faceTangents(dim, f)
			interleave := tg[0] == axis
			if interleave {
				if a.Faces[f].N2 != b.Faces[f].N2 {
					err = ErrPatchMismatch
					return
				}
			} else if dim == 3 && a.Faces[f].N1 != b.Faces[f].N1 {
				err = ErrPatchMismatch
				return
			}
			parts[f] = []part{
				{base: offA[f], seg: a.Faces[f], byRow: interleave},
				{base: offB[f], seg: b.Faces[f], byRow: interleave},
			}
		}
	}

	m.Parent.Dim = dim
	for f := 0; f < 2*dim; f++ {
		ps := parts[f]
		seg := FaceSeg{Off: off, N1: ps[0].seg.N1, N2: ps[0].seg.N2}
		seg.Pan = append(seg.Pan, ps[0].seg.Pan...)
		if len(ps) == 2 {
			if ps[0].byRow {
				seg.N1 += ps[1].seg.N1
			} else {
				seg.N2 += ps[1].seg.N2
			}
			seg.Pan = append(seg.Pan, ps[1].seg.Pan...)
		}
		if ps[0].byRow {
			// per slow row: A's fast run then B's
			for t := 0; t < seg.N2; t++ {
				for _, p := range ps {
					for s := 0; s < p.seg.N1; s++ {
						m.Perm = append(m.Perm, p.base+s+p.seg.N1*t)
					}
				}
			}
		} else {
			for _, p := range ps {
				for i := 0; i < p.seg.N(); i++ {
					m.Perm = append(m.Perm, p.base+i)
				}
			}
		}
		m.Parent.Faces[f] = seg
		off += seg.N()
	}
	m.Parent.N = off
	return
}

// alignPanels reconciles the two sides of a shared face onto their union
// panelization. Where one side's panel spans exactly two of the other's,
// that side is interpolated through the two-to-one refinement operators;
// deeper disparities are rejected.
func alignPanels(pa, pb []Span, ref *element.Reference) (n3 int, refined bool, upA, dnA, upB, dnB utils.Matrix, err error) {
	if len(pa) == 0 || len(pb) == 0 ||
		pa[0].Lo != pb[0].Lo || pa[len(pa)-1].Hi != pb[len(pb)-1].Hi {
		err = ErrPatchMismatch
		return
	}
	// walk both panel lists; true marks a coarse panel feeding two union
	// panels
	var (
		splitsA, splitsB []bool
		i, j             = 0, 0
		nFine            = 0
	)
	for i < len(pa) && j < len(pb) {
		switch {
		case pa[i] == pb[j]:
			splitsA = append(splitsA, false)
			splitsB = append(splitsB, false)
			nFine++
			i++
			j++
		case pa[i].Lo == pb[j].Lo && pa[i].Hi > pb[j].Hi:
			// a coarse over two b panels
			if j+1 >= len(pb) || pb[j].Hi != pa[i].mid() || pb[j+1].Hi != pa[i].Hi {
				err = ErrPatchMismatch
				return
			}
			splitsA = append(splitsA, true)
			splitsB = append(splitsB, false, false)
			nFine += 2
			i++
			j += 2
		case pa[i].Lo == pb[j].Lo && pb[j].Hi > pa[i].Hi:
			if i+1 >= len(pa) || pa[i].Hi != pb[j].mid() || pa[i+1].Hi != pb[j].Hi {
				err = ErrPatchMismatch
				return
			}
			splitsA = append(splitsA, false, false)
			splitsB = append(splitsB, true)
			nFine += 2
			i += 2
			j++
		default:
			err = ErrPatchMismatch
			return
		}
	}
	if i != len(pa) || j != len(pb) {
		err = ErrPatchMismatch
		return
	}
	q := ref.Q
	n3 = nFine * q
	splitA, splitB := false, false
	for _, s := range splitsA {
		splitA = splitA || s
	}
	for _, s := range splitsB {
		splitB = splitB || s
	}
	refined = splitA || splitB
	if splitA {
		upA, dnA = panelInterp(ref, splitsA, n3)
	}
	if splitB {
		upB, dnB = panelInterp(ref, splitsB, n3)
	}
	return
}

// panelInterp builds the side-to-union interpolation (up) and its
// restriction (dn) from the side's panel actions: identity blocks for
// matching panels, refinement blocks where a coarse panel meets two union
// panels.
func panelInterp(ref *element.Reference, splits []bool, n3 int) (up, dn utils.Matrix) {
	var (
		q    = ref.Q
		nOwn = len(splits) * q
	)
	up = utils.NewMatrix(n3, nOwn)
	dn = utils.NewMatrix(nOwn, n3)
	var rf, ro int // fine and own point offsets
	for _, split := range splits {
		if !split {
			for i := 0; i < q; i++ {
				up.Set(rf+i, ro+i, 1)
				dn.Set(ro+i, rf+i, 1)
			}
			rf += q
			ro += q
			continue
		}
		for i := 0; i < 2*q; i++ {
			for j := 0; j < q; j++ {
				up.Set(rf+i, ro+j, ref.RefM.At(i, j))
			}
		}
		for i := 0; i < q; i++ {
			for j := 0; j < 2*q; j++ {
				dn.Set(ro+i, rf+j, ref.CrsM.At(i, j))
			}
		}
		rf += 2 * q
		ro += q
	}
	return
}

// extIndex lists a layout's boundary indices with face skip removed, in
// canonical face order.
func extIndex(l Layout, skip int) (I utils.Index) {
	for f := 0; f < 2*l.Dim; f++ {
		if f == skip {
			continue
		}
		I = I.Append(l.FaceIndex(f))
	}
	return
}

// extOffsets gives, per face, the offset of that face's block inside the
// stacked exterior vector, shifted by base.
func extOffsets(l Layout, skip, base int) (off [6]int) {
	at := base
	for f := 0; f < 2*l.Dim; f++ {
		if f == skip {
			off[f] = -1
			continue
		}
		off[f] = at
		at += l.Faces[f].N()
	}
	return
}
