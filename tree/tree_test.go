package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meliao/ha-hps/element"
	"github.com/meliao/ha-hps/utils"
)

func TestUniform(t *testing.T) {
	tr, err := NewUniform(2, 2, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	assert.NoError(t, err)
	assert.Equal(t, 16, len(tr.Leaves()))
	assert.Equal(t, 21, len(tr.Patches))

	// children are ordered low/high per axis
	kids := tr.Patches[tr.Root].Children
	assert.Equal(t, 4, len(kids))
	c0 := &tr.Patches[kids[0]]
	c3 := &tr.Patches[kids[3]]
	assert.Equal(t, [3]float64{0, 0, 0}, c0.Lo)
	assert.Equal(t, [3]float64{0.5, 0.5, 0}, c0.Hi)
	assert.Equal(t, [3]float64{0.5, 0.5, 0}, c3.Lo)
	assert.Equal(t, [3]float64{1, 1, 0}, c3.Hi)

	// merges run deepest level first
	lv := tr.Levels()
	assert.Equal(t, 2, len(lv))
	assert.Equal(t, 4, len(lv[0]))
	assert.Equal(t, 1, len(lv[1]))

	assert.NoError(t, tr.Validate())

	tr3, err := NewUniform(3, 1, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	assert.NoError(t, err)
	assert.Equal(t, 8, len(tr3.Leaves()))
	assert.NoError(t, tr3.Validate())
}

func TestAdaptiveValidate(t *testing.T) {
	tr, err := New(2, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	assert.NoError(t, err)
	kids, err := tr.Subdivide(tr.Root)
	assert.NoError(t, err)
	// refine one quadrant, a balanced two-to-one configuration
	_, err = tr.Subdivide(kids[0])
	assert.NoError(t, err)
	assert.Equal(t, 7, len(tr.Leaves()))
	assert.NoError(t, tr.Validate())
}

func TestLeafLayout(t *testing.T) {
	l := NewLeafLayout(2, 4, [3]float64{0, 0, 0}, [3]float64{0.5, 1, 0})
	assert.Equal(t, 16, l.N)
	assert.Equal(t, utils.NewRange(8, 12), l.FaceIndex(element.FaceYmin))
	// x faces run along y, y faces along x
	assert.Equal(t, []Span{{0, 1}}, l.Faces[element.FaceXmin].Pan)
	assert.Equal(t, []Span{{0, 0.5}}, l.Faces[element.FaceYmax].Pan)

	l3 := NewLeafLayout(3, 3, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	assert.Equal(t, 54, l3.N)
	assert.Equal(t, 9, l3.Faces[element.FaceZmax].N())
}

func TestMergeConforming2D(t *testing.T) {
	var (
		q      = 4
		a      = NewLeafLayout(2, q, [3]float64{0, 0, 0}, [3]float64{0.5, 1, 0})
		b      = NewLeafLayout(2, q, [3]float64{0.5, 0, 0}, [3]float64{1, 1, 0})
		ref, _ = element.New(2, 6, q)
	)
	m, err := NewMerge(a, b, 0, ref)
	assert.NoError(t, err)
	assert.False(t, m.Refined)
	assert.Equal(t, q, m.N3)
	assert.True(t, m.UpA.IsEmpty())
	assert.Equal(t, q, len(m.ShA))
	assert.Equal(t, 3*q, len(m.ExtA))
	assert.Equal(t, 6*q, m.Parent.N)
	// parent keeps a's low face and b's high face at full width, and the
	// y faces doubled
	assert.Equal(t, q, m.Parent.Faces[element.FaceXmin].N())
	assert.Equal(t, 2*q, m.Parent.Faces[element.FaceYmin].N())
	assert.Equal(t, []Span{{0, 0.5}, {0.5, 1}}, m.Parent.Faces[element.FaceYmin].Pan)

	// the permutation is a bijection over the stacked exterior
	seen := make(map[int]bool)
	for _, s := range m.Perm {
		assert.False(t, seen[s])
		seen[s] = true
	}
	assert.Equal(t, 6*q, len(seen))

	// a concrete spot check: the parent Ymin face is a's Ymin then b's
	pOff := m.Parent.Faces[element.FaceYmin].Off
	assert.Equal(t, len(m.ExtA)-2*q, m.Perm[pOff])       // a Ymin start
	assert.Equal(t, 3*q+len(m.ExtB)-2*q, m.Perm[pOff+q]) // b Ymin start
}

func TestMergeRefined2D(t *testing.T) {
	var (
		q      = 4
		coarse = NewLeafLayout(2, q, [3]float64{0, 0, 0}, [3]float64{0.5, 1, 0})
		fLo    = NewLeafLayout(2, q, [3]float64{0.5, 0, 0}, [3]float64{1, 0.5, 0})
		fHi    = NewLeafLayout(2, q, [3]float64{0.5, 0.5, 0}, [3]float64{1, 1, 0})
		m2, _  = element.New(2, 6, q)
	)
	// the fine side is itself a merged pair, its shared x face two panels
	fa, err := NewMerge(fLo, fHi, 1, m2)
	assert.NoError(t, err)
	m, err := NewMerge(coarse, fa.Parent, 0, m2)
	assert.NoError(t, err)
	assert.True(t, m.Refined)
	assert.Equal(t, 2*q, m.N3)
	assert.True(t, m.UpB.IsEmpty())
	nrUp, ncUp := m.UpA.Dims()
	assert.Equal(t, 2*q, nrUp)
	assert.Equal(t, q, ncUp)

	// refine then restrict reproduces smooth panel data
	u := utils.NewVector(q)
	for i, g := range m2.G {
		u.Set(i, g*g-g)
	}
	back := m.DnA.MulVec(m.UpA.MulVec(u))
	for i := 0; i < q; i++ {
		assert.InDelta(t, u.AtVec(i), back.AtVec(i), 1.e-11)
	}
}

func TestMergeMismatch(t *testing.T) {
	var (
		a      = NewLeafLayout(2, 4, [3]float64{0, 0, 0}, [3]float64{0.5, 1, 0})
		b      = NewLeafLayout(2, 5, [3]float64{0.5, 0, 0}, [3]float64{1, 1, 0})
		ref, _ = element.New(2, 6, 4)
	)
	_, err := NewMerge(a, b, 0, ref)
	assert.ErrorIs(t, err, ErrPatchMismatch)

	// shifted neighbor, faces do not line up
	c := NewLeafLayout(2, 4, [3]float64{0.5, 0.25, 0}, [3]float64{1, 1.25, 0})
	_, err = NewMerge(a, c, 0, ref)
	assert.ErrorIs(t, err, ErrPatchMismatch)

	// a refined octree neighbor is rejected, 3D merges must conform
	var (
		q       = 3
		ref3, _ = element.New(3, 5, q)
		fa      = NewLeafLayout(3, q, [3]float64{0.5, 0, 0}, [3]float64{1, 0.5, 1})
		fb      = NewLeafLayout(3, q, [3]float64{0.5, 0.5, 0}, [3]float64{1, 1, 1})
		coarse  = NewLeafLayout(3, q, [3]float64{0, 0, 0}, [3]float64{0.5, 1, 1})
	)
	fm, err := NewMerge(fa, fb, 1, ref3)
	assert.NoError(t, err)
	_, err = NewMerge(coarse, fm.Parent, 0, ref3)
	assert.ErrorIs(t, err, ErrPatchMismatch)
}

func TestMerge3D(t *testing.T) {
	var (
		q      = 3
		a      = NewLeafLayout(3, q, [3]float64{0, 0, 0}, [3]float64{0.5, 1, 1})
		ref, _ = element.New(3, 5, q)
	)
	mx, err := NewMerge(a, a, 0, ref)
	assert.NoError(t, err)
	// x faces keep q^2, the others double along x
	assert.Equal(t, q*q, mx.Parent.Faces[element.FaceXmin].N())
	assert.Equal(t, 2*q*q, mx.Parent.Faces[element.FaceYmin].N())
	assert.Equal(t, 2*q*q, mx.Parent.Faces[element.FaceZmin].N())
	// on the y faces x is the fast tangential, rows interleave
	assert.Equal(t, 2*q, mx.Parent.Faces[element.FaceYmin].N1)
	assert.Equal(t, q, mx.Parent.Faces[element.FaceYmin].N2)
	// on the z faces x is also fast
	assert.Equal(t, 2*q, mx.Parent.Faces[element.FaceZmin].N1)

	// a subsequent y merge of two such parents concatenates along z faces
	my, err := NewMerge(mx.Parent, mx.Parent, 1, ref)
	assert.NoError(t, err)
	assert.Equal(t, 2*q, my.Parent.Faces[element.FaceZmin].N1)
	assert.Equal(t, 2*q, my.Parent.Faces[element.FaceZmin].N2)
	assert.Equal(t, 16*q*q, my.Parent.N)
}
