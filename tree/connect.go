package tree

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
)

// Validate checks that the leaf faces tile the domain conformally, each
// interior face fully covered by oppositely oriented neighbor faces and
// every other face lying on the domain boundary. Faces are rasterized onto
// finest-level tiles and matched through a sparse face-to-tile incidence
// product.
func (tr *Tree) Validate() (err error) {
	var (
		dim    = tr.Dim
		nfc    = 2 * dim
		leaves = tr.Leaves()
		root   = &tr.Patches[tr.Root]
		maxLv  int
	)
	for _, id := range leaves {
		if lv := tr.Patches[id].Level; lv > maxLv {
			maxLv = lv
		}
	}
	var (
		scale      = 1 << maxLv
		totalFaces = nfc * len(leaves)
		keys       = make(map[[4]int]int)
		faceTiles  = make([][]int, totalFaces)
		onBoundary = make([]bool, totalFaces)
	)
	// tile coordinate of x along axis a
	quant := func(x float64, a int) int {
		return int(math.Round((x - root.Lo[a]) / (root.Hi[a] - root.Lo[a]) * float64(scale)))
	}
	for li, id := range leaves {
		p := &tr.Patches[id]
		span := scale >> p.Level
		for f := 0; f < nfc; f++ {
			var (
				fa    = f / 2
				fi    = nfc*li + f
				plane int
			)
			if f%2 == 0 {
				plane = quant(p.Lo[fa], fa)
			} else {
				plane = quant(p.Hi[fa], fa)
			}
			onBoundary[fi] = plane == 0 || plane == scale
			tg := faceTangents(dim, f)
			t0 := quant(p.Lo[tg[0]], tg[0])
			n1 := span
			n2 := 1
			t1 := 0
			if dim == 3 {
				t1 = quant(p.Lo[tg[1]], tg[1])
				n2 = span
			}
			for j := 0; j < n2; j++ {
				for i := 0; i < n1; i++ {
					k := [4]int{fa, plane, t0 + i, t1 + j}
					col, ok := keys[k]
					if !ok {
						col = len(keys)
						keys[k] = col
					}
					faceTiles[fi] = append(faceTiles[fi], col)
				}
			}
		}
	}

	SpFToT := sparse.NewDOK(totalFaces, len(keys))
	for fi, tiles := range faceTiles {
		for _, col := range tiles {
			SpFToT.Set(fi, col, 1)
		}
	}
	SpFToF := sparse.NewCSR(totalFaces, totalFaces, nil, nil, nil)
	csr := SpFToT.ToCSR()
	SpFToF.Mul(csr, csr.T())

	for fi := 0; fi < totalFaces; fi++ {
		var matched float64
		for fj := 0; fj < totalFaces; fj++ {
			if fi == fj {
				continue
			}
			// only oppositely oriented faces of the same axis can abut
			if fi%2 == fj%2 || fi%nfc/2 != fj%nfc/2 {
				continue
			}
			matched += SpFToF.At(fi, fj)
		}
		var (
			own  = float64(len(faceTiles[fi]))
			leaf = leaves[fi/nfc]
		)
		switch {
		case onBoundary[fi]:
			if matched != 0 {
				err = fmt.Errorf("leaf %d face %d: %w: boundary face overlaps a neighbor",
					leaf, fi%nfc, ErrPatchMismatch)
				return
			}
		case matched != own:
			err = fmt.Errorf("leaf %d face %d: %w: covered %g of %g tiles",
				leaf, fi%nfc, ErrPatchMismatch, matched, own)
			return
		}
	}
	return
}
