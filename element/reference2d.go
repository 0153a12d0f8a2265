package element

import "github.com/meliao/ha-hps/utils"

// face numbering, shared with the tree package
const (
	FaceXmin = iota
	FaceXmax
	FaceYmin
	FaceYmax
	FaceZmin
	FaceZmax
)

func (ref *Reference) build2D() {
	var (
		p = ref.P
		q = ref.Q
	)
	ref.Npts = p * p
	ref.Nbc = 4 * (p - 1)
	ref.Nbg = 4 * q
	ref.buildPerm2D()
	ref.buildOps2D()
	ref.buildBoundaryMaps2D()
}

// buildPerm2D orders the grid boundary-first. A boundary point is assigned
// to its lowest-numbered containing face, so the four corners go to the
// X faces and the Y faces carry only their interior points. Within a face
// points run ascending along the tangential axis.
func (ref *Reference) buildPerm2D() {
	var (
		p  = ref.P
		id = func(i, j int) int { return i + p*j }
	)
	perm := make(utils.Index, 0, ref.Npts)
	for j := 0; j < p; j++ {
		perm = append(perm, id(0, j))
	}
	for j := 0; j < p; j++ {
		perm = append(perm, id(p-1, j))
	}
	for i := 1; i < p-1; i++ {
		perm = append(perm, id(i, 0))
	}
	for i := 1; i < p-1; i++ {
		perm = append(perm, id(i, p-1))
	}
	for j := 1; j < p-1; j++ {
		for i := 1; i < p-1; i++ {
			perm = append(perm, id(i, j))
		}
	}
	ref.BPerm = perm
}

// buildOps2D assembles the tensor-product operators on the reference square
// and permutes them to boundary-first ordering.
func (ref *Reference) buildOps2D() {
	var (
		p   = ref.P
		n   = ref.Npts
		d1  = ref.D1
		dx  = utils.NewMatrix(n, n)
		dy  = utils.NewMatrix(n, n)
		id  = func(i, j int) int { return i + p*j }
		eye = utils.NewIdentity(n)
	)
	for j := 0; j < p; j++ {
		for i := 0; i < p; i++ {
			for m := 0; m < p; m++ {
				dx.Set(id(i, j), id(m, j), d1.At(i, m))
				dy.Set(id(i, j), id(i, m), d1.At(j, m))
			}
		}
	}
	ref.ops = map[Term]utils.Matrix{
		TermDx:  ref.permuted(dx),
		TermDy:  ref.permuted(dy),
		TermDxx: ref.permuted(dx.Mul(dx)),
		TermDxy: ref.permuted(dy.Mul(dx)),
		TermDyy: ref.permuted(dy.Mul(dy)),
		TermI:   ref.permuted(eye),
	}
}

// permuted applies the boundary-first reordering to both rows and columns.
func (ref *Reference) permuted(M utils.Matrix) (R utils.Matrix) {
	n := len(ref.BPerm)
	R = utils.NewMatrix(n, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			R.Set(r, c, M.At(ref.BPerm[r], ref.BPerm[c]))
		}
	}
	return
}

func (ref *Reference) buildBoundaryMaps2D() {
	var (
		p   = ref.P
		q   = ref.Q
		d1  = ref.D1
		icg = ref.ICG
		igc = ref.IGC
		id  = func(i, j int) int { return i + p*j }
	)

	// Gauss panel data to Chebyshev boundary values. The boundary-first
	// index walks the faces in canonical order, so its face membership is
	// recoverable positionally. A corner row averages the interpolants of
	// both faces meeting there, so every Gauss panel reaches a full set of
	// Chebyshev rows and the map keeps rank 4q up to q = p-1.
	ref.Pmat = utils.NewMatrix(ref.Nbc, ref.Nbg)
	row := 0
	for j := 0; j < p; j++ { // Xmin, owns both corners
		w := 1.0
		if j == 0 || j == p-1 {
			w = 0.5
		}
		for t := 0; t < q; t++ {
			ref.Pmat.Set(row, t, w*igc.At(j, t))
		}
		row++
	}
	for j := 0; j < p; j++ { // Xmax
		w := 1.0
		if j == 0 || j == p-1 {
			w = 0.5
		}
		for t := 0; t < q; t++ {
			ref.Pmat.Set(row, q+t, w*igc.At(j, t))
		}
		row++
	}
	// Y-face halves of the four corner rows. Corner rows sit at the ends
	// of the X-face blocks; the tangential coordinate on a Y face is x.
	for t := 0; t < q; t++ {
		ref.Pmat.Set(0, 2*q+t, 0.5*igc.At(0, t))       // Xmin/Ymin
		ref.Pmat.Set(p-1, 3*q+t, 0.5*igc.At(0, t))     // Xmin/Ymax
		ref.Pmat.Set(p, 2*q+t, 0.5*igc.At(p-1, t))     // Xmax/Ymin
		ref.Pmat.Set(2*p-1, 3*q+t, 0.5*igc.At(p-1, t)) // Xmax/Ymax
	}
	for i := 1; i < p-1; i++ { // Ymin
		for t := 0; t < q; t++ {
			ref.Pmat.Set(row, 2*q+t, igc.At(i, t))
		}
		row++
	}
	for i := 1; i < p-1; i++ { // Ymax
		for t := 0; t < q; t++ {
			ref.Pmat.Set(row, 3*q+t, igc.At(i, t))
		}
		row++
	}

	// Outward normal derivative and trace at the Gauss boundary points,
	// built in tensor column order then permuted.
	var (
		qT = utils.NewMatrix(ref.Nbg, ref.Npts)
		eT = utils.NewMatrix(ref.Nbg, ref.Npts)
	)
	ref.Qaxis = make([]int, ref.Nbg)
	for t := 0; t < q; t++ {
		for m := 0; m < p; m++ {
			for j := 0; j < p; j++ {
				qT.Set(t, id(m, j), -d1.At(0, m)*icg.At(t, j))
				qT.Set(q+t, id(m, j), d1.At(p-1, m)*icg.At(t, j))
				qT.Set(2*q+t, id(j, m), -icg.At(t, j)*d1.At(0, m))
				qT.Set(3*q+t, id(j, m), icg.At(t, j)*d1.At(p-1, m))
			}
			eT.Set(t, id(0, m), icg.At(t, m))
			eT.Set(q+t, id(p-1, m), icg.At(t, m))
			eT.Set(2*q+t, id(m, 0), icg.At(t, m))
			eT.Set(3*q+t, id(m, p-1), icg.At(t, m))
		}
		ref.Qaxis[t] = 0
		ref.Qaxis[q+t] = 0
		ref.Qaxis[2*q+t] = 1
		ref.Qaxis[3*q+t] = 1
	}
	ref.Qref = ref.colPermuted(qT)
	ref.Eg = ref.colPermuted(eT)

	// Normal derivative at the Chebyshev boundary points, each point using
	// its owning face's normal.
	nc := utils.NewMatrix(ref.Nbc, ref.Npts)
	ref.NCaxis = make([]int, ref.Nbc)
	row = 0
	for j := 0; j < p; j++ {
		for m := 0; m < p; m++ {
			nc.Set(row, id(m, j), -d1.At(0, m))
		}
		ref.NCaxis[row] = 0
		row++
	}
	for j := 0; j < p; j++ {
		for m := 0; m < p; m++ {
			nc.Set(row, id(m, j), d1.At(p-1, m))
		}
		ref.NCaxis[row] = 0
		row++
	}
	for i := 1; i < p-1; i++ {
		for m := 0; m < p; m++ {
			nc.Set(row, id(i, m), -d1.At(0, m))
		}
		ref.NCaxis[row] = 1
		row++
	}
	for i := 1; i < p-1; i++ {
		for m := 0; m < p; m++ {
			nc.Set(row, id(i, m), d1.At(p-1, m))
		}
		ref.NCaxis[row] = 1
		row++
	}
	ref.NCref = ref.colPermuted(nc)
}

// colPermuted reorders only the columns into boundary-first ordering.
func (ref *Reference) colPermuted(M utils.Matrix) (R utils.Matrix) {
	nr, nc := M.Dims()
	R = utils.NewMatrix(nr, nc)
	for r := 0; r < nr; r++ {
		for c := 0; c < nc; c++ {
			R.Set(r, c, M.At(r, ref.BPerm[c]))
		}
	}
	return
}
