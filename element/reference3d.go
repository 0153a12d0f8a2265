package element

import "github.com/meliao/ha-hps/utils"

func (ref *Reference) build3D() {
	var (
		p = ref.P
		q = ref.Q
	)
	ref.Npts = p * p * p
	ref.Nbc = p*p*p - (p-2)*(p-2)*(p-2)
	ref.Nbg = 6 * q * q
	ref.buildPerm3D()
	ref.buildOps3D()
	ref.buildBoundaryMaps3D()
}

// buildPerm3D mirrors the 2D ordering. Edge and corner points go to the
// lowest-numbered containing face, so the X faces are full p x p sheets,
// the Y faces lose their X-adjacent columns and the Z faces keep only
// their interior. Faces are traversed with the lower tangential axis
// running fastest.
func (ref *Reference) buildPerm3D() {
	var (
		p  = ref.P
		id = func(i, j, k int) int { return i + p*j + p*p*k }
	)
	perm := make(utils.Index, 0, ref.Npts)
	for k := 0; k < p; k++ {
		for j := 0; j < p; j++ {
			perm = append(perm, id(0, j, k))
		}
	}
	for k := 0; k < p; k++ {
		for j := 0; j < p; j++ {
			perm = append(perm, id(p-1, j, k))
		}
	}
	for k := 0; k < p; k++ {
		for i := 1; i < p-1; i++ {
			perm = append(perm, id(i, 0, k))
		}
	}
	for k := 0; k < p; k++ {
		for i := 1; i < p-1; i++ {
			perm = append(perm, id(i, p-1, k))
		}
	}
	for j := 1; j < p-1; j++ {
		for i := 1; i < p-1; i++ {
			perm = append(perm, id(i, j, 0))
		}
	}
	for j := 1; j < p-1; j++ {
		for i := 1; i < p-1; i++ {
			perm = append(perm, id(i, j, p-1))
		}
	}
	for k := 1; k < p-1; k++ {
		for j := 1; j < p-1; j++ {
			for i := 1; i < p-1; i++ {
				perm = append(perm, id(i, j, k))
			}
		}
	}
	ref.BPerm = perm
}

func (ref *Reference) buildOps3D() {
	var (
		p  = ref.P
		n  = ref.Npts
		d1 = ref.D1
		dx = utils.NewMatrix(n, n)
		dy = utils.NewMatrix(n, n)
		dz = utils.NewMatrix(n, n)
		id = func(i, j, k int) int { return i + p*j + p*p*k }
	)
	for k := 0; k < p; k++ {
		for j := 0; j < p; j++ {
			for i := 0; i < p; i++ {
				for m := 0; m < p; m++ {
					dx.Set(id(i, j, k), id(m, j, k), d1.At(i, m))
					dy.Set(id(i, j, k), id(i, m, k), d1.At(j, m))
					dz.Set(id(i, j, k), id(i, j, m), d1.At(k, m))
				}
			}
		}
	}
	ref.ops = map[Term]utils.Matrix{
		TermDx:  ref.permuted(dx),
		TermDy:  ref.permuted(dy),
		TermDz:  ref.permuted(dz),
		TermDxx: ref.permuted(dx.Mul(dx)),
		TermDyy: ref.permuted(dy.Mul(dy)),
		TermDzz: ref.permuted(dz.Mul(dz)),
		TermDxy: ref.permuted(dy.Mul(dx)),
		TermDxz: ref.permuted(dz.Mul(dx)),
		TermDyz: ref.permuted(dz.Mul(dy)),
		TermI:   ref.permuted(utils.NewIdentity(n)),
	}
}

func (ref *Reference) buildBoundaryMaps3D() {
	var (
		p   = ref.P
		q   = ref.Q
		d1  = ref.D1
		icg = ref.ICG
		igc = ref.IGC
		id  = func(i, j, k int) int { return i + p*j + p*p*k }
		q2  = q * q
	)

	// Per-face tensor Gauss panels: fast tangential s, slow tangential t,
	// panel index s + q*t, face offset face*q*q. A row on a shared edge or
	// corner averages the interpolants of every face meeting there, keeping
	// the map full rank up to q = p-1.
	ref.Pmat = utils.NewMatrix(ref.Nbc, ref.Nbg)
	for row := 0; row < ref.Nbc; row++ {
		pt := ref.BPerm[row]
		var (
			i = pt % p
			j = (pt / p) % p
			k = pt / (p * p)
		)
		var faces [][3]int // face, fast tangential, slow tangential
		if i == 0 {
			faces = append(faces, [3]int{FaceXmin, j, k})
		}
		if i == p-1 {
			faces = append(faces, [3]int{FaceXmax, j, k})
		}
		if j == 0 {
			faces = append(faces, [3]int{FaceYmin, i, k})
		}
		if j == p-1 {
			faces = append(faces, [3]int{FaceYmax, i, k})
		}
		if k == 0 {
			faces = append(faces, [3]int{FaceZmin, i, j})
		}
		if k == p-1 {
			faces = append(faces, [3]int{FaceZmax, i, j})
		}
		w := 1.0 / float64(len(faces))
		for _, f := range faces {
			for t := 0; t < q; t++ {
				for s := 0; s < q; s++ {
					ref.Pmat.Set(row, f[0]*q2+s+q*t, w*igc.At(f[1], s)*igc.At(f[2], t))
				}
			}
		}
	}

	var (
		qT = utils.NewMatrix(ref.Nbg, ref.Npts)
		eT = utils.NewMatrix(ref.Nbg, ref.Npts)
	)
	ref.Qaxis = make([]int, ref.Nbg)
	for t := 0; t < q; t++ {
		for s := 0; s < q; s++ {
			gp := s + q*t
			for b := 0; b < p; b++ {
				for a := 0; a < p; a++ {
					w := icg.At(s, a) * icg.At(t, b)
					for m := 0; m < p; m++ {
						qT.Set(FaceXmin*q2+gp, id(m, a, b), -w*d1.At(0, m))
						qT.Set(FaceXmax*q2+gp, id(m, a, b), w*d1.At(p-1, m))
						qT.Set(FaceYmin*q2+gp, id(a, m, b), -w*d1.At(0, m))
						qT.Set(FaceYmax*q2+gp, id(a, m, b), w*d1.At(p-1, m))
						qT.Set(FaceZmin*q2+gp, id(a, b, m), -w*d1.At(0, m))
						qT.Set(FaceZmax*q2+gp, id(a, b, m), w*d1.At(p-1, m))
					}
					eT.Set(FaceXmin*q2+gp, id(0, a, b), w)
					eT.Set(FaceXmax*q2+gp, id(p-1, a, b), w)
					eT.Set(FaceYmin*q2+gp, id(a, 0, b), w)
					eT.Set(FaceYmax*q2+gp, id(a, p-1, b), w)
					eT.Set(FaceZmin*q2+gp, id(a, b, 0), w)
					eT.Set(FaceZmax*q2+gp, id(a, b, p-1), w)
				}
			}
			for f := 0; f < 6; f++ {
				ref.Qaxis[f*q2+gp] = f / 2
			}
		}
	}
	ref.Qref = ref.colPermuted(qT)
	ref.Eg = ref.colPermuted(eT)

	nc := utils.NewMatrix(ref.Nbc, ref.Npts)
	ref.NCaxis = make([]int, ref.Nbc)
	row := 0
	setN := func(row, axis, sign int, fill func(m int) int) {
		for m := 0; m < p; m++ {
			var d float64
			if sign < 0 {
				d = -d1.At(0, m)
			} else {
				d = d1.At(p-1, m)
			}
			nc.Set(row, fill(m), d)
		}
		ref.NCaxis[row] = axis
	}
	for k := 0; k < p; k++ {
		for j := 0; j < p; j++ {
			jj, kk := j, k
			setN(row, 0, -1, func(m int) int { return id(m, jj, kk) })
			row++
		}
	}
	for k := 0; k < p; k++ {
		for j := 0; j < p; j++ {
			jj, kk := j, k
			setN(row, 0, 1, func(m int) int { return id(m, jj, kk) })
			row++
		}
	}
	for k := 0; k < p; k++ {
		for i := 1; i < p-1; i++ {
			ii, kk := i, k
			setN(row, 1, -1, func(m int) int { return id(ii, m, kk) })
			row++
		}
	}
	for k := 0; k < p; k++ {
		for i := 1; i < p-1; i++ {
			ii, kk := i, k
			setN(row, 1, 1, func(m int) int { return id(ii, m, kk) })
			row++
		}
	}
	for j := 1; j < p-1; j++ {
		for i := 1; i < p-1; i++ {
			ii, jj := i, j
			setN(row, 2, -1, func(m int) int { return id(ii, jj, m) })
			row++
		}
	}
	for j := 1; j < p-1; j++ {
		for i := 1; i < p-1; i++ {
			ii, jj := i, j
			setN(row, 2, 1, func(m int) int { return id(ii, jj, m) })
			row++
		}
	}
	ref.NCref = ref.colPermuted(nc)
}
