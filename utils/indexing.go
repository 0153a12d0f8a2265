package utils

// Index is an ordered list of integer positions into a matrix or vector.
// Boundary DOF bookkeeping throughout the solver is expressed with these.
type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

// NewRange returns [rmin, rmax) as an Index.
func NewRange(rmin, rmax int) (r Index) {
	r = make(Index, rmax-rmin)
	for i := range r {
		r[i] = rmin + i
	}
	return
}

func (I Index) Append(J Index) (r Index) {
	r = make(Index, 0, len(I)+len(J))
	r = append(r, I...)
	r = append(r, J...)
	return
}

func (I Index) Subset(J Index) (r Index) {
	r = make(Index, len(J))
	for i, ind := range J {
		r[i] = I[ind]
	}
	return
}

// Inverse returns the permutation J with J[I[k]] = k. I must be a
// permutation of 0..len(I)-1.
func (I Index) Inverse() (r Index) {
	r = NewIndex(len(I))
	for k, ind := range I {
		r[ind] = k
	}
	return
}
