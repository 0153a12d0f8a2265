package element

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/meliao/ha-hps/utils"
)

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}

// JacobiP evaluates the orthonormal Jacobi polynomial of order N at the
// points r, by the standard three-term recurrence.
func JacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = len(r)
	)
	rg := 1. / math.Sqrt(gamma0(alpha, beta))
	p = make([]float64, Nc)
	if N == 0 {
		for i := range p {
			p[i] = rg
		}
		return
	}
	ab := alpha + beta
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	pPrev := make([]float64, Nc)
	pCur := make([]float64, Nc)
	for i := 0; i < Nc; i++ {
		pPrev[i] = rg
		pCur[i] = rg1 * ((ab+2.0)*r[i]/2.0 + (alpha-beta)/2.0)
	}
	if N == 1 {
		copy(p, pCur)
		return
	}
	a1 := alpha + 1.
	b1 := beta + 1.
	ab1 := ab + 1.
	aold := 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
	for i := 0; i < N-1; i++ {
		ip1 := float64(i + 1)
		ip2 := ip1 + 1
		h1 := 2.0*ip1 + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt(ip2*(ip1+ab1)*(ip1+a1)*(ip1+b1)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		for j := 0; j < Nc; j++ {
			pPrev[j], pCur[j] = pCur[j], ((r[j]-bnew)*pCur[j]-aold*pPrev[j])/anew
		}
		aold = anew
	}
	copy(p, pCur)
	return
}

// GradJacobiP evaluates the derivative of the orthonormal Jacobi polynomial
// of order N at the points r.
func GradJacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	if N == 0 {
		p = make([]float64, len(r))
		return
	}
	p = JacobiP(r, alpha+1, beta+1, N-1)
	fN := float64(N)
	fac := math.Sqrt(fN * (fN + alpha + beta + 1))
	for i, val := range p {
		p[i] = val * fac
	}
	return
}

// Vandermonde builds the generalized Vandermonde matrix with columns
// P_0(r) .. P_{n-1}(r) in the orthonormal Legendre basis.
func Vandermonde(r []float64, n int) (V utils.Matrix) {
	V = utils.NewMatrix(len(r), n)
	for j := 0; j < n; j++ {
		V.SetCol(j, JacobiP(r, 0, 0, j))
	}
	return
}

// GradVandermonde is the derivative companion of Vandermonde.
func GradVandermonde(r []float64, n int) (Vr utils.Matrix) {
	Vr = utils.NewMatrix(len(r), n)
	for j := 0; j < n; j++ {
		Vr.SetCol(j, GradJacobiP(r, 0, 0, j))
	}
	return
}

// DiffMatrix returns the spectral differentiation matrix on the nodes r:
// D = Vr V^{-1}, so (D u)_i is the derivative at r_i of the interpolating
// polynomial through (r, u).
func DiffMatrix(r []float64) (D utils.Matrix) {
	var (
		n   = len(r)
		V   = Vandermonde(r, n)
		Vr  = GradVandermonde(r, n)
		err error
		Vt  utils.Matrix
	)
	// D = Vr V^{-1}  <=>  D V = Vr  <=>  V^T D^T = Vr^T
	if Vt, err = utils.Solve(V.Transpose(), Vr.Transpose()); err != nil {
		panic(err)
	}
	D = Vt.Transpose()
	return
}

// InterpMatrix returns the matrix mapping nodal values on src to the values
// of the interpolating polynomial at tgt. Exact for polynomials of degree
// less than len(src).
func InterpMatrix(src, tgt []float64) (A utils.Matrix) {
	var (
		n   = len(src)
		Vs  = Vandermonde(src, n)
		Vt  = Vandermonde(tgt, n)
		err error
		X   utils.Matrix
	)
	// A = Vt Vs^{-1}
	if X, err = utils.Solve(Vs.Transpose(), Vt.Transpose()); err != nil {
		panic(err)
	}
	A = X.Transpose()
	return
}

// ChebyshevNodes returns the p Chebyshev points of the second kind on
// [-1, 1] in ascending order.
func ChebyshevNodes(p int) (r []float64) {
	r = make([]float64, p)
	for i := 0; i < p; i++ {
		r[i] = -math.Cos(math.Pi * float64(i) / float64(p-1))
	}
	// pin the endpoints
	r[0] = -1
	r[p-1] = 1
	return
}

// GaussNodes returns the q-point Legendre-Gauss nodes and weights on
// [-1, 1], ascending, via the symmetric tridiagonal eigenvalue problem.
func GaussNodes(q int) (x, w []float64) {
	if q == 1 {
		return []float64{0}, []float64{2}
	}
	var (
		d0 = make([]float64, q)
		d1 = make([]float64, q-1)
	)
	for i := 0; i < q-1; i++ {
		ip1 := float64(i + 1)
		h1 := 2 * float64(i)
		d1[i] = 2. / (h1 + 2.) * math.Sqrt(ip1*ip1*ip1*ip1/((h1+1.)*(h1+3.)))
	}
	JJ := mat.NewSymDense(q, nil)
	for i := 0; i < q; i++ {
		JJ.SetSym(i, i, d0[i])
		if i < q-1 {
			JJ.SetSym(i, i+1, d1[i])
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	x = eig.Values(nil)
	VVr := mat.NewDense(q, q, nil)
	eig.VectorsTo(VVr)
	w = make([]float64, q)
	for i := 0; i < q; i++ {
		v := VVr.At(0, i)
		w[i] = v * v * gamma0(0, 0)
	}
	return
}
