// Package lobatto provides the Gauss-Lobatto reference nodes used for
// stable high-order nodal interpolation, plus the affine map from the
// reference interval [-1,1] onto a physical element.
package lobatto

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

var (
	mu    sync.Mutex
	cache = map[int][]float64{}
)

// Points returns the order+1 Gauss-Lobatto nodes on [-1,1], sorted and
// including both endpoints. Results are memoized per order; callers must
// not mutate the returned slice.
func Points(order int) []float64 {
	mu.Lock()
	defer mu.Unlock()
	if p, ok := cache[order]; ok {
		return p
	}
	p := gaussLobatto(order)
	cache[order] = p
	return p
}

// XPhys maps a reference coordinate in [-1,1] onto the element [a,b].
func XPhys(xref, a, b float64) float64 {
	return (a+b)/2 + xref*(b-a)/2
}

// gaussLobatto computes the Gauss-Lobatto nodes of order n, the zeros of
// (1-x^2)*P'_n(x): the interior Gauss-Jacobi(1,1) nodes bracketed by the
// interval endpoints.
func gaussLobatto(n int) []float64 {
	switch n {
	case 0:
		return []float64{0}
	case 1:
		return []float64{-1, 1}
	}
	xint, _ := jacobiGQ(1, 1, n-2)
	x := make([]float64, n+1)
	x[0] = -1
	copy(x[1:n], xint)
	x[n] = 1
	return x
}

// jacobiGQ computes the N+1 Gauss quadrature nodes and weights for the
// Jacobi polynomial P_N^{alpha,beta} by the Golub-Welsch method: the
// eigenvalues of the symmetric tridiagonal Jacobi matrix are the nodes,
// the squared first components of its eigenvectors give the weights.
func jacobiGQ(alpha, beta float64, N int) (x, w []float64) {
	if N == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2)}, []float64{2}
	}

	h1 := make([]float64, N+1)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}

	d0 := make([]float64, N+1)
	fac := beta*beta - alpha*alpha
	for i, v := range h1 {
		d0[i] = fac / (v * (v + 2))
	}
	// h1[0] = alpha+beta makes the first diagonal entry 0/0 for the
	// Legendre case; it is zero in the limit.
	if alpha+beta < 1e-15 {
		d0[0] = 0
	}

	d1 := make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		v := h1[i]
		d1[i] = 2 / (v + 2) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(v+1)/(v+3))
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(symTriDiagonal(d0, d1), true); !ok {
		panic("lobatto: eigenvalue decomposition failed")
	}
	x = eig.Values(nil)

	vecs := mat.NewDense(len(x), len(x), nil)
	eig.VectorsTo(vecs)
	w = make([]float64, len(x))
	g0 := gamma0(alpha, beta)
	for i := range w {
		v := vecs.At(0, i)
		w[i] = v * v * g0
	}
	return x, w
}

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1
	return math.Gamma(alpha+1) * math.Gamma(beta+1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func symTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	s := mat.NewSymDense(n, nil)
	for i, v := range d0 {
		s.SetSym(i, i, v)
	}
	for i, v := range d1 {
		s.SetSym(i, i+1, v)
	}
	return s
}
