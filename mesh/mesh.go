// Package mesh implements an immutable ordered partition of a real
// interval into elements with per-element polynomial orders, together
// with the mesh algebra (restriction, union, candidate substitution)
// that hp-adaptive refinement is built on.
package mesh

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"sort"
)

// Tolerances shared by every coordinate comparison in this module.
// Mixing different tolerances between lookup and geometry silently breaks
// union/equality/restriction, so all packages use these two.
const (
	// NodeEps is the tolerance for exact-node lookup.
	NodeEps = 1e-10
	// GeomEps is the tolerance for breakpoint equality, dedup and clipping.
	GeomEps = 1e-12
)

var (
	// ErrStructuralMismatch reports a points/orders length violation.
	ErrStructuralMismatch = errors.New("points vs orders mismatch")
	// ErrNodeNotFound reports a failed exact-coordinate node lookup.
	ErrNodeNotFound = errors.New("node not found")
	// ErrUnsupportedGeometry reports a boundary configuration the clipping
	// logic does not cover.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
)

// Element is one sub-interval of a Mesh1D with its polynomial order.
type Element struct {
	Left, Right float64
	Order       int
}

// Mesh1D is an immutable ordered partition of an interval. The breakpoints
// are strictly increasing and every element carries a polynomial order.
// All operations return fresh meshes; none mutate the receiver.
type Mesh1D struct {
	points []float64
	orders []int
}

// New builds a mesh from breakpoints and per-element orders. It requires
// len(points) == len(orders)+1 with at least two points; the breakpoints
// must be strictly increasing (relied upon, not checked).
func New(points []float64, orders []int) (Mesh1D, error) {
	if len(points) < 2 || len(points) != len(orders)+1 {
		return Mesh1D{}, fmt.Errorf("mesh: %d points for %d orders: %w",
			len(points), len(orders), ErrStructuralMismatch)
	}
	return Mesh1D{
		points: append([]float64(nil), points...),
		orders: append([]int(nil), orders...),
	}, nil
}

// MustNew is New for meshes known valid at the call site.
func MustNew(points []float64, orders []int) Mesh1D {
	m, err := New(points, orders)
	if err != nil {
		panic(err)
	}
	return m
}

// NumElements returns the element count.
func (m Mesh1D) NumElements() int { return len(m.orders) }

// Elem returns element i.
func (m Mesh1D) Elem(i int) Element {
	return Element{Left: m.points[i], Right: m.points[i+1], Order: m.orders[i]}
}

// Elements iterates the elements left to right. The sequence is
// restartable.
func (m Mesh1D) Elements() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for i := range m.orders {
			if !yield(m.Elem(i)) {
				return
			}
		}
	}
}

// Points returns a copy of the breakpoints.
func (m Mesh1D) Points() []float64 { return append([]float64(nil), m.points...) }

// Orders returns a copy of the per-element orders.
func (m Mesh1D) Orders() []int { return append([]int(nil), m.orders...) }

// ElementAt returns the index of the first element whose right bound is
// >= x, scanning left to right. An x equal to a shared breakpoint thus
// lands in the element ending there. Returns -1 when x lies right of the
// whole mesh by more than NodeEps.
func (m Mesh1D) ElementAt(x float64) int {
	for i := range m.orders {
		if m.points[i+1] < x {
			continue
		}
		return i
	}
	// Mapping a reference node onto a non-dyadic element can overshoot
	// the final breakpoint by an ulp; within NodeEps the point still
	// belongs to the last element.
	if math.Abs(x-m.points[len(m.points)-1]) < NodeEps {
		return len(m.orders) - 1
	}
	return -1
}

// NodeIndex returns the index of the breakpoint equal to x within NodeEps.
func (m Mesh1D) NodeIndex(x float64) (int, error) {
	for i, p := range m.points {
		if math.Abs(p-x) < NodeEps {
			return i, nil
		}
	}
	return 0, fmt.Errorf("mesh: no node at %v: %w", x, ErrNodeNotFound)
}

// Restrict returns the sub-mesh covering exactly [A,B], A < B, clipping
// the first and last overlapping elements to the boundary. Cut points
// that are neither aligned with an existing breakpoint (within GeomEps)
// nor strictly interior to the boundary element in the expected direction
// are unsupported.
func (m Mesh1D) Restrict(A, B float64) (Mesh1D, error) {
	if B <= A {
		return Mesh1D{}, fmt.Errorf("mesh: restrict to [%v,%v]: %w", A, B, ErrUnsupportedGeometry)
	}
	n1 := m.ElementAt(A)
	n2 := m.ElementAt(B)
	if n1 < 0 || n2 < 0 {
		return Mesh1D{}, fmt.Errorf("mesh: restrict to [%v,%v] outside mesh: %w", A, B, ErrUnsupportedGeometry)
	}

	var points []float64
	var orders []int

	// First element: dropped entirely when it collapses onto the left
	// boundary, clipped to A otherwise.
	e := m.Elem(n1)
	a, b := e.Left, e.Right
	if math.Abs(b-A) >= GeomEps {
		switch {
		case math.Abs(a-A) < GeomEps:
		case a < A:
			a = A
		default:
			return Mesh1D{}, fmt.Errorf("mesh: cut %v left of element [%v,%v]: %w",
				A, e.Left, e.Right, ErrUnsupportedGeometry)
		}
		points = append(points, a)
		orders = append(orders, e.Order)
	}

	for n := n1 + 1; n < n2; n++ {
		points = append(points, m.points[n])
		orders = append(orders, m.orders[n])
	}

	// Last element, which may coincide with the first.
	e = m.Elem(n2)
	a, b = e.Left, e.Right
	switch {
	case math.Abs(a-A) < GeomEps:
	case a < A:
		a = A
	}
	switch {
	case math.Abs(b-B) < GeomEps:
	case B < b:
		b = B
	default:
		return Mesh1D{}, fmt.Errorf("mesh: cut %v right of element [%v,%v]: %w",
			B, e.Left, e.Right, ErrUnsupportedGeometry)
	}
	if len(points) == 0 || math.Abs(points[len(points)-1]-a) >= GeomEps {
		points = append(points, a)
		orders = append(orders, e.Order)
	}
	points = append(points, b)

	return New(points, orders)
}

// Union merges the breakpoint sets of both meshes (dedup within GeomEps)
// and assigns each resulting sub-interval the larger of the two source
// orders at its midpoint. This is an order envelope, not a structural
// union of polynomial spaces. Both meshes must cover the same interval.
func (m Mesh1D) Union(o Mesh1D) Mesh1D {
	merged := make([]float64, 0, len(m.points)+len(o.points))
	merged = append(merged, m.points...)
	merged = append(merged, o.points...)
	sort.Float64s(merged)

	points := []float64{merged[0]}
	for _, p := range merged[1:] {
		if math.Abs(points[len(points)-1]-p) < GeomEps {
			continue
		}
		points = append(points, p)
	}

	orders := make([]int, len(points)-1)
	for i := range orders {
		mid := (points[i] + points[i+1]) / 2
		i1 := m.ElementAt(mid)
		i2 := o.ElementAt(mid)
		if i1 < 0 || i2 < 0 {
			panic(fmt.Sprintf("mesh: union operands do not both cover %v", mid))
		}
		orders[i] = max(m.orders[i1], o.orders[i2])
	}

	u, err := New(points, orders)
	if err != nil {
		panic(err)
	}
	return u
}

// UseCandidate replaces the elements between the candidate's first and
// last breakpoints with the candidate's elements. Both candidate
// endpoints must be existing nodes of m.
func (m Mesh1D) UseCandidate(cand Mesh1D) (Mesh1D, error) {
	n1, err := m.NodeIndex(cand.points[0])
	if err != nil {
		return Mesh1D{}, err
	}
	n2, err := m.NodeIndex(cand.points[len(cand.points)-1])
	if err != nil {
		return Mesh1D{}, err
	}

	points := append([]float64(nil), m.points[:n1]...)
	points = append(points, cand.points...)
	points = append(points, m.points[n2+1:]...)

	orders := append([]int(nil), m.orders[:n1]...)
	orders = append(orders, cand.orders...)
	orders = append(orders, m.orders[n2:]...)

	return New(points, orders)
}

// Equal reports whether both meshes have identical order sequences and
// breakpoints equal within GeomEps. No merging or splitting
// normalization is attempted.
func (m Mesh1D) Equal(o Mesh1D) bool {
	if len(m.orders) != len(o.orders) {
		return false
	}
	for i, ord := range m.orders {
		if ord != o.orders[i] {
			return false
		}
	}
	for i, p := range m.points {
		if math.Abs(p-o.points[i]) >= GeomEps {
			return false
		}
	}
	return true
}
