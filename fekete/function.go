// Package fekete represents piecewise-polynomial functions by their
// nodal values at mapped Gauss-Lobatto (Fekete) points on a Mesh1D.
package fekete

import (
	"fmt"
	"math"

	"github.com/notargets/gocfd/utils"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/notargets/hp1d/lobatto"
	"github.com/notargets/hp1d/mesh"
)

// Function is an immutable piecewise polynomial on a Mesh1D. Element i
// holds order_i+1 nodal values at the mapped Lobatto points. The
// interpolating monomial coefficients of every element are solved for
// once at construction; evaluation is a pure read and safe to share
// between goroutines.
type Function struct {
	mesh   mesh.Mesh1D
	values [][]float64
	coeffs [][]float64 // highest degree first, one row per element
}

// FromSampling builds a Function by evaluating f at every element's
// mapped Lobatto points. This samples pointwise only; the result is not
// an L2 projection of f.
func FromSampling(f func(float64) float64, m mesh.Mesh1D) *Function {
	values := make([][]float64, 0, m.NumElements())
	for e := range m.Elements() {
		refs := lobatto.Points(e.Order)
		vals := make([]float64, len(refs))
		for i, r := range refs {
			vals[i] = f(lobatto.XPhys(r, e.Left, e.Right))
		}
		values = append(values, vals)
	}
	return newFunction(values, m)
}

// FromValues builds a Function from precomputed nodal values, one slice
// of order_i+1 values per element.
func FromValues(values [][]float64, m mesh.Mesh1D) (*Function, error) {
	if len(values) != m.NumElements() {
		return nil, fmt.Errorf("fekete: %d value groups for %d elements: %w",
			len(values), m.NumElements(), mesh.ErrStructuralMismatch)
	}
	copied := make([][]float64, len(values))
	for i := range values {
		if want := m.Elem(i).Order + 1; len(values[i]) != want {
			return nil, fmt.Errorf("fekete: element %d has %d values, want %d: %w",
				i, len(values[i]), want, mesh.ErrStructuralMismatch)
		}
		copied[i] = append([]float64(nil), values[i]...)
	}
	return newFunction(copied, m), nil
}

// newFunction takes ownership of values, whose lengths must already match
// the mesh.
func newFunction(values [][]float64, m mesh.Mesh1D) *Function {
	f := &Function{mesh: m, values: values}
	f.coeffs = make([][]float64, m.NumElements())
	for i := range f.coeffs {
		e := m.Elem(i)
		f.coeffs[i] = interpCoeffs(values[i], e.Left, e.Right)
	}
	return f
}

// interpCoeffs solves the monomial-basis Vandermonde system for the
// unique degree n-1 polynomial through n nodal values at the mapped
// Lobatto points of [a,b]. Coefficients come back highest degree first.
// The system grows ill-conditioned at high order; that is inherent to
// this representation and left alone. A singular system panics inside
// the solve, a fatal numerical error.
func interpCoeffs(values []float64, a, b float64) []float64 {
	n := len(values)
	A := utils.NewMatrix(n, n)
	y := utils.NewMatrix(n, 1)
	refs := lobatto.Points(n - 1)
	for i := 0; i < n; i++ {
		x := lobatto.XPhys(refs[i], a, b)
		p := 1.0
		for j := n - 1; j >= 0; j-- {
			A.Set(i, j, p)
			p *= x
		}
		y.Set(i, 0, values[i])
	}
	c := A.LUSolve(y)

	out := make([]float64, n)
	for j := range out {
		out[j] = c.At(j, 0)
	}
	return out
}

// Mesh returns the mesh the function lives on.
func (f *Function) Mesh() mesh.Mesh1D { return f.mesh }

// Eval evaluates the function at x, which must not lie right of the
// mesh. At a shared breakpoint the element ending there is used.
func (f *Function) Eval(x float64) float64 {
	i := f.mesh.ElementAt(x)
	if i < 0 {
		panic(fmt.Sprintf("fekete: %v lies right of the mesh", x))
	}
	r := 0.0
	for _, c := range f.coeffs[i] {
		r = r*x + c
	}
	return r
}

// ProjectOnto resamples f at the target mesh's mapped Lobatto points.
// This matches pointwise values only, it is not the variationally
// optimal L2 projection.
func (f *Function) ProjectOnto(m mesh.Mesh1D) *Function {
	return FromSampling(f.Eval, m)
}

// RestrictToInterval returns the function on its mesh restricted to
// [A,B].
func (f *Function) RestrictToInterval(A, B float64) (*Function, error) {
	sub, err := f.mesh.Restrict(A, B)
	if err != nil {
		return nil, err
	}
	return FromSampling(f.Eval, sub), nil
}

// Add returns f+o. On equal meshes the nodal values combine directly;
// otherwise both operands are projected onto the mesh union first.
func (f *Function) Add(o *Function) *Function {
	if f.mesh.Equal(o.mesh) {
		values := make([][]float64, len(f.values))
		for i := range f.values {
			row := make([]float64, len(f.values[i]))
			for j := range row {
				row[j] = f.values[i][j] + o.values[i][j]
			}
			values[i] = row
		}
		return newFunction(values, f.mesh)
	}
	u := f.mesh.Union(o.mesh)
	return f.ProjectOnto(u).Add(o.ProjectOnto(u))
}

// Sub returns f-o.
func (f *Function) Sub(o *Function) *Function {
	return f.Add(o.Neg())
}

// Neg returns -f.
func (f *Function) Neg() *Function {
	values := make([][]float64, len(f.values))
	for i := range f.values {
		row := make([]float64, len(f.values[i]))
		for j := range row {
			row[j] = -f.values[i][j]
		}
		values[i] = row
	}
	return newFunction(values, f.mesh)
}

// Equal samples both operands at each mesh's own mapped Lobatto points
// and requires pointwise agreement within GeomEps in both directions.
// One direction is not enough: differing layouts can coincide at one
// operand's points alone.
func (f *Function) Equal(o *Function) bool {
	agree := func(m mesh.Mesh1D) bool {
		for e := range m.Elements() {
			for _, r := range lobatto.Points(e.Order) {
				x := lobatto.XPhys(r, e.Left, e.Right)
				if math.Abs(f.Eval(x)-o.Eval(x)) > mesh.GeomEps {
					return false
				}
			}
		}
		return true
	}
	return agree(f.mesh) && agree(o.mesh)
}

// L2Norm returns the integral of value^2 over the whole mesh, summed per
// element with a Gauss-Legendre rule sized to the local order, which is
// exact for the piecewise-polynomial integrand.
func (f *Function) L2Norm() float64 {
	total := 0.0
	for e := range f.mesh.Elements() {
		sq := func(x float64) float64 {
			v := f.Eval(x)
			return v * v
		}
		total += quad.Fixed(sq, e.Left, e.Right, e.Order+2, quad.Legendre{}, 0)
	}
	return total
}

// DOFs counts the global degrees of freedom of a continuous
// piecewise-polynomial space on this mesh: shared element endpoints
// count once.
func (f *Function) DOFs() int {
	n := 1
	for e := range f.mesh.Elements() {
		n += e.Order
	}
	return n
}
