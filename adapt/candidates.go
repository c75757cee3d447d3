package adapt

import "github.com/notargets/hp1d/mesh"

// Candidates returns the fixed set of local refinement layouts for a
// parent element (a, b, order): keep the element whole at order,
// order+1 or order+2, or split it at the midpoint with each half
// keeping or raising its order by one. Above order 1 the split variants
// that lower one half by one are offered as well; the guard keeps an
// order-1 element from producing a degenerate order-0 half.
func Candidates(a, b float64, order int) []mesh.Mesh1D {
	single := func(d int) mesh.Mesh1D {
		return mesh.MustNew([]float64{a, b}, []int{order + d})
	}
	split := func(dl, dr int) mesh.Mesh1D {
		mid := (a + b) / 2
		return mesh.MustNew([]float64{a, mid, b}, []int{order + dl, order + dr})
	}

	cands := []mesh.Mesh1D{
		single(0), single(1), single(2),
		split(0, 0), split(1, 0), split(0, 1), split(1, 1),
	}
	if order > 1 {
		// Lowering one half still net-refines through the split.
		cands = append(cands, split(-1, 0), split(0, -1), split(-1, -1))
	}
	return cands
}
