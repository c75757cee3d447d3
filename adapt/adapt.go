// Package adapt decides how to refine a mesh that approximates a
// reference function: for every element it scores a fixed set of local
// refinement candidates by error reduction per degree of freedom spent
// and applies the best one.
package adapt

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/notargets/hp1d/fekete"
	"github.com/notargets/hp1d/mesh"
)

// ErrDerefinement is returned when a candidate would spend fewer DOFs
// than the element it replaces. Derefinement is not implemented.
var ErrDerefinement = errors.New("derefinement not implemented")

// Scores assigned to equal-DOF candidates: a strictly better
// approximation at the same cost is always taken, anything else is
// discarded.
const (
	acceptScore = -1e10
	rejectScore = 1e10
)

// Scored pairs a candidate layout with its merit score and the index of
// the parent element it refines. Lower scores are better.
type Scored struct {
	Mesh  mesh.Mesh1D
	Score float64
	Elem  int
}

// Score rates one candidate layout for the element e of approx's mesh
// against the reference function ref. Equal-DOF candidates score
// acceptScore when strictly more accurate and rejectScore otherwise;
// candidates that add DOFs score the slope of the log-error versus
// sqrt-DOF convergence curve, where steeper negative means more error
// removed per DOF added.
func Score(approx, ref *fekete.Function, e mesh.Element, cand mesh.Mesh1D) (float64, error) {
	orig, err := approx.RestrictToInterval(e.Left, e.Right)
	if err != nil {
		return 0, err
	}
	local, err := ref.RestrictToInterval(e.Left, e.Right)
	if err != nil {
		return 0, err
	}
	trial := fekete.FromSampling(ref.Eval, cand)

	dofCand := trial.DOFs()
	dofOrig := orig.DOFs()
	errCand := local.Sub(trial).L2Norm()
	errOrig := local.Sub(orig).L2Norm()

	switch {
	case dofCand == dofOrig:
		if errCand < errOrig {
			return acceptScore, nil
		}
		return rejectScore, nil
	case dofCand > dofOrig:
		// A candidate reproducing the reference exactly outranks every
		// finite slope.
		if errCand == 0 {
			return math.Inf(-1), nil
		}
		return (math.Log(errCand) - math.Log(errOrig)) / math.Sqrt(float64(dofCand-dofOrig)), nil
	default:
		return 0, fmt.Errorf("adapt: candidate spends %d DOFs against %d: %w",
			dofCand, dofOrig, ErrDerefinement)
	}
}

// Rank scores every candidate of every element of approx's mesh against
// the reference function ref and returns all of them sorted best first.
func Rank(approx, ref *fekete.Function) ([]Scored, error) {
	m := approx.Mesh()
	var out []Scored
	for i := 0; i < m.NumElements(); i++ {
		e := m.Elem(i)
		for _, cand := range Candidates(e.Left, e.Right, e.Order) {
			score, err := Score(approx, ref, e, cand)
			if err != nil {
				return nil, err
			}
			out = append(out, Scored{Mesh: cand, Score: score, Elem: i})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score < out[b].Score })
	return out, nil
}

// Step evaluates every candidate for every element and applies the
// single best one, returning the refined mesh.
func Step(approx, ref *fekete.Function) (mesh.Mesh1D, error) {
	ranked, err := Rank(approx, ref)
	if err != nil {
		return mesh.Mesh1D{}, err
	}
	return approx.Mesh().UseCandidate(ranked[0].Mesh)
}

// Options bound the adaptive loop. Zero values leave a bound unset,
// except MaxSteps which defaults to 100.
type Options struct {
	TargetError float64 // stop once the approximation error drops below this
	MaxDOFs     int     // stop before the approximation would exceed this
	MaxSteps    int
}

// Run repeatedly applies Step, resampling ref onto each refined mesh,
// until a bound in opts is reached. It returns the final mesh and the
// approximation of ref on it.
func Run(ref *fekete.Function, m0 mesh.Mesh1D, opts Options) (mesh.Mesh1D, *fekete.Function, error) {
	steps := opts.MaxSteps
	if steps == 0 {
		steps = 100
	}
	m := m0
	approx := ref.ProjectOnto(m)
	for i := 0; i < steps; i++ {
		if opts.TargetError > 0 && approx.Sub(ref).L2Norm() < opts.TargetError {
			break
		}
		next, err := Step(approx, ref)
		if err != nil {
			return mesh.Mesh1D{}, nil, err
		}
		trial := ref.ProjectOnto(next)
		if opts.MaxDOFs > 0 && trial.DOFs() > opts.MaxDOFs {
			break
		}
		m = next
		approx = trial
	}
	return m, approx, nil
}
