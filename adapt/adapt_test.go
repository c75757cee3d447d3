package adapt

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/hp1d/fekete"
	"github.com/notargets/hp1d/mesh"
)

func TestCandidatesOrderOne(t *testing.T) {
	cands := Candidates(0, 2, 1)
	require.Len(t, cands, 7)

	assert.True(t, cands[0].Equal(mesh.MustNew([]float64{0, 2}, []int{1})))
	assert.True(t, cands[1].Equal(mesh.MustNew([]float64{0, 2}, []int{2})))
	assert.True(t, cands[2].Equal(mesh.MustNew([]float64{0, 2}, []int{3})))
	assert.True(t, cands[3].Equal(mesh.MustNew([]float64{0, 1, 2}, []int{1, 1})))
	assert.True(t, cands[4].Equal(mesh.MustNew([]float64{0, 1, 2}, []int{2, 1})))
	assert.True(t, cands[5].Equal(mesh.MustNew([]float64{0, 1, 2}, []int{1, 2})))
	assert.True(t, cands[6].Equal(mesh.MustNew([]float64{0, 1, 2}, []int{2, 2})))
}

func TestCandidatesOrderDecrease(t *testing.T) {
	cands := Candidates(-1, 3, 2)
	require.Len(t, cands, 10)

	// Splits happen at the element midpoint.
	for _, c := range cands[3:] {
		assert.InDelta(t, 1, c.Points()[1], 1e-14)
	}
	assert.True(t, cands[7].Equal(mesh.MustNew([]float64{-1, 1, 3}, []int{1, 2})))
	assert.True(t, cands[8].Equal(mesh.MustNew([]float64{-1, 1, 3}, []int{2, 1})))
	assert.True(t, cands[9].Equal(mesh.MustNew([]float64{-1, 1, 3}, []int{1, 1})))

	// No degenerate order-0 halves from order-1 parents.
	for _, c := range Candidates(-1, 3, 1) {
		for _, o := range c.Orders() {
			assert.Greater(t, o, 0)
		}
	}
}

func TestScoreEqualDOFAccept(t *testing.T) {
	// Reference with a kink at 0.1, exactly representable on its mesh.
	kink := func(x float64) float64 { return math.Abs(x - 0.1) }
	ref := fekete.FromSampling(kink, mesh.MustNew([]float64{-1, 0.1, 1}, []int{1, 1}))
	approx := ref.ProjectOnto(mesh.MustNew([]float64{-1, 1}, []int{2}))
	e := approx.Mesh().Elem(0)

	// Two linear halves spend the same three DOFs as one quadratic but
	// track the kink better: always accepted.
	cand := mesh.MustNew([]float64{-1, 0, 1}, []int{1, 1})
	score, err := Score(approx, ref, e, cand)
	require.NoError(t, err)
	assert.Equal(t, acceptScore, score)

	// The unchanged layout is never an improvement.
	same := mesh.MustNew([]float64{-1, 1}, []int{2})
	score, err = Score(approx, ref, e, same)
	require.NoError(t, err)
	assert.Equal(t, rejectScore, score)
}

func TestScoreConvergenceSlope(t *testing.T) {
	ref := fekete.FromSampling(math.Exp, mesh.MustNew([]float64{-1, 1}, []int{8}))
	approx := ref.ProjectOnto(mesh.MustNew([]float64{-1, 1}, []int{2}))
	e := approx.Mesh().Elem(0)

	orig, err := approx.RestrictToInterval(e.Left, e.Right)
	require.NoError(t, err)
	local, err := ref.RestrictToInterval(e.Left, e.Right)
	require.NoError(t, err)
	errOrig := local.Sub(orig).L2Norm()

	// A raised-order candidate scores the log-error slope per sqrt DOF.
	cand := mesh.MustNew([]float64{-1, 1}, []int{3})
	trial := fekete.FromSampling(ref.Eval, cand)
	errCand := local.Sub(trial).L2Norm()
	want := (math.Log(errCand) - math.Log(errOrig)) / math.Sqrt(1)

	score, err := Score(approx, ref, e, cand)
	require.NoError(t, err)
	assert.InDelta(t, want, score, 1e-12)
	assert.Less(t, score, 0.0, "raising the order must reduce the error")
}

func TestScoreExactCandidate(t *testing.T) {
	// Raising the order until the candidate reproduces the reference
	// exactly drives the error to zero; such a candidate ranks ahead of
	// every finite slope.
	square := func(x float64) float64 { return x * x }
	ref := fekete.FromSampling(square, mesh.MustNew([]float64{0, 1}, []int{2}))
	approx := ref.ProjectOnto(mesh.MustNew([]float64{0, 1}, []int{1}))
	e := approx.Mesh().Elem(0)

	cand := mesh.MustNew([]float64{0, 1}, []int{2})
	score, err := Score(approx, ref, e, cand)
	require.NoError(t, err)
	assert.True(t, math.IsInf(score, -1))
}

func TestScoreDerefinement(t *testing.T) {
	square := func(x float64) float64 { return x * x }
	ref := fekete.FromSampling(square, mesh.MustNew([]float64{0, 1}, []int{5}))
	approx := ref.ProjectOnto(mesh.MustNew([]float64{0, 1}, []int{3}))
	e := approx.Mesh().Elem(0)

	cand := mesh.MustNew([]float64{0, 1}, []int{1})
	_, err := Score(approx, ref, e, cand)
	assert.True(t, errors.Is(err, ErrDerefinement))
}

func TestRankSortedBestFirst(t *testing.T) {
	kink := func(x float64) float64 { return math.Abs(x - 0.1) }
	ref := fekete.FromSampling(kink, mesh.MustNew([]float64{-1, 0.1, 1}, []int{1, 1}))
	approx := ref.ProjectOnto(mesh.MustNew([]float64{-1, 1}, []int{2}))

	ranked, err := Rank(approx, ref)
	require.NoError(t, err)
	require.Len(t, ranked, 10) // one order-2 element

	assert.True(t, sort.SliceIsSorted(ranked, func(a, b int) bool {
		return ranked[a].Score < ranked[b].Score
	}))
	// The equal-DOF split onto the two linear halves wins outright.
	assert.Equal(t, acceptScore, ranked[0].Score)
	assert.Equal(t, 0, ranked[0].Elem)
}

func TestRankNonDyadicInterval(t *testing.T) {
	// A right endpoint with inexact midpoint arithmetic must not trip
	// the element lookup during scoring.
	ref := fekete.FromSampling(math.Sin, mesh.MustNew([]float64{0, 0.65, 1.3}, []int{8, 8}))
	approx := ref.ProjectOnto(mesh.MustNew([]float64{0, 1.3}, []int{1}))

	ranked, err := Rank(approx, ref)
	require.NoError(t, err)
	require.Len(t, ranked, 7)
	assert.True(t, sort.SliceIsSorted(ranked, func(a, b int) bool {
		return ranked[a].Score < ranked[b].Score
	}))
}

func TestStepReducesError(t *testing.T) {
	refMesh := mesh.MustNew(
		[]float64{-math.Pi, -math.Pi / 3, math.Pi / 3, math.Pi},
		[]int{12, 12, 12})
	ref := fekete.FromSampling(math.Sin, refMesh)

	m := mesh.MustNew(
		[]float64{-math.Pi, -math.Pi / 2, 0, math.Pi / 2, math.Pi},
		[]int{1, 1, 1, 1})
	approx := ref.ProjectOnto(m)
	before := approx.Sub(ref).L2Norm()

	next, err := Step(approx, ref)
	require.NoError(t, err)
	refined := ref.ProjectOnto(next)

	assert.Less(t, refined.Sub(ref).L2Norm(), before)
	assert.Greater(t, refined.DOFs(), approx.DOFs())
}

func TestRunBounds(t *testing.T) {
	refMesh := mesh.MustNew(
		[]float64{-math.Pi, -math.Pi / 3, math.Pi / 3, math.Pi},
		[]int{12, 12, 12})
	ref := fekete.FromSampling(math.Sin, refMesh)
	m0 := mesh.MustNew(
		[]float64{-math.Pi, -math.Pi / 2, 0, math.Pi / 2, math.Pi},
		[]int{1, 1, 1, 1})

	initial := ref.ProjectOnto(m0).Sub(ref).L2Norm()

	_, approx, err := Run(ref, m0, Options{MaxSteps: 3})
	require.NoError(t, err)
	assert.Less(t, approx.Sub(ref).L2Norm(), initial)

	_, approx, err = Run(ref, m0, Options{MaxDOFs: 8, MaxSteps: 20})
	require.NoError(t, err)
	assert.LessOrEqual(t, approx.DOFs(), 8)

	m, approx, err := Run(ref, m0, Options{TargetError: 1e-5, MaxSteps: 40})
	require.NoError(t, err)
	assert.Less(t, approx.Sub(ref).L2Norm(), 1e-5)
	assert.Greater(t, m.NumElements(), 0)
}
