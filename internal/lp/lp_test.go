package lp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Classic textbook LP: minimise x + y subject to x + 2y >= 4, 3x + y >= 6.
// Optimal at x=1.6, y=1.2 with objective 2.8 (the two constraint lines
// crossing), verified by hand.
func TestSolveTwoConstraintMinimisation(t *testing.T) {
	p := NewProblem("textbook")
	x := p.NewVar("x")
	y := p.NewVar("y")

	p.Require(x.Add(y.Scale(2)).AddConst(-4), GE)
	p.Require(x.Scale(3).Add(y).AddConst(-6), GE)
	p.Minimize(Sum(x, y))

	sol, err := p.Solve()
	require.NoError(t, err)

	assert.InDelta(t, 1.6, sol.Value(x), 1e-6)
	assert.InDelta(t, 1.2, sol.Value(y), 1e-6)
	assert.InDelta(t, 2.8, sol.Eval(Sum(x, y)), 1e-6)
}

func TestSolveWithEqualityConstraint(t *testing.T) {
	p := NewProblem("equality")
	a := p.NewVar("a")
	b := p.NewVar("b")

	// a + b == 10, minimise 2a + 3b => all weight on a.
	p.Require(a.Add(b).AddConst(-10), EQ)
	p.Minimize(a.Scale(2).Add(b.Scale(3)))

	sol, err := p.Solve()
	require.NoError(t, err)

	assert.InDelta(t, 10, sol.Value(a), 1e-6)
	assert.InDelta(t, 0, sol.Value(b), 1e-6)
	assert.InDelta(t, 20, sol.Eval(Sum(a.Scale(2), b.Scale(3))), 1e-6)
}

func TestSolveInfeasible(t *testing.T) {
	p := NewProblem("infeasible")
	x := p.NewVar("x")

	p.Require(x.AddConst(-5), LE) // x <= 5
	p.Require(x.AddConst(-10), GE) // x >= 10
	p.Minimize(x)

	_, err := p.Solve()
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestSolveLEConstraintBindsUpperBound(t *testing.T) {
	p := NewProblem("le")
	x := p.NewVar("x")

	p.Require(x.AddConst(-5), LE) // x <= 5
	p.Minimize(Sum(x).Scale(-1))  // maximise x == minimise -x

	sol, err := p.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 5, sol.Value(x), 1e-6)
}
