// Package lp is a small linear-programming expression builder and simplex
// solver, standing in for PuLP in the original implementation. No example
// in the retrieval pack vendors an LP library, so this is hand-rolled; see
// DESIGN.md for the justification.
package lp

import "fmt"

// Op is a constraint relation against zero.
type Op int

const (
	LE Op = iota
	GE
	EQ
)

// Term is anything that can be linearised into an Expr: a bare Var or an
// already-built Expr.
type Term interface {
	asExpr() Expr
}

// Expr is a linear combination of variables plus a constant, the
// Go equivalent of PuLP's LpAffineExpression.
type Expr struct {
	coef     map[int]float64
	constant float64
}

func (e Expr) asExpr() Expr { return e }

// C builds a constant expression.
func C(v float64) Expr {
	return Expr{coef: map[int]float64{}, constant: v}
}

func (e Expr) clone() Expr {
	c := make(map[int]float64, len(e.coef))
	for k, v := range e.coef {
		c[k] = v
	}
	return Expr{coef: c, constant: e.constant}
}

// Add returns e + t.
func (e Expr) Add(t Term) Expr {
	other := t.asExpr()
	out := e.clone()
	for idx, coef := range other.coef {
		out.coef[idx] += coef
	}
	out.constant += other.constant
	return out
}

// Sub returns e - t.
func (e Expr) Sub(t Term) Expr {
	other := t.asExpr()
	out := e.clone()
	for idx, coef := range other.coef {
		out.coef[idx] -= coef
	}
	out.constant -= other.constant
	return out
}

// Scale returns e * k.
func (e Expr) Scale(k float64) Expr {
	out := e.clone()
	for idx := range out.coef {
		out.coef[idx] *= k
	}
	out.constant *= k
	return out
}

// AddConst returns e + k.
func (e Expr) AddConst(k float64) Expr {
	out := e.clone()
	out.constant += k
	return out
}

// Sum adds a list of terms together.
func Sum(ts ...Term) Expr {
	e := C(0)
	for _, t := range ts {
		e = e.Add(t)
	}
	return e
}

// Add returns a + b, for composing values only known through the Term
// interface (e.g. a variable that may already have been rewritten into an
// expression by earlier arithmetic).
func Add(a, b Term) Expr { return a.asExpr().Add(b) }

// Sub returns a - b.
func Sub(a, b Term) Expr { return a.asExpr().Sub(b) }

// Scale returns t * k.
func Scale(t Term, k float64) Expr { return t.asExpr().Scale(k) }

// Var is a non-negative LP decision variable, mirroring PuLP's
// LpVariable(name, lowBound=0) — the only kind the ladder solver needs.
type Var struct {
	idx  int
	name string
}

func (v Var) asExpr() Expr { return Expr{coef: map[int]float64{v.idx: 1}, constant: 0} }

// Name returns the variable's label.
func (v Var) Name() string { return v.name }

// Add returns v + t.
func (v Var) Add(t Term) Expr { return v.asExpr().Add(t) }

// Sub returns v - t.
func (v Var) Sub(t Term) Expr { return v.asExpr().Sub(t) }

// Scale returns v * k.
func (v Var) Scale(k float64) Expr { return v.asExpr().Scale(k) }

// AddConst returns v + k.
func (v Var) AddConst(k float64) Expr { return v.asExpr().AddConst(k) }

type constraint struct {
	expr Expr
	op   Op
}

// Problem is a minimisation LP over non-negative continuous variables,
// the Go equivalent of PuLP's LpProblem.
type Problem struct {
	name        string
	varNames    []string
	constraints []constraint
	objective   Expr
}

// NewProblem creates an empty problem with the given label.
func NewProblem(name string) *Problem {
	return &Problem{name: name, objective: C(0)}
}

// NewVar registers a fresh non-negative variable.
func (p *Problem) NewVar(name string) Var {
	idx := len(p.varNames)
	p.varNames = append(p.varNames, name)
	return Var{idx: idx, name: name}
}

// Require constrains t against zero: t LE/GE/EQ 0. Build t as
// lhs.Sub(rhs) to express an arbitrary lhs {op} rhs constraint.
func (p *Problem) Require(t Term, op Op) {
	p.constraints = append(p.constraints, constraint{expr: t.asExpr(), op: op})
}

// Minimize sets the objective function.
func (p *Problem) Minimize(t Term) {
	p.objective = t.asExpr()
}

var (
	// ErrInfeasible means no assignment satisfies every constraint.
	ErrInfeasible = fmt.Errorf("lp: problem is infeasible")
	// ErrUnbounded means the objective can be driven to -infinity.
	ErrUnbounded = fmt.Errorf("lp: problem is unbounded")
)

// Solution holds the optimal variable assignment of a solved Problem.
type Solution struct {
	values []float64
}

// Value returns v's value in the optimal solution.
func (s *Solution) Value(v Var) float64 { return s.values[v.idx] }

// Eval realises any Term (Var or Expr) against the solution.
func (s *Solution) Eval(t Term) float64 {
	e := t.asExpr()
	total := e.constant
	for idx, coef := range e.coef {
		total += coef * s.values[idx]
	}
	return total
}
