// Package minimize wraps the nonlinear local minimizer each node calls to
// solve its private subproblem. Solvers consume it as an opaque
// minimize(f, x0[, grad]) -> x* service injected at construction, so
// alternative implementations are swappable for testing.
package minimize

import (
	"gonum.org/v1/gonum/optimize"
)

// Problem is an unconstrained minimization problem. Grad, when non-nil,
// writes the gradient at x into dst.
type Problem struct {
	Func func(x []float64) float64
	Grad func(dst, x []float64)
}

// Minimizer finds a local minimum of p starting from x0. Implementations
// are best-effort: when the method's own iteration budget runs out without
// convergence they still return the best iterate found, never an error.
type Minimizer interface {
	Minimize(p Problem, x0 []float64) []float64
}

// Gonum is the default Minimizer, backed by gonum's optimize package.
// With a gradient it runs a quasi-Newton method; without one, Nelder-Mead.
type Gonum struct{}

// Minimize implements Minimizer. x0 is not modified.
func (Gonum) Minimize(p Problem, x0 []float64) []float64 {
	prob := optimize.Problem{Func: p.Func}
	var method optimize.Method
	if p.Grad != nil {
		prob.Grad = p.Grad
		method = &optimize.LBFGS{}
	} else {
		method = &optimize.NelderMead{}
	}

	start := make([]float64, len(x0))
	copy(start, x0)

	// Non-convergence is accepted: the result still holds the best iterate,
	// and the caller wants a best effort per round, not a retry.
	result, _ := optimize.Minimize(prob, start, nil, method)
	if result == nil || result.X == nil {
		return start
	}
	return result.X
}

// Default is the minimizer solvers use unless a test injects another.
var Default Minimizer = Gonum{}
