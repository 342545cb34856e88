package mehrotra

import (
	"math"

	"github.com/gonum/floats"
	"k8s.io/klog/v2"
)

// State carries the iteration-wide scalars and residual vectors the
// Mehrotra loop recomputes once per outer iteration: the barrier
// parameter, the primal/dual objectives and their relative gap, and the
// DIMACS-style composite convergence error.
type State struct {
	BNorm, CNorm float64

	Mu, MuOld float64

	PrimalObjective float64
	DualObjective   float64
	RelativeGap     float64

	PrimalResidual      float64 // scaled 2-norm of r_b
	DualResidual        float64 // scaled 2-norm of r_c
	ComplementarityNorm float64 // 2-norm of r_mu = x o z

	DimacsError float64
}

// Initialize records the fixed norms of b and c and seeds the previous
// barrier parameter, per the outer-loop contract: the very first Update
// call has nothing to compare mu against yet.
func (s *State) Initialize(problem Problem) {
	s.BNorm = floats.Norm(problem.B, 2)
	s.CNorm = floats.Norm(problem.C, 2)
	s.MuOld = 0.1
}

// Update recomputes every State field from the current iterate, filling
// in residual's three vectors along the way. balanceTol gates the
// barrier-parameter heuristic in step 2: when the complementarity
// products are badly imbalanced (compRatio above balanceTol), mu is held
// at its previous value rather than allowed to shrink on the strength of
// a few components.
func (s *State) Update(problem Problem, solution Solution, residual *Residual, reg DirectRegularization, balanceTol float64) {
	n := len(solution.X)

	mu := floats.Dot(solution.X, solution.Z) / float64(n)
	compRatio := complementRatio(solution.X, solution.Z)
	if compRatio > balanceTol {
		mu = s.MuOld
	} else if mu > s.MuOld {
		mu = s.MuOld
	}
	s.Mu = mu
	s.MuOld = mu

	s.PrimalObjective = floats.Dot(problem.C, solution.X)
	s.DualObjective = -floats.Dot(problem.B, solution.Y)
	s.RelativeGap = math.Abs(s.PrimalObjective-s.DualObjective) / (1 + math.Abs(s.PrimalObjective))

	problem.A.MatVec(residual.PrimalEquality, solution.X)
	floats.Sub(residual.PrimalEquality, problem.B)
	s.PrimalResidual = floats.Norm(residual.PrimalEquality, 2) / (1 + s.BNorm)
	if reg.Delta != 0 {
		floats.AddScaled(residual.PrimalEquality, -reg.Delta*reg.Delta, solution.Y)
	}

	problem.A.MatTransVec(residual.DualEquality, solution.Y)
	floats.Add(residual.DualEquality, problem.C)
	floats.Sub(residual.DualEquality, solution.Z)
	s.DualResidual = floats.Norm(residual.DualEquality, 2) / (1 + s.CNorm)
	if reg.Gamma != 0 {
		floats.AddScaled(residual.DualEquality, reg.Gamma*reg.Gamma, solution.X)
	}

	for j := range residual.DualConic {
		residual.DualConic[j] = solution.X[j] * solution.Z[j]
	}
	s.ComplementarityNorm = floats.Norm(residual.DualConic, 2)

	s.DimacsError = math.Max(s.PrimalResidual, math.Max(s.DualResidual, s.RelativeGap))
}

// CheckDirection measures how well a computed search direction solves
// the linearized KKT equations at the current iterate and logs the
// relative errors. Used under the CheckResiduals diagnostic.
func (s *State) CheckDirection(problem Problem, solution Solution, direction Solution, residual *Residual, reg DirectRegularization) {
	m, n := problem.M, problem.N

	dxError := make([]float64, m)
	problem.A.MatVec(dxError, direction.X)
	floats.Add(dxError, residual.PrimalEquality)
	if reg.Delta != 0 {
		floats.AddScaled(dxError, -reg.Delta*reg.Delta, direction.Y)
	}

	dyError := make([]float64, n)
	problem.A.MatTransVec(dyError, direction.Y)
	floats.Add(dyError, residual.DualEquality)
	if reg.Gamma != 0 {
		floats.AddScaled(dyError, reg.Gamma*reg.Gamma, direction.X)
	}
	floats.Sub(dyError, direction.Z)

	dzError := make([]float64, n)
	for j := range dzError {
		dzError[j] = residual.DualConic[j] +
			solution.X[j]*direction.Z[j] + solution.Z[j]*direction.X[j]
	}

	klog.V(2).InfoS("direction residuals",
		"dxError", floats.Norm(dxError, 2)/(1+floats.Norm(residual.PrimalEquality, 2)),
		"dyError", floats.Norm(dyError, 2)/(1+floats.Norm(residual.DualEquality, 2)),
		"dzError", floats.Norm(dzError, 2)/(1+s.ComplementarityNorm),
	)
}

// PrintResiduals logs the current iterate's diagnostics at verbosity
// level 2, keyed the way klog.InfoS expects so they can be filtered or
// collected by anything scraping structured klog output.
func (s *State) PrintResiduals(iter int) {
	klog.V(2).InfoS("mehrotra iterate",
		"iter", iter,
		"mu", s.Mu,
		"primalObjective", s.PrimalObjective,
		"dualObjective", s.DualObjective,
		"relativeGap", s.RelativeGap,
		"primalResidual", s.PrimalResidual,
		"dualResidual", s.DualResidual,
		"complementarityNorm", s.ComplementarityNorm,
		"dimacsError", s.DimacsError,
	)
}
