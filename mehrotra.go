package mehrotra

import (
	"math"
	"time"

	"github.com/gonum/floats"
	"k8s.io/klog/v2"

	"github.com/marioalexis84/mehrotra/internal/dok"
)

// Mehrotra solves the direct conic-form linear program
//
//	min c^T x  s.t.  A x = b, x >= 0,
//
// together with its dual, by a Mehrotra predictor-corrector interior
// point method. solution is overwritten with the final iterate; it must
// be allocated with the problem's shapes (NewZeroSolution) even when no
// warm start is supplied.
//
// The returned error is a *LogicError when the iterate leaves the cone,
// a *NonConvergenceError when the method cannot reach ctrl.MinTol, and
// nil on success (including the benign case where factorization fails
// but the composite error already meets MinTol).
func Mehrotra(problem Problem, solution *Solution, ctrl MehrotraCtrl) error {
	if ctrl.OuterEquil {
		equilibratedProblem, equilibratedSolution, equilibration :=
			Equilibrate(problem, *solution, ctrl.PrimalInit, ctrl.DualInit, ctrl.RuizMaxIter)
		if _, err := equilibratedMehrotra(equilibratedProblem, &equilibratedSolution, ctrl); err != nil {
			return err
		}
		*solution = UndoEquilibration(equilibratedSolution, equilibration)
	} else {
		if _, err := equilibratedMehrotra(problem, solution, ctrl); err != nil {
			return err
		}
	}
	if ctrl.Print {
		primObj := floats.Dot(problem.C, solution.X)
		dualObj := -floats.Dot(problem.B, solution.Y)
		klog.V(1).InfoS("mehrotra finished",
			"primalObjective", primObj,
			"dualObjective", dualObj,
			"relativeGap", math.Abs(primObj-dualObj)/(1+math.Abs(primObj)),
		)
	}
	return nil
}

// MehrotraLP is the positional-argument variant over a dense row-major
// constraint matrix. x, y, and z are used as warm starts per ctrl and
// overwritten with the result.
//
// Deprecated: build a Problem and Solution and call Mehrotra.
func MehrotraLP(a []float64, b, c, x, y, z []float64, ctrl MehrotraCtrl) error {
	problem := NewDenseProblem(a, b, c)
	solution := Solution{X: x, Y: y, Z: z}
	err := Mehrotra(problem, &solution, ctrl)
	copy(x, solution.X)
	copy(y, solution.Y)
	copy(z, solution.Z)
	return err
}

// equilibratedMehrotra is the core loop, running on a problem that is
// already in canonical (equilibrated or caller-supplied) form. It
// reports the number of outer iterations consumed.
func equilibratedMehrotra(problem Problem, solution *Solution, ctrl MehrotraCtrl) (int, error) {
	m, n := problem.M, problem.N

	centralityRule := mehrotraCentrality
	if ctrl.StepLengthSigma {
		centralityRule = stepLengthCentrality
	}
	balanceTol := ctrl.BalanceTol
	if balanceTol == 0 {
		balanceTol = math.Pow(epsilon, -0.19)
	}

	// The normal equations fold their stabilization into the factorization
	// itself; permanent and temporary regularization apply to the other
	// two forms only.
	var permReg DirectRegularization
	if ctrl.System != NormalKKT {
		permReg = DirectRegularization{
			Gamma: ctrl.Reg0Perm,
			Delta: ctrl.Reg1Perm,
			Beta:  ctrl.Reg2Perm,
		}
	}

	var state State
	state.Initialize(problem)

	solver := newKKTSolver(problem, ctrl.System, ctrl)

	// The initialization performs an augmented-KKT solve, so its symbolic
	// work can only be shared when the IPM itself runs the augmented form.
	initSolver := solver
	if ctrl.System != AugmentedKKT {
		initSolver = newKKTSolver(problem, AugmentedKKT, ctrl)
	}
	if err := initialize(problem, solution, initSolver, ctrl); err != nil {
		return 0, err
	}

	residual := newResidual(m, n)
	d := make([]float64, solver.dim)
	affine := NewZeroSolution(m, n)
	combined := NewZeroSolution(m, n)

	numIts := 0
	for ; numIts <= ctrl.MaxIts; numIts++ {
		xNumNonPos := numOutside(solution.X)
		zNumNonPos := numOutside(solution.Z)
		if xNumNonPos > 0 || zNumNonPos > 0 {
			return numIts, logicErrorf(
				"mehrotra: %d entries of x and %d entries of z were nonpositive",
				xNumNonPos, zNumNonPos)
		}

		state.Update(problem, *solution, &residual, permReg, balanceTol)
		if ctrl.Print {
			state.PrintResiduals(numIts)
		}

		if state.DimacsError <= ctrl.TargetTol {
			break
		}
		if numIts == ctrl.MaxIts {
			if !(state.DimacsError <= ctrl.MinTol) {
				return numIts, &NonConvergenceError{
					Iterations:  numIts,
					DimacsError: state.DimacsError,
					MinTol:      ctrl.MinTol,
				}
			}
			break
		}

		w := nesterovToddPoint(solution.X, solution.Z)
		wMaxNorm := maxNorm(w)

		// Predictor: factor once, then solve the affine system.
		iterStart := time.Now()
		jOrig := assembleKKT(ctrl.System, problem, permReg, *solution)
		if err := solver.factor(jOrig, wMaxNorm); err != nil {
			if state.DimacsError <= ctrl.MinTol {
				klog.V(1).InfoS("factorization failed at acceptable tolerance",
					"err", err, "dimacsError", state.DimacsError)
				break
			}
			return numIts, &NonConvergenceError{
				Iterations:  numIts,
				DimacsError: state.DimacsError,
				MinTol:      ctrl.MinTol,
			}
		}
		buildKKTRHS(ctrl.System, problem, permReg, *solution, residual, d)
		if err := solver.solve(d); err != nil {
			if state.DimacsError <= ctrl.MinTol {
				klog.V(1).InfoS("solve failed at acceptable tolerance",
					"err", err, "dimacsError", state.DimacsError)
				break
			}
			return numIts, &NonConvergenceError{
				Iterations:  numIts,
				DimacsError: state.DimacsError,
				MinTol:      ctrl.MinTol,
			}
		}
		expandDirection(ctrl.System, problem, permReg, *solution, residual, d, &affine)
		if ctrl.CheckResiduals && ctrl.Print {
			state.CheckDirection(problem, *solution, affine, &residual, permReg)
		}

		// Centrality: probe the affine step and pick sigma.
		alphaAffPri := maxStep(solution.X, affine.X, 1)
		alphaAffDual := maxStep(solution.Z, affine.Z, 1)
		if ctrl.ForceSameStep {
			alphaAffPri = math.Min(alphaAffPri, alphaAffDual)
			alphaAffDual = alphaAffPri
		}
		// combined.X and combined.Z serve as trial-point scratch here.
		muAffine := affineBarrier(
			solution.X, solution.Z, affine.X, affine.Z,
			alphaAffPri, alphaAffDual, combined.X, combined.Z)
		sigma := centralityRule(state.Mu, muAffine, alphaAffPri, alphaAffDual)
		if ctrl.Print {
			klog.V(2).InfoS("centrality",
				"alphaAffPri", alphaAffPri,
				"alphaAffDual", alphaAffDual,
				"muAffine", muAffine,
				"sigma", sigma)
		}

		// Corrector: reuse the factors against the combined right-hand
		// side.
		combineResiduals(&residual, sigma, state.Mu, ctrl.Mehrotra, affine.X, affine.Z)
		buildKKTRHS(ctrl.System, problem, permReg, *solution, residual, d)
		if err := solver.solve(d); err != nil {
			if state.DimacsError <= ctrl.MinTol {
				klog.V(1).InfoS("solve failed at acceptable tolerance",
					"err", err, "dimacsError", state.DimacsError)
				break
			}
			return numIts, &NonConvergenceError{
				Iterations:  numIts,
				DimacsError: state.DimacsError,
				MinTol:      ctrl.MinTol,
			}
		}
		expandDirection(ctrl.System, problem, permReg, *solution, residual, d, &combined)
		if ctrl.CheckResiduals && ctrl.Print {
			state.CheckDirection(problem, *solution, combined, &residual, permReg)
		}
		if ctrl.Time {
			klog.V(2).InfoS("iteration timing",
				"iter", numIts, "factorAndSolves", time.Since(iterStart))
		}

		// Advance.
		alphaPri, alphaDual := stepLengths(
			solution.X, solution.Z, combined.X, combined.Z,
			ctrl.MaxStepRatio, ctrl.ForceSameStep)
		if ctrl.Print {
			klog.V(2).InfoS("step", "alphaPri", alphaPri, "alphaDual", alphaDual)
		}
		floats.AddScaled(solution.X, alphaPri, combined.X)
		floats.AddScaled(solution.Y, alphaDual, combined.Y)
		floats.AddScaled(solution.Z, alphaDual, combined.Z)
		if alphaPri == 0 && alphaDual == 0 {
			if state.DimacsError <= ctrl.MinTol {
				break
			}
			return numIts, &NonConvergenceError{
				Iterations:  numIts,
				DimacsError: state.DimacsError,
				MinTol:      ctrl.MinTol,
			}
		}
	}
	return numIts, nil
}

// assembleKKT builds the selected linearization at the current iterate.
func assembleKKT(system KKTSystem, problem Problem, reg DirectRegularization, solution Solution) *dok.DOK {
	m, n := problem.M, problem.N
	switch system {
	case FullKKT:
		return fullKKT(problem.A, m, n, reg.Gamma, reg.Delta, reg.Beta, solution.X, solution.Z)
	case AugmentedKKT:
		return augmentedKKT(problem.A, m, n, reg.Gamma, reg.Delta, solution.X, solution.Z)
	default:
		return normalKKT(problem.A, m, n, reg.Gamma, reg.Delta, solution.X, solution.Z)
	}
}

func buildKKTRHS(system KKTSystem, problem Problem, reg DirectRegularization, solution Solution, residual Residual, d []float64) {
	switch system {
	case FullKKT:
		fullKKTRHS(residual, solution.Z, d)
	case AugmentedKKT:
		augmentedKKTRHS(solution.X, residual, d)
	default:
		normalKKTRHS(problem.A, problem.M, problem.N, reg.Gamma, solution.X, solution.Z, residual, d)
	}
}

func expandDirection(system KKTSystem, problem Problem, reg DirectRegularization, solution Solution, residual Residual, d []float64, direction *Solution) {
	m, n := problem.M, problem.N
	switch system {
	case FullKKT:
		expandFullSolution(m, n, d, direction.X, direction.Y, direction.Z)
	case AugmentedKKT:
		expandAugmentedSolution(
			solution.X, solution.Z, residual.DualConic, d,
			direction.X, direction.Y, direction.Z)
	default:
		copy(direction.Y, d)
		expandNormalSolution(
			problem.A, m, n, reg.Gamma, solution.X, solution.Z, residual,
			direction.X, direction.Y, direction.Z)
	}
}
