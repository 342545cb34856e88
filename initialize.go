package mehrotra

import (
	"math"

	"github.com/gonum/floats"
	"github.com/pkg/errors"
)

// initialize fills in any parts of the starting triple the caller did not
// supply. The synthesized primal point is the minimum-norm solution of
// A x = b and the synthesized dual pair is the least-squares solution of
// A^T y - z + c = 0, both obtained from one augmented-KKT factorization
// with X = Z = I; solver must therefore be sized for the augmented form.
// The points are then shifted into the interior of the cone.
func initialize(problem Problem, solution *Solution, solver *kktSolver, ctrl MehrotraCtrl) error {
	m, n := problem.M, problem.N

	if ctrl.PrimalInit {
		if k := numOutside(solution.X); k > 0 {
			return logicErrorf("mehrotra: %d entries of the initial x were nonpositive", k)
		}
	}
	if ctrl.DualInit {
		if k := numOutside(solution.Z); k > 0 {
			return logicErrorf("mehrotra: %d entries of the initial z were nonpositive", k)
		}
	}

	if !ctrl.PrimalInit || !ctrl.DualInit {
		unit := ones(n)
		jOrig := augmentedKKT(problem.A, m, n, 0, 0, unit, unit)
		if err := solver.factor(jOrig, 1); err != nil {
			return errors.Wrap(err, "initialization factorization")
		}
		d := make([]float64, n+m)

		if !ctrl.PrimalInit {
			// min ||x||^2 s.t. A x = b.
			for k := range d {
				d[k] = 0
			}
			copy(d[n:], problem.B)
			if err := solver.solve(d); err != nil {
				return errors.Wrap(err, "primal initialization solve")
			}
			copy(solution.X, d[:n])
		}
		if !ctrl.DualInit {
			// min ||z||^2 s.t. A^T y - z + c = 0.
			for k := 0; k < n; k++ {
				d[k] = -problem.C[k]
			}
			for i := 0; i < m; i++ {
				d[n+i] = 0
			}
			if err := solver.solve(d); err != nil {
				return errors.Wrap(err, "dual initialization solve")
			}
			copy(solution.Y, d[n:])
			for k := 0; k < n; k++ {
				solution.Z[k] = -d[k]
			}
		}
	}

	if ctrl.StandardShift {
		standardShiftInto(solution, ctrl.PrimalInit, ctrl.DualInit)
	} else {
		if !ctrl.PrimalInit {
			clampShift(solution.X)
		}
		if !ctrl.DualInit {
			clampShift(solution.Z)
		}
	}
	return nil
}

// standardShiftInto applies Mehrotra's starting-point shift: first move x
// and z far enough inside the cone, then push each by half the average
// complementarity so neither starts on the boundary of the central path.
func standardShiftInto(solution *Solution, primalInit, dualInit bool) {
	x, z := solution.X, solution.Z
	n := len(x)

	var dx, dz float64
	if !primalInit {
		dx = math.Max(-1.5*floats.Min(x), 0)
	}
	if !dualInit {
		dz = math.Max(-1.5*floats.Min(z), 0)
	}

	var dot, xSum, zSum float64
	for k := 0; k < n; k++ {
		dot += (x[k] + dx) * (z[k] + dz)
		xSum += x[k] + dx
		zSum += z[k] + dz
	}

	if !primalInit {
		shift := dx + 1
		if zSum > 0 && dot > 0 {
			shift = dx + 0.5*dot/zSum
		}
		for k := range x {
			x[k] += shift
		}
	}
	if !dualInit {
		shift := dz + 1
		if xSum > 0 && dot > 0 {
			shift = dz + 0.5*dot/xSum
		}
		for k := range z {
			z[k] += shift
		}
	}
}

// clampShift is the non-standard alternative: a uniform shift just past
// the boundary.
func clampShift(v []float64) {
	shift := math.Max(-floats.Min(v), 0) + math.Sqrt(epsilon)
	for k := range v {
		v[k] += shift
	}
}
