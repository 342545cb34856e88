package mehrotra

import (
	"math"
	"testing"

	"github.com/gonum/floats"

	"github.com/marioalexis84/mehrotra/internal/triplet"
)

func testCtrl() MehrotraCtrl {
	ctrl := DefaultMehrotraCtrl()
	ctrl.System = AugmentedKKT
	ctrl.Mehrotra = true
	ctrl.MaxStepRatio = 0.99
	ctrl.TargetTol = 1e-8
	ctrl.MinTol = 1e-6
	return ctrl
}

// checkKKTOptimality verifies the convergence properties a solved triple
// must satisfy: small relative equality residuals and a small duality
// gap measured as c^T x + b^T y.
func checkKKTOptimality(t *testing.T, problem Problem, solution Solution, tol float64) {
	t.Helper()
	m, n := problem.M, problem.N

	rb := make([]float64, m)
	problem.A.MatVec(rb, solution.X)
	floats.Sub(rb, problem.B)
	if rel := floats.Norm(rb, 2) / (1 + floats.Norm(problem.B, 2)); rel > tol {
		t.Errorf("primal residual = %v, want <= %v", rel, tol)
	}

	rc := make([]float64, n)
	problem.A.MatTransVec(rc, solution.Y)
	floats.Add(rc, problem.C)
	floats.Sub(rc, solution.Z)
	if rel := floats.Norm(rc, 2) / (1 + floats.Norm(problem.C, 2)); rel > tol {
		t.Errorf("dual residual = %v, want <= %v", rel, tol)
	}

	primObj := floats.Dot(problem.C, solution.X)
	gap := math.Abs(primObj+floats.Dot(problem.B, solution.Y)) / (1 + math.Abs(primObj))
	if gap > tol {
		t.Errorf("relative gap = %v, want <= %v", gap, tol)
	}
}

func TestMehrotraTrivialDiagonal(t *testing.T) {
	a := []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
	problem := NewDenseProblem(a, []float64{1, 1, 1}, []float64{1, 1, 1})
	solution := NewZeroSolution(problem.M, problem.N)

	its, err := equilibratedMehrotra(problem, &solution, testCtrl())
	if err != nil {
		t.Fatalf("Mehrotra: %v", err)
	}
	if its > 20 {
		t.Errorf("converged in %d iterations, want <= 20", its)
	}

	for j := range solution.X {
		if math.Abs(solution.X[j]-1) > 1e-6 {
			t.Errorf("x[%d] = %v, want 1", j, solution.X[j])
		}
	}
	if obj := floats.Dot(problem.C, solution.X); math.Abs(obj-3) > 1e-6 {
		t.Errorf("objective = %v, want 3", obj)
	}
	// The dual constraint z = c + y pins z to 1+y; complementarity drives
	// z to 0 and hence y to -1 so the gap c^T x + b^T y vanishes.
	for i := range solution.Y {
		if math.Abs(solution.Y[i]+1) > 1e-5 {
			t.Errorf("y[%d] = %v, want -1", i, solution.Y[i])
		}
	}
	checkKKTOptimality(t, problem, solution, 1e-7)
}

func TestMehrotraDegenerateRay(t *testing.T) {
	a := []float64{1, 1}
	problem := NewDenseProblem(a, []float64{1}, []float64{1, 1})
	solution := NewZeroSolution(problem.M, problem.N)

	// A LogicError here would mean the loop let an iterate leave the cone.
	if _, err := equilibratedMehrotra(problem, &solution, testCtrl()); err != nil {
		t.Fatalf("Mehrotra: %v", err)
	}
	if math.Abs(solution.X[0]-0.5) > 1e-4 || math.Abs(solution.X[1]-0.5) > 1e-4 {
		t.Errorf("x = %v, want (0.5, 0.5)", solution.X)
	}
	if obj := floats.Dot(problem.C, solution.X); math.Abs(obj-1) > 1e-6 {
		t.Errorf("objective = %v, want 1", obj)
	}
	checkKKTOptimality(t, problem, solution, 1e-6)
}

// textbookLP is a small LP with a known optimum:
//
//	min -2 x1 - 3 x2
//	s.t. x1 +   x2 + s1 = 4
//	     x1 + 2 x2 + s2 = 6, all vars >= 0,
//
// whose solution is x = (2, 2, 0, 0) with objective -10.
func textbookLP() Problem {
	a := []float64{
		1, 1, 1, 0,
		1, 2, 0, 1,
	}
	return NewDenseProblem(a, []float64{4, 6}, []float64{-2, -3, 0, 0})
}

func TestMehrotraTextbookLP(t *testing.T) {
	problem := textbookLP()
	solution := NewZeroSolution(problem.M, problem.N)

	its, err := equilibratedMehrotra(problem, &solution, testCtrl())
	if err != nil {
		t.Fatalf("Mehrotra: %v", err)
	}
	if its > 40 {
		t.Errorf("converged in %d iterations, want <= 40", its)
	}
	if obj := floats.Dot(problem.C, solution.X); math.Abs(obj+10) > 1e-5 {
		t.Errorf("objective = %v, want -10", obj)
	}
	if math.Abs(solution.X[0]-2) > 1e-4 || math.Abs(solution.X[1]-2) > 1e-4 {
		t.Errorf("x = %v, want (2, 2, 0, 0)", solution.X)
	}
	checkKKTOptimality(t, problem, solution, 1e-7)
}

func TestMehrotraSystemsAgree(t *testing.T) {
	var results [][]float64
	for _, system := range []KKTSystem{FullKKT, AugmentedKKT, NormalKKT} {
		problem := textbookLP()
		solution := NewZeroSolution(problem.M, problem.N)
		ctrl := testCtrl()
		ctrl.System = system
		if _, err := equilibratedMehrotra(problem, &solution, ctrl); err != nil {
			t.Fatalf("%v: %v", system, err)
		}
		checkKKTOptimality(t, problem, solution, 1e-5)
		results = append(results, solution.X)
	}
	for k := 1; k < len(results); k++ {
		for j := range results[0] {
			if math.Abs(results[k][j]-results[0][j]) > 1e-4 {
				t.Errorf("x[%d] differs across systems: %v vs %v", j, results[k][j], results[0][j])
			}
		}
	}
}

func TestMehrotraInfeasible(t *testing.T) {
	a := []float64{1, 1}
	problem := NewDenseProblem(a, []float64{-1}, []float64{1, 1})
	solution := NewZeroSolution(problem.M, problem.N)

	ctrl := testCtrl()
	ctrl.MaxIts = 50
	_, err := equilibratedMehrotra(problem, &solution, ctrl)
	if err == nil {
		t.Fatal("expected non-convergence on an infeasible problem")
	}
	nce, ok := err.(*NonConvergenceError)
	if !ok {
		t.Fatalf("got %T (%v), want *NonConvergenceError", err, err)
	}
	if nce.MinTol != ctrl.MinTol {
		t.Errorf("error carries MinTol %v, want %v", nce.MinTol, ctrl.MinTol)
	}
}

func TestMehrotraWarmStartConvergesFaster(t *testing.T) {
	problem := textbookLP()
	solution := NewZeroSolution(problem.M, problem.N)

	ctrl := testCtrl()
	coldIts, err := equilibratedMehrotra(problem, &solution, ctrl)
	if err != nil {
		t.Fatalf("cold solve: %v", err)
	}

	warm := solution.Clone()
	for j := range warm.X {
		warm.X[j] += 1e-6
		warm.Z[j] += 1e-6
	}
	for i := range warm.Y {
		warm.Y[i] += 1e-6
	}
	ctrl.PrimalInit = true
	ctrl.DualInit = true
	warmIts, err := equilibratedMehrotra(problem, &warm, ctrl)
	if err != nil {
		t.Fatalf("warm solve: %v", err)
	}
	if warmIts >= coldIts {
		t.Errorf("warm start took %d iterations, cold took %d; want strictly fewer", warmIts, coldIts)
	}
}

func TestMehrotraSparse(t *testing.T) {
	a := triplet.New(3, 3)
	a.Append(0, 0, 1)
	a.Append(1, 1, 1)
	a.Append(2, 2, 1)
	problem := NewSparseProblem(a, []float64{1, 1, 1}, []float64{1, 1, 1})
	solution := NewZeroSolution(problem.M, problem.N)

	if _, err := equilibratedMehrotra(problem, &solution, testCtrl()); err != nil {
		t.Fatalf("Mehrotra: %v", err)
	}
	for j := range solution.X {
		if math.Abs(solution.X[j]-1) > 1e-6 {
			t.Errorf("x[%d] = %v, want 1", j, solution.X[j])
		}
	}
	checkKKTOptimality(t, problem, solution, 1e-6)
}

func TestMehrotraZeroColumnTerminates(t *testing.T) {
	// Column 0 of A is structurally zero, so x[0] is driven only by its
	// cost. With a strictly feasible interior start the solver must still
	// terminate, either converging along the remaining components or
	// reporting minTol non-convergence.
	a := []float64{0, 1}
	problem := NewDenseProblem(a, []float64{1}, []float64{1, 1})
	solution := Solution{
		X: []float64{1, 1},
		Y: []float64{0},
		Z: []float64{1, 1},
	}

	ctrl := testCtrl()
	ctrl.PrimalInit = true
	_, err := equilibratedMehrotra(problem, &solution, ctrl)
	if err != nil {
		if _, ok := err.(*NonConvergenceError); !ok {
			t.Fatalf("got %T (%v), want convergence or *NonConvergenceError", err, err)
		}
		return
	}
	if math.Abs(solution.X[1]-1) > 1e-5 {
		t.Errorf("x[1] = %v, want 1", solution.X[1])
	}
}

func TestMehrotraOuterEquil(t *testing.T) {
	// An intentionally badly scaled version of the textbook LP: the full
	// entry point with OuterEquil must still recover the optimum on the
	// caller's original scale.
	a := []float64{
		1e3, 1e3, 1e3, 0,
		1, 2, 0, 1e-3,
	}
	problem := NewDenseProblem(a, []float64{4e3, 6}, []float64{-2, -3, 0, 0})
	solution := NewZeroSolution(problem.M, problem.N)

	ctrl := testCtrl()
	ctrl.OuterEquil = true
	if err := Mehrotra(problem, &solution, ctrl); err != nil {
		t.Fatalf("Mehrotra: %v", err)
	}
	if obj := floats.Dot(problem.C, solution.X); math.Abs(obj+10) > 1e-4 {
		t.Errorf("objective = %v, want -10", obj)
	}
	checkKKTOptimality(t, problem, solution, 1e-5)
}

func TestMehrotraLPDeprecatedVariant(t *testing.T) {
	a := []float64{
		1, 0,
		0, 1,
	}
	b := []float64{1, 1}
	c := []float64{1, 1}
	x := make([]float64, 2)
	y := make([]float64, 2)
	z := make([]float64, 2)

	if err := MehrotraLP(a, b, c, x, y, z, testCtrl()); err != nil {
		t.Fatalf("MehrotraLP: %v", err)
	}
	for j := range x {
		if math.Abs(x[j]-1) > 1e-6 {
			t.Errorf("x[%d] = %v, want 1", j, x[j])
		}
	}
}

func TestMehrotraCentralityRuleVariants(t *testing.T) {
	for _, tc := range []struct {
		name string
		mut  func(*MehrotraCtrl)
	}{
		{"mehrotra sigma", func(c *MehrotraCtrl) { c.StepLengthSigma = false }},
		{"force same step", func(c *MehrotraCtrl) { c.ForceSameStep = true }},
		{"no cross term", func(c *MehrotraCtrl) { c.Mehrotra = false }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			problem := textbookLP()
			solution := NewZeroSolution(problem.M, problem.N)
			ctrl := testCtrl()
			tc.mut(&ctrl)
			if _, err := equilibratedMehrotra(problem, &solution, ctrl); err != nil {
				t.Fatalf("Mehrotra: %v", err)
			}
			if obj := floats.Dot(problem.C, solution.X); math.Abs(obj+10) > 1e-4 {
				t.Errorf("objective = %v, want -10", obj)
			}
		})
	}
}
