package mehrotra

import (
	"math"
	"testing"

	"github.com/gonum/floats"

	"github.com/marioalexis84/mehrotra/internal/triplet"
)

func sparseTestProblem(t *testing.T) Problem {
	t.Helper()
	a := triplet.New(2, 3)
	a.Append(0, 0, 1)
	a.Append(0, 1, 2)
	a.Append(1, 1, 1)
	a.Append(1, 2, 3)
	return NewSparseProblem(a, []float64{2, 3}, []float64{1, 2, 1})
}

// The sparse path factors J+regTmp but must hand back solutions of the
// unregularized system, for every equilibration regime.
func TestSolverRefinesOutTemporaryRegularization(t *testing.T) {
	for _, tc := range []struct {
		name     string
		wMaxNorm float64
		resolve  bool
	}{
		{name: "no inner equil, resolve", wMaxNorm: 1, resolve: true},
		{name: "no inner equil, bounded refine", wMaxNorm: 1, resolve: false},
		{name: "diagonal equil", wMaxNorm: 1e3, resolve: true},
		{name: "ruiz equil", wMaxNorm: 1e8, resolve: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			problem := sparseTestProblem(t)
			ctrl := DefaultMehrotraCtrl()
			ctrl.ResolveReg = tc.resolve

			solver := newKKTSolver(problem, AugmentedKKT, ctrl)
			if solver.regTmp == nil {
				t.Fatal("sparse augmented solver should carry regTmp")
			}

			x := []float64{0.7, 1.1, 0.4}
			z := []float64{0.5, 0.9, 1.3}
			jOrig := augmentedKKT(problem.A, problem.M, problem.N, 0, 0, x, z)
			if err := solver.factor(jOrig, tc.wMaxNorm); err != nil {
				t.Fatalf("factor: %v", err)
			}

			rhs := []float64{1, -2, 0.5, 3, -1}
			d := append([]float64(nil), rhs...)
			if err := solver.solve(d); err != nil {
				t.Fatalf("solve: %v", err)
			}

			// Residual against the unregularized operator.
			r := make([]float64, solver.dim)
			jOrig.MulVec(r, d)
			floats.Sub(r, rhs)
			rel := floats.Norm(r, 2) / floats.Norm(rhs, 2)
			if rel > 1e-6 {
				t.Errorf("relative residual against JOrig = %v, want <= 1e-6", rel)
			}
		})
	}
}

func TestSolverDensePathHasNoRegularization(t *testing.T) {
	a := []float64{1, 2, 0, 0, 1, 3}
	problem := NewDenseProblem(a, []float64{2, 3}, []float64{1, 2, 1})
	solver := newKKTSolver(problem, AugmentedKKT, DefaultMehrotraCtrl())
	if solver.regTmp != nil {
		t.Fatal("dense solver should not carry regTmp")
	}

	x := []float64{0.7, 1.1, 0.4}
	z := []float64{0.5, 0.9, 1.3}
	jOrig := augmentedKKT(problem.A, problem.M, problem.N, 0, 0, x, z)
	if err := solver.factor(jOrig, 1); err != nil {
		t.Fatalf("factor: %v", err)
	}
	rhs := []float64{1, -2, 0.5, 3, -1}
	d := append([]float64(nil), rhs...)
	if err := solver.solve(d); err != nil {
		t.Fatalf("solve: %v", err)
	}
	r := make([]float64, solver.dim)
	jOrig.MulVec(r, d)
	floats.Sub(r, rhs)
	if rel := floats.Norm(r, 2) / floats.Norm(rhs, 2); rel > 1e-10 {
		t.Errorf("relative residual = %v, want <= 1e-10", rel)
	}
}

func TestSolverNormalKKTUsesCholesky(t *testing.T) {
	problem := sparseTestProblem(t)
	ctrl := DefaultMehrotraCtrl()
	solver := newKKTSolver(problem, NormalKKT, ctrl)
	if solver.regTmp != nil {
		t.Fatal("normal-form solver should not carry regTmp")
	}
	if solver.dim != problem.M {
		t.Fatalf("dim = %d, want %d", solver.dim, problem.M)
	}

	x := []float64{0.7, 1.1, 0.4}
	z := []float64{0.5, 0.9, 1.3}
	jOrig := normalKKT(problem.A, problem.M, problem.N, 0, 0, x, z)
	if err := solver.factor(jOrig, 1); err != nil {
		t.Fatalf("factor: %v", err)
	}
	rhs := []float64{1, -2}
	d := append([]float64(nil), rhs...)
	if err := solver.solve(d); err != nil {
		t.Fatalf("solve: %v", err)
	}
	r := make([]float64, solver.dim)
	jOrig.MulVec(r, d)
	floats.Sub(r, rhs)
	if rel := floats.Norm(r, 2) / floats.Norm(rhs, 2); rel > 1e-10 {
		t.Errorf("relative residual = %v, want <= 1e-10", rel)
	}
}

func TestSymmetricRuizEquilBalancesRows(t *testing.T) {
	problem := sparseTestProblem(t)
	x := ones(problem.N)
	z := ones(problem.N)
	j := augmentedKKT(problem.A, problem.M, problem.N, 0, 0, x, z)
	// Skew the scale badly.
	j.SetAt(0, 0, 1e8)

	d := symmetricRuizEquil(j, 10)

	dim, _ := j.Dims()
	rowMax := make([]float64, dim)
	j.Each(func(i, k int, v float64) {
		if av := math.Abs(v); av > rowMax[i] {
			rowMax[i] = av
		}
	})
	for i, rm := range rowMax {
		if rm == 0 {
			continue
		}
		if rm > 10 || rm < 0.1 {
			t.Errorf("row %d max = %v after equilibration, want near 1", i, rm)
		}
	}
	for i, di := range d {
		if di <= 0 {
			t.Errorf("dInner[%d] = %v, want > 0", i, di)
		}
	}
}
