package mehrotra

import (
	"math"
	"time"

	"github.com/gonum/floats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"

	"github.com/marioalexis84/mehrotra/internal/dok"
	"github.com/marioalexis84/mehrotra/internal/krylov"
	"github.com/marioalexis84/mehrotra/internal/triplet"
)

// kktSolver wraps factor+solve for the three KKT forms. Factorization
// happens once per outer iteration; the predictor and corrector each
// reuse the factors through solve. The first factor call also performs
// the one-time symbolic work (sizing the scatter buffer the numeric
// factorization assembles into); later iterations rebuild numeric
// factors only.
//
// Sparse problems take the regularized path: the temporary
// regularization regTmp is added to the KKT diagonal before factoring,
// an inner symmetric equilibration dInner is applied when the
// Nesterov-Todd point is large, and solves run iterative refinement
// against the unregularized operator with the factored matrix as
// preconditioner. Dense problems factor the KKT matrix directly, without
// regularization or refinement.
type kktSolver struct {
	system KKTSystem
	m, n   int
	dim    int
	sparse bool

	regTmp     []float64 // nil on the dense path and for the normal form
	resolveReg bool
	solveCtrl  RegSolveCtrl

	ruizEquilTol float64
	diagEquilTol float64
	ruizMaxIter  int

	// Scratch reused across iterations.
	dense    []float64
	dInner   []float64
	scratch  []float64
	scratch2 []float64

	jOrig *dok.DOK

	lu       mat.LU
	chol     mat.Cholesky
	factored bool
}

func kktDim(system KKTSystem, m, n int) int {
	switch system {
	case FullKKT:
		return 2*n + m
	case AugmentedKKT:
		return n + m
	default:
		return m
	}
}

// isSparseSource reports whether an operator is backed by the sparse
// container, looking through any equilibration wrapping.
func isSparseSource(src interface{}) bool {
	switch s := src.(type) {
	case *triplet.Matrix:
		return true
	case scaledEntries:
		return isSparseSource(s.src)
	}
	return false
}

// newKKTSolver sizes an adapter for the given problem and control. The
// two-norm of A is estimated once here to scale regTmp to the problem.
func newKKTSolver(problem Problem, system KKTSystem, ctrl MehrotraCtrl) *kktSolver {
	sparse := isSparseSource(problem.A.equilibrationSource)
	s := &kktSolver{
		system:       system,
		m:            problem.M,
		n:            problem.N,
		dim:          kktDim(system, problem.M, problem.N),
		sparse:       sparse,
		resolveReg:   ctrl.ResolveReg,
		solveCtrl:    ctrl.SolveCtrl,
		ruizEquilTol: ctrl.RuizEquilTol,
		diagEquilTol: ctrl.DiagEquilTol,
		ruizMaxIter:  ctrl.RuizMaxIter,
	}
	// The normal equations take no temporary regularization; regTmp
	// stays nil there, as on the dense path.
	if sparse && system != NormalKKT {
		twoNormEstA := twoNormEstimate(problem.A, problem.M, problem.N, ctrl.BasisSize)
		s.regTmp = regTmpVector(system, problem.M, problem.N,
			ctrl.Reg0Tmp, ctrl.Reg1Tmp, ctrl.Reg2Tmp, twoNormEstA+1)
	}
	return s
}

// factor rebuilds the numeric factorization of jOrig (plus regTmp) for
// the current iterate. wMaxNorm is the max norm of the Nesterov-Todd
// scaling point, thresholding the inner equilibration strategy.
func (s *kktSolver) factor(jOrig *dok.DOK, wMaxNorm float64) error {
	s.jOrig = jOrig
	s.factored = false

	if s.dense == nil {
		// Symbolic step: all later iterations scatter into these.
		s.dense = make([]float64, s.dim*s.dim)
		s.scratch = make([]float64, s.dim)
		s.scratch2 = make([]float64, s.dim)
	}

	j := jOrig
	if s.regTmp != nil {
		j = copyDOK(jOrig)
		for i, r := range s.regTmp {
			j.AddAt(i, i, r)
		}
	}

	s.dInner = nil
	if s.sparse && s.system != NormalKKT {
		if s.regTmp == nil {
			j = copyDOK(jOrig)
		}
		switch {
		case wMaxNorm >= s.ruizEquilTol:
			klog.V(3).InfoS("running symmetric Ruiz equilibration", "wMaxNorm", wMaxNorm)
			s.dInner = symmetricRuizEquil(j, s.ruizMaxIter)
		case wMaxNorm >= s.diagEquilTol:
			klog.V(3).InfoS("running symmetric diagonal equilibration", "wMaxNorm", wMaxNorm)
			s.dInner = symmetricDiagonalEquil(j)
		}
	}

	j.ToDense(s.dense, s.dim)
	if s.system == NormalKKT {
		sym := mat.NewSymDense(s.dim, s.dense)
		if ok := s.chol.Factorize(sym); !ok {
			return errors.New("normal KKT matrix is not positive definite")
		}
	} else {
		s.lu.Factorize(mat.NewDense(s.dim, s.dim, s.dense))
	}
	s.factored = true
	return nil
}

// applyFactor solves against the factored (regularized, inner-scaled)
// matrix: dst = Dinner^-1 Jscaled^-1 Dinner^-1 rhs. dst and rhs may
// alias.
func (s *kktSolver) applyFactor(dst, rhs []float64) error {
	u := s.scratch
	copy(u, rhs)
	if s.dInner != nil {
		for i := range u {
			u[i] /= s.dInner[i]
		}
	}
	v := mat.NewVecDense(s.dim, s.scratch2)
	var err error
	if s.system == NormalKKT {
		err = s.chol.SolveVecTo(v, mat.NewVecDense(s.dim, u))
	} else {
		err = s.lu.SolveVecTo(v, false, mat.NewVecDense(s.dim, u))
	}
	if err != nil {
		// An ill-conditioning warning still carries a usable solution;
		// near the central path's end the KKT condition number grows
		// like 1/mu^2 and refinement or the outer tolerance check deals
		// with the loss.
		if _, ok := err.(mat.Condition); !ok {
			return errors.Wrap(err, "triangular solve")
		}
	}
	copy(dst, s.scratch2)
	if s.dInner != nil {
		for i := range dst {
			dst[i] /= s.dInner[i]
		}
	}
	return nil
}

// solve overwrites d with the solution of the KKT system for right-hand
// side d, refining out the temporary regularization when present.
func (s *kktSolver) solve(d []float64) error {
	if !s.factored {
		return errors.New("solve before factorization")
	}
	switch {
	case s.regTmp != nil && s.resolveReg:
		return s.resolve(d)
	case s.regTmp != nil:
		return s.refine(d)
	case s.sparse && s.system == NormalKKT:
		// No temporary regularization on the normal form; plain bounded
		// refinement still polishes the direct solve.
		return s.refine(d)
	default:
		if err := s.applyFactor(d, d); err != nil {
			return errors.Wrap(err, "kkt solve")
		}
		return nil
	}
}

// resolve runs preconditioned GMRES against the unregularized operator,
// using the factored regularized matrix as the preconditioner, until the
// solution solves the original system to full refinement tolerance.
func (s *kktSolver) resolve(d []float64) error {
	b := append([]float64(nil), d...)
	x0 := make([]float64, s.dim)
	if err := s.applyFactor(x0, b); err != nil {
		return errors.Wrap(err, "regularized solve")
	}
	restart := s.solveCtrl.Restart
	if restart <= 0 || restart > s.dim {
		restart = s.dim
	}
	start := time.Now()
	result, err := krylov.Solve(
		krylov.Ops{MatVec: s.jOrig.MulVec},
		b,
		&krylov.GMRES{Restart: restart},
		krylov.Settings{
			X0:            x0,
			Tolerance:     s.solveCtrl.RelTol,
			MaxIterations: s.solveCtrl.MaxRefineIts,
			PSolve:        s.applyFactor,
		},
	)
	if err != nil {
		return errors.Wrap(err, "regularized refinement")
	}
	if s.solveCtrl.Progress || s.solveCtrl.Time {
		klog.V(3).InfoS("regularized resolve",
			"iterations", result.Stats.Iterations,
			"residualNorm", result.Stats.ResidualNorm,
			"elapsed", time.Since(start))
	}
	copy(d, result.X)
	return nil
}

// refine runs bounded classical iterative refinement: repeatedly solve
// the residual equation against the regularized factors until the
// residual of the unregularized system has dropped by RelTol or the
// sweep budget runs out.
func (s *kktSolver) refine(d []float64) error {
	b := append([]float64(nil), d...)
	bNorm := floats.Norm(b, 2)
	if bNorm == 0 {
		for i := range d {
			d[i] = 0
		}
		return nil
	}
	x := d
	if err := s.applyFactor(x, b); err != nil {
		return errors.Wrap(err, "regularized solve")
	}
	r := make([]float64, s.dim)
	dx := make([]float64, s.dim)
	for it := 0; it < s.solveCtrl.MaxRefineIts; it++ {
		s.jOrig.MulVec(r, x)
		floats.AddScaledTo(r, b, -1, r)
		relRes := floats.Norm(r, 2) / bNorm
		if s.solveCtrl.Progress {
			klog.V(3).InfoS("refinement sweep", "iteration", it, "relativeResidual", relRes)
		}
		if relRes <= s.solveCtrl.RelTol {
			break
		}
		if err := s.applyFactor(dx, r); err != nil {
			return errors.Wrap(err, "refinement sweep")
		}
		floats.Add(x, dx)
	}
	return nil
}

func copyDOK(src *dok.DOK) *dok.DOK {
	dst := dok.New(src.Rows, src.Cols)
	src.Each(func(i, j int, v float64) {
		dst.SetAt(i, j, v)
	})
	return dst
}

// symmetricRuizEquil rescales j in place as Dinner^-1 J Dinner^-1 using
// maxIter sweeps of symmetric Ruiz iteration, returning dInner.
func symmetricRuizEquil(j *dok.DOK, maxIter int) []float64 {
	dim, _ := j.Dims()
	d := ones(dim)
	if maxIter <= 0 {
		maxIter = 3
	}
	rowMax := make([]float64, dim)
	for iter := 0; iter < maxIter; iter++ {
		for i := range rowMax {
			rowMax[i] = 0
		}
		j.Each(func(i, k int, v float64) {
			av := math.Abs(v)
			if av > rowMax[i] {
				rowMax[i] = av
			}
			if av > rowMax[k] {
				rowMax[k] = av
			}
		})
		for i, rm := range rowMax {
			if rm > 0 {
				scale := math.Sqrt(rm)
				d[i] *= scale
				rowMax[i] = scale
			} else {
				rowMax[i] = 1
			}
		}
		scaleDOKSym(j, rowMax)
	}
	return d
}

// symmetricDiagonalEquil rescales j in place by the square roots of its
// diagonal magnitudes.
func symmetricDiagonalEquil(j *dok.DOK) []float64 {
	dim, _ := j.Dims()
	d := make([]float64, dim)
	for i := 0; i < dim; i++ {
		d[i] = math.Sqrt(math.Abs(j.At(i, i)))
		if d[i] == 0 {
			d[i] = 1
		}
	}
	scaleDOKSym(j, d)
	return d
}

func scaleDOKSym(j *dok.DOK, d []float64) {
	type entry struct {
		i, k int
		v    float64
	}
	var es []entry
	j.Each(func(i, k int, v float64) {
		es = append(es, entry{i, k, v})
	})
	for _, e := range es {
		j.SetAt(e.i, e.k, e.v/(d[e.i]*d[e.k]))
	}
}
