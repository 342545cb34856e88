package mehrotra

import (
	"k8s.io/klog/v2"

	"github.com/marioalexis84/mehrotra/internal/dok"
	"github.com/marioalexis84/mehrotra/internal/triplet"
)

// MatOps describes the constraint matrix A of a Problem purely in
// terms of matrix-vector products, independent of whether A is stored
// dense, sparse, or (nominally) distributed across a process grid. This is
// the same reverse-communication idea the krylov package uses for its
// linear operators: the outer algorithm never touches A's representation
// directly.
type MatOps struct {
	// MatVec computes dst = A*x. dst has length M, x has length N.
	MatVec func(dst, x []float64)
	// MatTransVec computes dst = A^T*x. dst has length N, x has length M.
	MatTransVec func(dst, x []float64)

	// equilibrationSource, when non-nil, gives Equilibrate and the KKT
	// assembler entrywise access to A. Operators built by scaleMatOps
	// carry a wrapped source that folds the scales in.
	equilibrationSource interface{}
}

// DenseOps wraps a row-major dense matrix stored as a flat slice.
func DenseOps(a []float64, m, n int) MatOps {
	if len(a) != m*n {
		panic("mehrotra: dense matrix length does not match m*n")
	}
	return MatOps{
		MatVec: func(dst, x []float64) {
			for i := 0; i < m; i++ {
				var s float64
				row := a[i*n : i*n+n]
				for j, aij := range row {
					s += aij * x[j]
				}
				dst[i] = s
			}
		},
		MatTransVec: func(dst, x []float64) {
			for j := 0; j < n; j++ {
				dst[j] = 0
			}
			for i := 0; i < m; i++ {
				xi := x[i]
				if xi == 0 {
					continue
				}
				row := a[i*n : i*n+n]
				for j, aij := range row {
					dst[j] += aij * xi
				}
			}
		},
		equilibrationSource: denseEntries{a: a, m: m, n: n},
	}
}

// SparseOps wraps a coordinate-format sparse matrix.
func SparseOps(a *triplet.Matrix) MatOps {
	return MatOps{MatVec: a.MulVec, MatTransVec: a.MulTransVec, equilibrationSource: a}
}

// DOKOps wraps a dictionary-of-keys matrix, used for the KKT operator
// itself rather than for A.
func DOKOps(a *dok.DOK) MatOps {
	return MatOps{MatVec: a.MulVec, MatTransVec: a.MulTransVec}
}

// Problem holds the immutable data (A, b, c) of a direct-form linear
// program. M and N are cached from len(B) and len(C) so components never
// need to re-derive them from A.
type Problem struct {
	A    MatOps
	M, N int
	B    []float64 // length M
	C    []float64 // length N
}

// NewDenseProblem builds a Problem over a dense row-major constraint
// matrix.
func NewDenseProblem(a []float64, b, c []float64) Problem {
	m, n := len(b), len(c)
	return Problem{A: DenseOps(a, m, n), M: m, N: n, B: b, C: c}
}

// NewSparseProblem builds a Problem over a coordinate-format constraint
// matrix. Structurally zero columns are legal (the corresponding x
// component is constrained only by its cost) but often indicate a
// modeling slip, so they are logged.
func NewSparseProblem(a *triplet.Matrix, b, c []float64) Problem {
	m, n := a.Dims()
	if m != len(b) || n != len(c) {
		panic("mehrotra: problem dimension mismatch")
	}
	for j := 0; j < n; j++ {
		if a.ColumnIsZero(j) {
			klog.V(3).InfoS("constraint matrix has a structurally zero column", "column", j)
		}
	}
	return Problem{A: SparseOps(a), M: m, N: n, B: b, C: c}
}

// Clone returns a deep copy of the vector data; A is shared, since it is
// treated as immutable for the lifetime of a solve.
func (p Problem) Clone() Problem {
	q := p
	q.B = append([]float64(nil), p.B...)
	q.C = append([]float64(nil), p.C...)
	return q
}

// Solution is the mutable primal/dual/slack triple (x, y, z) produced and
// refined by Mehrotra. The invariant x > 0 and z > 0 componentwise must
// hold at every iteration; violating it is a LogicError, not a recoverable
// failure.
type Solution struct {
	X []float64 // length N
	Y []float64 // length M
	Z []float64 // length N
}

// Clone returns a deep copy.
func (s Solution) Clone() Solution {
	return Solution{
		X: append([]float64(nil), s.X...),
		Y: append([]float64(nil), s.Y...),
		Z: append([]float64(nil), s.Z...),
	}
}

// NewZeroSolution allocates a Solution of the right shape with all
// components initialized to zero; initialize fills in a proper centered
// starting point before the first iteration.
func NewZeroSolution(m, n int) Solution {
	return Solution{X: make([]float64, n), Y: make([]float64, m), Z: make([]float64, n)}
}

// Residual holds the primal equality, dual equality, and dual conic
// (complementarity) residual vectors at the current iterate.
type Residual struct {
	PrimalEquality []float64 // r_b = A x - b, length M
	DualEquality   []float64 // r_c = A^T y - z + c, length N
	DualConic      []float64 // r_mu = x o z, length N
}

func newResidual(m, n int) Residual {
	return Residual{
		PrimalEquality: make([]float64, m),
		DualEquality:   make([]float64, n),
		DualConic:      make([]float64, n),
	}
}

// DirectRegularization holds the permanent regularization coefficients
// (gamma, delta, beta) that alter the problem formulation itself, as
// opposed to the temporary regularization used only to stabilize
// factorization.
type DirectRegularization struct {
	Gamma float64 // primal regularization, adds +gamma^2 x to the dual equality residual r_c
	Delta float64 // dual regularization, adds -delta^2 y to the primal equality residual r_b
	Beta  float64 // dual-conic perturbation, used only by the full KKT form
}
