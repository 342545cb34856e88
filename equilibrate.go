package mehrotra

import "math"

// ruizSource is satisfied by anything Ruiz equilibration can iterate over:
// the dense and sparse constraint-matrix backings used by NewDenseProblem
// and NewSparseProblem both qualify.
type ruizSource interface {
	Dims() (m, n int)
	Each(f func(i, j int, v float64))
}

type denseEntries struct {
	a    []float64
	m, n int
}

func (d denseEntries) Dims() (int, int) { return d.m, d.n }

func (d denseEntries) Each(f func(i, j int, v float64)) {
	for i := 0; i < d.m; i++ {
		row := d.a[i*d.n : i*d.n+d.n]
		for j, v := range row {
			if v != 0 {
				f(i, j, v)
			}
		}
	}
}

// RuizScales runs symmetric Ruiz equilibration over src for maxIter passes
// and returns the row and column scale vectors such that
//
//	A'[i][j] = A[i][j] / (rowScale[i] * colScale[j])
//
// has (approximately) unit row and column infinity-norms. Structurally
// zero rows or columns keep a scale of 1.
func RuizScales(src ruizSource, maxIter int) (rowScale, colScale []float64) {
	m, n := src.Dims()
	rowScale = ones(m)
	colScale = ones(n)
	if maxIter <= 0 {
		maxIter = 10
	}

	rowMax := make([]float64, m)
	colMax := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		for i := range rowMax {
			rowMax[i] = 0
		}
		for j := range colMax {
			colMax[j] = 0
		}
		src.Each(func(i, j int, v float64) {
			scaled := math.Abs(v) / (rowScale[i] * colScale[j])
			if scaled > rowMax[i] {
				rowMax[i] = scaled
			}
			if scaled > colMax[j] {
				colMax[j] = scaled
			}
		})
		for i, rm := range rowMax {
			if rm > 0 {
				rowScale[i] *= math.Sqrt(rm)
			}
		}
		for j, cm := range colMax {
			if cm > 0 {
				colScale[j] *= math.Sqrt(cm)
			}
		}
	}
	return rowScale, colScale
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

// Equilibration records the scales applied by Equilibrate so that
// UndoEquilibration can invert the transform exactly.
type Equilibration struct {
	BScale, CScale     float64
	RowScale, ColScale []float64
}

// Equilibrate rescales problem by Ruiz row/column scaling of A followed by
// a max-norm rescaling of b and c, and returns the equilibrated problem
// together with the record needed to undo it. If primalInit/dualInit are
// set, solution's warm start is rescaled consistently so it remains a
// valid warm start for the equilibrated problem.
func Equilibrate(problem Problem, solution Solution, primalInit, dualInit bool, ruizMaxIter int) (Problem, Solution, Equilibration) {
	eq := Equilibration{}

	m, n := problem.M, problem.N
	var rowScale, colScale []float64
	switch src := problem.A.equilibrationSource.(type) {
	case ruizSource:
		rowScale, colScale = RuizScales(src, ruizMaxIter)
	default:
		rowScale, colScale = ones(m), ones(n)
	}
	eq.RowScale, eq.ColScale = rowScale, colScale

	equilibratedA := scaleMatOps(problem.A, rowScale, colScale)

	b := make([]float64, m)
	for i := range b {
		b[i] = problem.B[i] / rowScale[i]
	}
	c := make([]float64, n)
	for j := range c {
		c[j] = problem.C[j] / colScale[j]
	}

	eqSolution := solution.Clone()
	if primalInit {
		for j := range eqSolution.X {
			eqSolution.X[j] *= colScale[j]
		}
	}
	if dualInit {
		for i := range eqSolution.Y {
			eqSolution.Y[i] *= rowScale[i]
		}
		for j := range eqSolution.Z {
			eqSolution.Z[j] /= colScale[j]
		}
	}

	eq.BScale = math.Max(maxNorm(b), 1)
	eq.CScale = math.Max(maxNorm(c), 1)
	for i := range b {
		b[i] /= eq.BScale
	}
	for j := range c {
		c[j] /= eq.CScale
	}
	if primalInit {
		for j := range eqSolution.X {
			eqSolution.X[j] /= eq.BScale
		}
	}
	if dualInit {
		for i := range eqSolution.Y {
			eqSolution.Y[i] /= eq.CScale
		}
		for j := range eqSolution.Z {
			eqSolution.Z[j] /= eq.CScale
		}
	}

	equilibrated := Problem{A: equilibratedA, M: m, N: n, B: b, C: c}
	return equilibrated, eqSolution, eq
}

// UndoEquilibration inverts Equilibrate, mapping a solution of the
// equilibrated problem back onto the caller's original scale.
func UndoEquilibration(equilibratedSolution Solution, eq Equilibration) Solution {
	s := equilibratedSolution.Clone()
	for j := range s.X {
		s.X[j] *= eq.BScale
	}
	for i := range s.Y {
		s.Y[i] *= eq.CScale
	}
	for j := range s.Z {
		s.Z[j] *= eq.CScale
	}
	for j := range s.X {
		s.X[j] /= eq.ColScale[j]
	}
	for i := range s.Y {
		s.Y[i] /= eq.RowScale[i]
	}
	for j := range s.Z {
		s.Z[j] *= eq.ColScale[j]
	}
	return s
}

// scaledEntries exposes the entries of an equilibrated operator, so the
// KKT assembler can still reach A entrywise after Equilibrate has wrapped
// it.
type scaledEntries struct {
	src                ruizSource
	rowScale, colScale []float64
}

func (s scaledEntries) Dims() (int, int) { return s.src.Dims() }

func (s scaledEntries) Each(f func(i, j int, v float64)) {
	s.src.Each(func(i, j int, v float64) {
		f(i, j, v/(s.rowScale[i]*s.colScale[j]))
	})
}

func scaleMatOps(a MatOps, rowScale, colScale []float64) MatOps {
	m, n := len(rowScale), len(colScale)
	scratchN := make([]float64, n)
	scratchM := make([]float64, m)
	var src interface{}
	if inner, ok := a.equilibrationSource.(ruizSource); ok {
		src = scaledEntries{src: inner, rowScale: rowScale, colScale: colScale}
	}
	return MatOps{
		equilibrationSource: src,
		MatVec: func(dst, x []float64) {
			for j := range x {
				scratchN[j] = x[j] / colScale[j]
			}
			a.MatVec(dst, scratchN)
			for i := range dst {
				dst[i] /= rowScale[i]
			}
		},
		MatTransVec: func(dst, x []float64) {
			for i := range x {
				scratchM[i] = x[i] / rowScale[i]
			}
			a.MatTransVec(dst, scratchM)
			for j := range dst {
				dst[j] /= colScale[j]
			}
		},
	}
}
