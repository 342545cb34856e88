package mehrotra

import (
	"math"

	"github.com/gonum/floats"

	"github.com/marioalexis84/mehrotra/internal/dok"
)

// The three KKT linearizations assembled here are algebraically the same
// Newton system
//
//	A dx - delta^2 dy            = -r_b
//	gamma^2 dx + A^T dy - dz     = -r_c
//	Z dx + X dz                  = -r_mu
//
// at different levels of elimination. All of them are written in a
// symmetric arrangement so a single factorization serves both the
// predictor and the corrector solve.

// matEntries returns entrywise access to A, which every assembler needs.
// All operators built through the package constructors carry it; losing
// it indicates a hand-assembled MatOps, which the KKT path cannot use.
func matEntries(a MatOps) ruizSource {
	src, ok := a.equilibrationSource.(ruizSource)
	if !ok {
		panic("mehrotra: constraint matrix does not expose its entries")
	}
	return src
}

// fullKKT assembles the symmetric (2n+m)-dimensional system with variable
// order (dx, dy, dz):
//
//	| gamma^2 I   A^T   -I                  |
//	|     A    -delta^2 I   0               |
//	|    -I       0    -(Z^-1 X + beta^2 I) |
func fullKKT(a MatOps, m, n int, gamma, delta, beta float64, x, z []float64) *dok.DOK {
	j := dok.New(2*n+m, 2*n+m)
	for k := 0; k < n; k++ {
		j.SetAt(k, k, gamma*gamma)
		j.SetAt(k, n+m+k, -1)
		j.SetAt(n+m+k, k, -1)
		j.SetAt(n+m+k, n+m+k, -(x[k]/z[k])-beta*beta)
	}
	for i := 0; i < m; i++ {
		j.SetAt(n+i, n+i, -delta*delta)
	}
	matEntries(a).Each(func(i, k int, v float64) {
		j.AddAt(k, n+i, v)
		j.AddAt(n+i, k, v)
	})
	return j
}

// fullKKTRHS packs (-r_c, -r_b, z^-1 o r_mu) into d.
func fullKKTRHS(residual Residual, z, d []float64) {
	n := len(residual.DualEquality)
	m := len(residual.PrimalEquality)
	for k := 0; k < n; k++ {
		d[k] = -residual.DualEquality[k]
	}
	for i := 0; i < m; i++ {
		d[n+i] = -residual.PrimalEquality[i]
	}
	for k := 0; k < n; k++ {
		d[n+m+k] = residual.DualConic[k] / z[k]
	}
}

// expandFullSolution unpacks the solved full-KKT vector into the
// direction triple.
func expandFullSolution(m, n int, d []float64, dx, dy, dz []float64) {
	copy(dx, d[:n])
	copy(dy, d[n:n+m])
	copy(dz, d[n+m:])
}

// augmentedKKT assembles the symmetric quasi-definite (n+m)-dimensional
// system with dz eliminated:
//
//	| X^-1 Z + gamma^2 I   A^T        |
//	|        A          -delta^2 I    |
func augmentedKKT(a MatOps, m, n int, gamma, delta float64, x, z []float64) *dok.DOK {
	j := dok.New(n+m, n+m)
	for k := 0; k < n; k++ {
		j.SetAt(k, k, z[k]/x[k]+gamma*gamma)
	}
	for i := 0; i < m; i++ {
		j.SetAt(n+i, n+i, -delta*delta)
	}
	matEntries(a).Each(func(i, k int, v float64) {
		j.AddAt(k, n+i, v)
		j.AddAt(n+i, k, v)
	})
	return j
}

// augmentedKKTRHS packs (-r_c - x^-1 o r_mu, -r_b) into d.
func augmentedKKTRHS(x []float64, residual Residual, d []float64) {
	n := len(x)
	for k := 0; k < n; k++ {
		d[k] = -residual.DualEquality[k] - residual.DualConic[k]/x[k]
	}
	for i, rb := range residual.PrimalEquality {
		d[n+i] = -rb
	}
}

// expandAugmentedSolution recovers dz = -x^-1 o (r_mu + z o dx) from the
// solved (dx, dy).
func expandAugmentedSolution(x, z, rmu, d []float64, dx, dy, dz []float64) {
	n := len(x)
	copy(dx, d[:n])
	copy(dy, d[n:])
	for k := 0; k < n; k++ {
		dz[k] = -(rmu[k] + z[k]*dx[k]) / x[k]
	}
}

// normalKKT assembles the m-dimensional positive definite normal
// equations A D^-1 A^T + delta^2 I with D = X^-1 Z + gamma^2 I.
func normalKKT(a MatOps, m, n int, gamma, delta float64, x, z []float64) *dok.DOK {
	dInv := make([]float64, n)
	for k := 0; k < n; k++ {
		dInv[k] = 1 / (z[k]/x[k] + gamma*gamma)
	}

	// Group the entries of A by column so each column contributes a
	// weighted outer product.
	type entry struct {
		i int
		v float64
	}
	cols := make([][]entry, n)
	matEntries(a).Each(func(i, k int, v float64) {
		cols[k] = append(cols[k], entry{i, v})
	})

	j := dok.New(m, m)
	for i := 0; i < m; i++ {
		j.SetAt(i, i, delta*delta)
	}
	for k, col := range cols {
		w := dInv[k]
		for _, e1 := range col {
			for _, e2 := range col {
				j.AddAt(e1.i, e2.i, w*e1.v*e2.v)
			}
		}
	}
	return j
}

// normalKKTRHS packs r_b + A D^-1 g with g = -r_c - x^-1 o r_mu into d.
func normalKKTRHS(a MatOps, m, n int, gamma float64, x, z []float64, residual Residual, d []float64) {
	g := make([]float64, n)
	for k := 0; k < n; k++ {
		g[k] = (-residual.DualEquality[k] - residual.DualConic[k]/x[k]) /
			(z[k]/x[k] + gamma*gamma)
	}
	a.MatVec(d, g)
	floats.Add(d, residual.PrimalEquality)
}

// expandNormalSolution recovers dx = D^-1 (g - A^T dy) and then dz from
// the solved dy.
func expandNormalSolution(a MatOps, m, n int, gamma float64, x, z []float64, residual Residual, dx, dy, dz []float64) {
	a.MatTransVec(dx, dy)
	for k := 0; k < n; k++ {
		g := -residual.DualEquality[k] - residual.DualConic[k]/x[k]
		dx[k] = (g - dx[k]) / (z[k]/x[k] + gamma*gamma)
		dz[k] = -(residual.DualConic[k] + z[k]*dx[k]) / x[k]
	}
}

// regTmpVector forms the temporary-regularization diagonal for the given
// KKT form. The signs follow the inertia of each block: +gammaTmp^2 on
// the x pivots, -deltaTmp^2 on the y pivots, -betaTmp^2 on the z pivots
// (the positive definite normal form takes +deltaTmp^2 on its pivots),
// all scaled by normScale (an estimate of ||A||_2 + 1) so the
// regularization is proportional to the problem scale.
func regTmpVector(system KKTSystem, m, n int, gammaTmp, deltaTmp, betaTmp, normScale float64) []float64 {
	var reg []float64
	switch system {
	case FullKKT:
		reg = make([]float64, 2*n+m)
		for i := range reg {
			switch {
			case i < n:
				reg[i] = gammaTmp * gammaTmp
			case i < n+m:
				reg[i] = -deltaTmp * deltaTmp
			default:
				reg[i] = -betaTmp * betaTmp
			}
		}
	case AugmentedKKT:
		reg = make([]float64, n+m)
		for i := range reg {
			if i < n {
				reg[i] = gammaTmp * gammaTmp
			} else {
				reg[i] = -deltaTmp * deltaTmp
			}
		}
	case NormalKKT:
		reg = make([]float64, m)
		for i := range reg {
			reg[i] = deltaTmp * deltaTmp
		}
	}
	floats.Scale(normScale, reg)
	return reg
}

// twoNormEstimate runs basisSize power-iteration steps on A^T A and
// returns the square root of ||A^T A v||_2 for the last unit iterate v,
// an estimate of ||A||_2.
func twoNormEstimate(a MatOps, m, n, basisSize int) float64 {
	if basisSize <= 0 {
		basisSize = 15
	}
	v := make([]float64, n)
	for k := range v {
		v[k] = 1
	}
	floats.Scale(1/floats.Norm(v, 2), v)

	u := make([]float64, m)
	t := make([]float64, n)
	est := 0.0
	for iter := 0; iter < basisSize; iter++ {
		a.MatVec(u, v)
		a.MatTransVec(t, u)
		nrm := floats.Norm(t, 2)
		if nrm == 0 {
			return 0
		}
		est = nrm
		copy(v, t)
		floats.Scale(1/nrm, v)
	}
	return math.Sqrt(est)
}
