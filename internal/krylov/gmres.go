// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"math"

	"github.com/gonum/blas"
	"github.com/gonum/blas/blas64"
	"github.com/gonum/floats"
)

// GMRES implements the restarted generalized minimal residual method for
// nonsymmetric systems, the workhorse behind resolveReg-style refinement:
// each restart grows an orthonormal Krylov basis of the preconditioned
// operator and minimizes the residual over it, so a factored regularized
// matrix supplied as the preconditioner pulls the iteration onto the
// unregularized solution in a handful of steps.
type GMRES struct {
	// Restart is the number of basis vectors accumulated before the
	// method forms a solution and starts over. It must satisfy
	// 0 <= Restart <= dim; 0 means restart only after dim vectors.
	Restart int

	stage int
	k     int // index of the basis column being extended

	basis [][]float64 // orthonormal Krylov vectors, basis[j] is column j
	hess  []float64   // row-major Hessenberg, upper triangular after rotation
	proj  []float64   // residual projection, rotated alongside hess
	cs    []float64   // accumulated Givens rotations
	sn    []float64
	y     []float64
	w     []float64
	prod  []float64
}

func (g *GMRES) Init(dim int) {
	if dim <= 0 {
		panic("krylov: invalid dimension")
	}
	if g.Restart == 0 {
		g.Restart = dim
	}
	if g.Restart < 0 || dim < g.Restart {
		panic("krylov: invalid GMRES.Restart")
	}

	k := g.Restart
	if cap(g.basis) < k+1 {
		g.basis = make([][]float64, k+1)
	} else {
		g.basis = g.basis[:k+1]
	}
	for j := range g.basis {
		g.basis[j] = reuse(g.basis[j], dim)
	}
	// The subdiagonal entry of each new column is annihilated before it
	// would ever be stored, so a square upper triangle suffices.
	g.hess = reuse(g.hess, k*k)
	g.proj = reuse(g.proj, k+1)
	g.cs = reuse(g.cs, k)
	g.sn = reuse(g.sn, k)
	g.y = reuse(g.y, k)
	g.w = reuse(g.w, dim)
	g.prod = reuse(g.prod, dim)

	g.stage = 1
}

func (g *GMRES) Iterate(ctx *Context) (Operation, error) {
	switch g.stage {
	case 1:
		// Seed the basis with the preconditioned residual.
		ctx.Src = ctx.Residual
		ctx.Dst = g.basis[0]
		g.stage = 2
		return PSolve, nil
	case 2:
		beta := floats.Norm(g.basis[0], 2)
		floats.Scale(1/beta, g.basis[0])
		for i := range g.proj {
			g.proj[i] = 0
		}
		g.proj[0] = beta
		g.k = 0
		fallthrough
	case 3:
		if g.k == g.Restart {
			ctx.Src = nil
			ctx.Dst = nil
			g.stage = 7
			return NoOperation, nil
		}
		// Extend the basis by one operator application.
		ctx.Src = g.basis[g.k]
		ctx.Dst = g.prod
		g.stage = 4
		return MatVec, nil
	case 4:
		ctx.Src = g.prod
		ctx.Dst = g.w
		g.stage = 5
		return PSolve, nil
	case 5:
		k := g.k
		ld := g.Restart
		// Modified Gram-Schmidt against the basis so far; column k of the
		// Hessenberg matrix collects the projections.
		for j := 0; j <= k; j++ {
			hjk := floats.Dot(g.basis[j], g.w)
			g.hess[j*ld+k] = hjk
			floats.AddScaled(g.w, -hjk, g.basis[j])
		}
		hsub := floats.Norm(g.w, 2)
		if hsub != 0 {
			copy(g.basis[k+1], g.w)
			floats.Scale(1/hsub, g.basis[k+1])
		}

		// Fold the new column through the accumulated rotations, then
		// zero its subdiagonal with a fresh one; the same rotation keeps
		// the projected residual current.
		for j := 0; j < k; j++ {
			hj := g.hess[j*ld+k]
			hj1 := g.hess[(j+1)*ld+k]
			g.hess[j*ld+k] = g.cs[j]*hj - g.sn[j]*hj1
			g.hess[(j+1)*ld+k] = g.sn[j]*hj + g.cs[j]*hj1
		}
		c, s := givensRotation(g.hess[k*ld+k], hsub)
		g.cs[k], g.sn[k] = c, s
		g.hess[k*ld+k] = c*g.hess[k*ld+k] - s*hsub
		g.proj[k], g.proj[k+1] = c*g.proj[k]-s*g.proj[k+1], s*g.proj[k]+c*g.proj[k+1]

		ctx.Src = nil
		ctx.Dst = nil
		ctx.ResidualNorm = math.Abs(g.proj[k+1])
		ctx.Converged = false
		g.stage = 6
		return CheckResidualNorm, nil
	case 6:
		if ctx.Converged {
			g.formSolution(ctx.X, g.k+1)
			g.stage = 0
			return EndIteration, nil
		}
		g.k++
		g.stage = 3
		return NoOperation, nil
	case 7:
		// Restart length exhausted without passing the residual test:
		// form the best solution over the full basis and recompute the
		// true residual before deciding whether to go around again.
		g.formSolution(ctx.X, g.Restart)
		g.stage = 8
		return ComputeResidual, nil
	case 8:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		g.stage = 9
		return CheckResidualNorm, nil
	case 9:
		if ctx.Converged {
			g.stage = 0
		} else {
			g.stage = 1
		}
		return EndIteration, nil
	default:
		panic("krylov: GMRES.Init not called")
	}
}

// formSolution minimizes the residual over the first ncols basis vectors
// and accumulates the result onto x: solve the rotated upper triangular
// system, then expand through the basis.
func (g *GMRES) formSolution(x []float64, ncols int) {
	y := g.y[:ncols]
	copy(y, g.proj[:ncols])
	bi := blas64.Implementation()
	bi.Dtrsv(blas.Upper, blas.NoTrans, blas.NonUnit, ncols, g.hess, g.Restart, y, 1)
	for j := 0; j < ncols; j++ {
		floats.AddScaled(x, y[j], g.basis[j])
	}
}

// givensRotation returns (c, s) such that
//
//	| c -s | | a |   | r |
//	| s  c | | b | = | 0 |
//
// with r = hypot(a, b) >= 0.
func givensRotation(a, b float64) (c, s float64) {
	if b == 0 {
		return 1, 0
	}
	r := math.Hypot(a, b)
	return a / r, -b / r
}
