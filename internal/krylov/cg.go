// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import "github.com/gonum/floats"

// CG implements the conjugate gradient method for symmetric positive
// definite systems, such as the regularized normal-equations operator
// A(Z/X)^{-1}A^T + delta^2*I that the normal-KKT linearization produces.
type CG struct {
	first        bool
	rho, rhoPrev float64
	resume       int

	z, p, ap []float64
}

func (cg *CG) Init(dim int) {
	cg.z = reuse(cg.z, dim)
	cg.p = reuse(cg.p, dim)
	cg.ap = reuse(cg.ap, dim)
	cg.first = true
	cg.resume = 1
}

func (cg *CG) Iterate(ctx *Context) (Operation, error) {
	switch cg.resume {
	case 1:
		ctx.Src = ctx.Residual
		ctx.Dst = cg.z
		cg.resume = 2
		return PSolve, nil
		// Solve M z = r_{i-1}.
	case 2:
		cg.rho = floats.Dot(ctx.Residual, cg.z)
		if !cg.first {
			beta := cg.rho / cg.rhoPrev
			floats.AddScaled(cg.z, beta, cg.p)
		}
		copy(cg.p, cg.z)

		ctx.Src = cg.p
		ctx.Dst = cg.ap
		cg.resume = 3
		return MatVec, nil
		// Compute Ap_i.
	case 3:
		alpha := cg.rho / floats.Dot(cg.p, cg.ap)
		floats.AddScaled(ctx.Residual, -alpha, cg.ap)
		floats.AddScaled(ctx.X, alpha, cg.p)

		ctx.Src = nil
		ctx.Dst = nil
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		cg.resume = 4
		return CheckResidualNorm, nil
	case 4:
		if ctx.Converged {
			cg.resume = 0
			return EndIteration, nil
		}
		cg.rhoPrev = cg.rho
		cg.first = false
		cg.resume = 1
		return EndIteration, nil

	default:
		panic("krylov: CG.Init not called")
	}
}
