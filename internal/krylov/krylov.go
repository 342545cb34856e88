// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package krylov implements reverse-communication Krylov-subspace methods
// used by the Mehrotra linear solver adapter to refine a regularized KKT
// factorization back toward the unregularized system.
//
// A Method drives a sequence of operations (matrix-vector products,
// preconditioner solves, residual checks) without ever touching the matrix
// representation itself: the caller supplies the operations through Ops and
// performs whatever Operation the Method commands next. This keeps the
// refinement loop agnostic to whether the KKT operator is a dense
// gonum/mat.Dense, the sparse triplet/dok containers in the sibling internal
// packages, or anything else that can answer a matrix-vector product.
package krylov

import (
	"errors"

	"github.com/gonum/floats"
)

// Ops describes the linear operator of the system being refined in terms of
// its matrix-vector product.
type Ops struct {
	// MatVec computes dst = A*x. It must be non-nil.
	MatVec func(dst, x []float64)
}

// Settings configures a refinement solve.
type Settings struct {
	// X0 is the initial estimate. A nil X0 starts from the zero vector.
	// The Mehrotra adapter always passes the regularized factorization's
	// solution here.
	X0 []float64

	// NormA, when nonzero, is folded into the stopping rule as
	//   |r_i| < Tolerance * (NormA*|x_i| + |b|).
	// A zero value falls back to |r_i| < Tolerance*|b|.
	NormA float64

	Tolerance     float64
	MaxIterations int

	PSolve func(dst, rhs []float64) error
}

// Operation specifies the next action a Method needs the caller to perform.
type Operation uint64

const (
	NoOperation Operation = 0

	MatVec Operation = 1 << (iota - 1)
	PSolve
	ComputeResidual
	CheckResidualNorm
	EndIteration
)

// Method is a single step of a reverse-communication iterative solver.
type Method interface {
	Init(dim int)
	Iterate(ctx *Context) (Operation, error)
}

// Context mediates between a Method and its caller.
type Context struct {
	X            []float64
	Residual     []float64
	ResidualNorm float64
	Converged    bool

	Src, Dst []float64
}

type Stats struct {
	Iterations   int
	MatVec       int
	PSolve       int
	ResidualNorm float64
}

type Result struct {
	X     []float64
	Stats Stats
}

const dlamchE = 1.0 / (1 << 53)

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-8
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
}

func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	return v[:n]
}

func norm2(a []float64) float64 {
	return floats.Norm(a, 2)
}

func addScaledTo(dst, a []float64, alpha float64, x []float64) {
	floats.AddScaledTo(dst, a, alpha, x)
}

// Solve runs method against the system a*x = b until the residual
// satisfies settings' stopping rule or the iteration cap is hit.
func Solve(a Ops, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{}

	dim := len(b)
	switch {
	case dim == 0:
		panic("krylov: zero dimension")
	case a.MatVec == nil:
		panic("krylov: nil matrix-vector multiplication")
	case settings.X0 != nil && len(settings.X0) != dim:
		panic("krylov: mismatched length of initial guess")
	}

	defaultSettings(&settings, dim)
	if settings.Tolerance < dlamchE || 1 <= settings.Tolerance {
		panic("krylov: invalid tolerance")
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		addScaledTo(ctx.Residual, b, -1, ctx.Residual)
	} else {
		copy(ctx.Residual, b)
	}

	ctx.ResidualNorm = norm2(ctx.Residual)
	var err error
	if ctx.ResidualNorm >= settings.Tolerance {
		err = iterate(a, b, ctx, settings, method, &stats)
	}

	return Result{X: ctx.X, Stats: stats}, err
}

func iterate(a Ops, b []float64, ctx *Context, settings Settings, method Method, stats *Stats) error {
	dim := len(ctx.X)
	bnorm := norm2(b)
	if bnorm == 0 {
		bnorm = 1
	}

	method.Init(dim)

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			return err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			a.MatVec(ctx.Residual, ctx.X)
			stats.MatVec++
			addScaledTo(ctx.Residual, b, -1, ctx.Residual)

		case MatVec:
			a.MatVec(ctx.Dst, ctx.Src)
			stats.MatVec++

		case PSolve:
			if settings.PSolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			if err = settings.PSolve(ctx.Dst, ctx.Src); err != nil {
				return err
			}
			stats.PSolve++

		case CheckResidualNorm:
			thresh := settings.Tolerance * bnorm
			if settings.NormA != 0 {
				thresh = settings.Tolerance * (settings.NormA*norm2(ctx.X) + bnorm)
			}
			ctx.Converged = ctx.ResidualNorm < thresh

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			if ctx.Converged {
				return nil
			}
			if stats.Iterations == settings.MaxIterations {
				return errors.New("krylov: iteration limit reached")
			}

		default:
			panic("krylov: invalid operation")
		}
	}
}
