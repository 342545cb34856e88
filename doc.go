// Package mehrotra implements a Mehrotra predictor-corrector interior-point
// method for linear programs in direct conic form,
//
//	min  c^T x
//	s.t. A x = b, x >= 0,
//
// together with its dual (y, z >= 0) satisfying A^T y - z + c = 0. The
// solver follows a perturbed central path to optimality by alternating an
// affine (predictor) step with a centered (corrector) step, as in Mehrotra's
// 1992 predictor-corrector scheme.
//
// The outer driver (Mehrotra, MehrotraLP) composes five leaf
// components: an Equilibrator that rescales the problem before solving, a
// State that tracks the barrier parameter and residual norms, a KKT
// assembler/expander that builds and unpacks one of three equivalent
// linearizations, a linear solver adapter that factors and (optionally)
// refines that linearization, and a step controller that picks the
// centrality parameter and advances the iterate. A self-contained dense LU
// factorization with complete (row and column) pivoting is included as a
// supporting kernel with the same panelized-elimination shape as the rest of
// the package.
package mehrotra
