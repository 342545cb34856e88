package mehrotra

import "fmt"

// LogicError reports an invariant violation that is detectable before any
// numerical work is attempted, such as an iterate that left the
// non-negative orthant.
type LogicError struct {
	msg string
}

func (e *LogicError) Error() string { return e.msg }

func logicErrorf(format string, args ...interface{}) error {
	return &LogicError{msg: fmt.Sprintf(format, args...)}
}

// SingularMatrixError is returned by LUFull when a zero pivot is
// encountered after exhaustive row and column pivot search, i.e. the
// remaining trailing submatrix is exactly singular.
type SingularMatrixError struct {
	Pivot int // index k at which the zero pivot was found
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("mehrotra: singular matrix at pivot %d", e.Pivot)
}

// NonConvergenceError is returned by Mehrotra when the iteration cap is
// reached, both step lengths collapse to zero, or a KKT factorization or
// solve fails, while the composite DIMACS error still exceeds MinTol.
type NonConvergenceError struct {
	Iterations  int
	DimacsError float64
	MinTol      float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf(
		"mehrotra: failed to reach minTol=%g after %d iterations (dimacs error=%g)",
		e.MinTol, e.Iterations, e.DimacsError)
}
