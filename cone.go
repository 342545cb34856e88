package mehrotra

import (
	"math"

	"github.com/gonum/floats"
)

// The functions in this file are the handful of non-negative-orthant cone
// predicates the Mehrotra loop needs: how far a component can move before
// it would cross the boundary, how balanced the current complementarity
// products are, and the Nesterov-Todd scaling point used to threshold the
// sparse path's inner equilibration. A general cone abstraction (covering
// second-order or semidefinite cones) is out of scope; only the orthant is
// needed here.

// numOutside counts the components of v that are not strictly positive.
func numOutside(v []float64) int {
	n := 0
	for _, vi := range v {
		if vi <= 0 {
			n++
		}
	}
	return n
}

// maxStep returns the largest t in (0, upperBound] such that
// v + t*dv >= 0 componentwise, i.e. the distance to the boundary of the
// non-negative orthant along direction dv, capped at upperBound.
func maxStep(v, dv []float64, upperBound float64) float64 {
	t := upperBound
	for j, dvj := range dv {
		if dvj < 0 {
			cand := -v[j] / dvj
			if cand < t {
				t = cand
			}
		}
	}
	return t
}

// complementRatio returns the maximum componentwise complementarity ratio
// (x_j*z_j)/mu, where mu = (x.z)/n. Large values indicate that the
// complementarity products are badly imbalanced across components.
func complementRatio(x, z []float64) float64 {
	n := len(x)
	mu := floats.Dot(x, z) / float64(n)
	if mu == 0 {
		return 0
	}
	ratio := 0.0
	for j := range x {
		r := (x[j] * z[j]) / mu
		if r > ratio {
			ratio = r
		}
	}
	return ratio
}

// nesterovToddPoint returns the scaling point w with w_j = sqrt(x_j/z_j),
// satisfying X w = Z w^{-1} componentwise on the non-negative orthant.
func nesterovToddPoint(x, z []float64) []float64 {
	w := make([]float64, len(x))
	for j := range x {
		w[j] = math.Sqrt(x[j] / z[j])
	}
	return w
}

// maxNorm returns the infinity norm of v.
func maxNorm(v []float64) float64 {
	return floats.Norm(v, math.Inf(1))
}
