package mehrotra

import (
	"math"

	"github.com/gonum/floats"
)

// The centrality parameter sigma decides how strongly the corrector
// targets the central path rather than the affine-scaling direction.
// Both rules receive the same four scalars; each uses the subset its
// name implies.

// mehrotraCentrality is the classical (muAff/mu)^3 heuristic, clipped to
// [0, 1].
func mehrotraCentrality(mu, muAff, alphaAffPri, alphaAffDual float64) float64 {
	sigma := math.Pow(muAff/mu, 3)
	if sigma > 1 {
		sigma = 1
	}
	if sigma < 0 || math.IsNaN(sigma) {
		sigma = 0
	}
	return sigma
}

// stepLengthCentrality derives sigma from the affine step lengths: short
// affine steps mean the iterate is close to the boundary and needs more
// centering.
func stepLengthCentrality(mu, muAff, alphaAffPri, alphaAffDual float64) float64 {
	return math.Pow(1-math.Min(alphaAffPri, alphaAffDual), 3)
}

// affineBarrier evaluates the barrier parameter at the trial iterate
// (x + alphaPri dxAff, z + alphaDual dzAff), using xTrial and zTrial as
// scratch.
func affineBarrier(x, z, dxAff, dzAff []float64, alphaPri, alphaDual float64, xTrial, zTrial []float64) float64 {
	copy(xTrial, x)
	copy(zTrial, z)
	floats.AddScaled(xTrial, alphaPri, dxAff)
	floats.AddScaled(zTrial, alphaDual, dzAff)
	return floats.Dot(xTrial, zTrial) / float64(len(x))
}

// combineResiduals rewrites the affine residuals into the combined
// predictor-corrector right-hand side in place: the equality residuals
// are damped by (1-sigma), the complementarity residual is recentered by
// -sigma*mu, and the second-order cross term dxAff o dzAff is added when
// the Mehrotra corrector is enabled.
func combineResiduals(residual *Residual, sigma, mu float64, mehrotra bool, dxAff, dzAff []float64) {
	floats.Scale(1-sigma, residual.PrimalEquality)
	floats.Scale(1-sigma, residual.DualEquality)
	for k := range residual.DualConic {
		residual.DualConic[k] -= sigma * mu
		if mehrotra {
			residual.DualConic[k] += dxAff[k] * dzAff[k]
		}
	}
}

// stepLengths computes the primal and dual step lengths for a combined
// direction: the fraction maxStepRatio of the distance to the boundary,
// capped at a full step.
func stepLengths(x, z, dx, dz []float64, maxStepRatio float64, forceSameStep bool) (alphaPri, alphaDual float64) {
	alphaPri = maxStep(x, dx, 1/maxStepRatio)
	alphaDual = maxStep(z, dz, 1/maxStepRatio)
	alphaPri = math.Min(maxStepRatio*alphaPri, 1)
	alphaDual = math.Min(maxStepRatio*alphaDual, 1)
	if forceSameStep {
		alphaPri = math.Min(alphaPri, alphaDual)
		alphaDual = alphaPri
	}
	return alphaPri, alphaDual
}
