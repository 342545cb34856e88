package mehrotra

import (
	"math"
	"testing"
)

func TestMehrotraCentrality(t *testing.T) {
	if got := mehrotraCentrality(1, 0.5, 0, 0); math.Abs(got-0.125) > 1e-15 {
		t.Errorf("sigma = %v, want 0.125", got)
	}
	// Affine step increased the barrier: clip to 1.
	if got := mehrotraCentrality(1, 2, 0, 0); got != 1 {
		t.Errorf("sigma = %v, want clipped to 1", got)
	}
}

func TestStepLengthCentrality(t *testing.T) {
	// Full affine steps need no centering.
	if got := stepLengthCentrality(1, 0.5, 1, 1); got != 0 {
		t.Errorf("sigma = %v, want 0", got)
	}
	// Half-blocked affine steps: sigma = (1-0.5)^3.
	if got := stepLengthCentrality(1, 0.5, 0.5, 1); got != 0.125 {
		t.Errorf("sigma = %v, want 0.125", got)
	}
	// Fully blocked affine steps ask for full centering.
	if got := stepLengthCentrality(1, 0.5, 0, 0); got != 1 {
		t.Errorf("sigma = %v, want 1", got)
	}
}

func TestStepLengthsCapAndRatio(t *testing.T) {
	x := []float64{1, 1}
	z := []float64{1, 1}

	// Unconstrained direction: a full unit step.
	dx := []float64{1, 1}
	dz := []float64{1, 1}
	alphaPri, alphaDual := stepLengths(x, z, dx, dz, 0.99, false)
	if alphaPri != 1 || alphaDual != 1 {
		t.Errorf("steps = %v, %v, want 1, 1", alphaPri, alphaDual)
	}

	// Boundary at t=0.5 in the primal: back off by the ratio.
	dx = []float64{-2, 0}
	alphaPri, alphaDual = stepLengths(x, z, dx, dz, 0.99, false)
	if math.Abs(alphaPri-0.99*0.5) > 1e-15 {
		t.Errorf("alphaPri = %v, want %v", alphaPri, 0.99*0.5)
	}
	if alphaDual != 1 {
		t.Errorf("alphaDual = %v, want 1", alphaDual)
	}

	// forceSameStep takes the minimum for both.
	alphaPri, alphaDual = stepLengths(x, z, dx, dz, 0.99, true)
	if alphaPri != alphaDual {
		t.Errorf("forced steps differ: %v vs %v", alphaPri, alphaDual)
	}
	if math.Abs(alphaPri-0.99*0.5) > 1e-15 {
		t.Errorf("forced step = %v, want %v", alphaPri, 0.99*0.5)
	}
}

func TestCombineResiduals(t *testing.T) {
	residual := Residual{
		PrimalEquality: []float64{2},
		DualEquality:   []float64{4, 8},
		DualConic:      []float64{1, 2},
	}
	dxAff := []float64{0.5, 0.5}
	dzAff := []float64{2, 4}

	combineResiduals(&residual, 0.25, 0.4, true, dxAff, dzAff)

	if residual.PrimalEquality[0] != 1.5 {
		t.Errorf("r_b = %v, want 1.5", residual.PrimalEquality[0])
	}
	if residual.DualEquality[0] != 3 || residual.DualEquality[1] != 6 {
		t.Errorf("r_c = %v, want (3, 6)", residual.DualEquality)
	}
	// r_mu[0] = 1 - 0.25*0.4 + 0.5*2 = 1.9
	if math.Abs(residual.DualConic[0]-1.9) > 1e-15 {
		t.Errorf("r_mu[0] = %v, want 1.9", residual.DualConic[0])
	}
	// r_mu[1] = 2 - 0.1 + 2 = 3.9
	if math.Abs(residual.DualConic[1]-3.9) > 1e-15 {
		t.Errorf("r_mu[1] = %v, want 3.9", residual.DualConic[1])
	}
}

func TestAffineBarrier(t *testing.T) {
	x := []float64{1, 1}
	z := []float64{2, 2}
	dx := []float64{-1, -1}
	dz := []float64{-2, -2}
	xTrial := make([]float64, 2)
	zTrial := make([]float64, 2)

	// A full step lands exactly on the origin of both cones.
	if got := affineBarrier(x, z, dx, dz, 1, 1, xTrial, zTrial); got != 0 {
		t.Errorf("muAff = %v, want 0", got)
	}
	// No step keeps the current barrier (x.z)/n = 2.
	if got := affineBarrier(x, z, dx, dz, 0, 0, xTrial, zTrial); got != 2 {
		t.Errorf("muAff = %v, want 2", got)
	}
}
