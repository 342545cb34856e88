package mehrotra

import "math"

// KKTSystem selects which linearization of the KKT conditions the solver
// factors each iteration.
type KKTSystem int

const (
	// FullKKT is the symmetric (2n+m)-dimensional system carrying dx, dy,
	// and dz explicitly.
	FullKKT KKTSystem = iota
	// AugmentedKKT eliminates dz analytically, leaving an (n+m)-dimensional
	// symmetric quasi-definite system.
	AugmentedKKT
	// NormalKKT further eliminates dx, leaving the m-dimensional positive
	// definite normal equations.
	NormalKKT
)

func (s KKTSystem) String() string {
	switch s {
	case FullKKT:
		return "FullKKT"
	case AugmentedKKT:
		return "AugmentedKKT"
	case NormalKKT:
		return "NormalKKT"
	}
	return "KKTSystem(?)"
}

// RegSolveCtrl configures the iterative refinement that removes temporary
// regularization from a factored KKT solve.
type RegSolveCtrl struct {
	// RelTol is the relative residual reduction at which refinement stops.
	RelTol float64
	// MaxRefineIts caps the number of refinement iterations.
	MaxRefineIts int
	// Restart is the GMRES restart length used when ResolveReg selects the
	// full-precision resolve path. Zero means no restart.
	Restart int
	// Progress logs per-sweep refinement residuals.
	Progress bool
	// Time logs the wall time spent in each preconditioned GMRES resolve
	// (ResolveReg); bounded iterative refinement is not timed.
	Time bool
}

// MehrotraCtrl collects every knob of the predictor-corrector loop. The
// zero value is not useful; start from DefaultMehrotraCtrl.
type MehrotraCtrl struct {
	// PrimalInit and DualInit declare that the caller's x, respectively
	// (y, z), are valid warm starts. Otherwise initialize synthesizes them.
	PrimalInit, DualInit bool

	// OuterEquil runs Ruiz equilibration on the problem before solving.
	OuterEquil bool

	// System selects the KKT linearization.
	System KKTSystem

	// Mehrotra includes the second-order cross term dxAff o dzAff in the
	// corrector right-hand side.
	Mehrotra bool

	// ForceSameStep requires the primal and dual step lengths to agree.
	ForceSameStep bool

	// MaxStepRatio is the fraction of the step to the cone boundary
	// actually taken, typically 0.99.
	MaxStepRatio float64

	MaxIts    int
	TargetTol float64
	MinTol    float64

	// Permanent regularization (gamma, delta, beta): part of the problem
	// formulation itself.
	Reg0Perm, Reg1Perm, Reg2Perm float64
	// Temporary regularization: added to the KKT diagonal only to
	// stabilize factorization, refined back out afterward.
	Reg0Tmp, Reg1Tmp, Reg2Tmp float64

	// RuizEquilTol and DiagEquilTol are thresholds on the max norm of the
	// Nesterov-Todd scaling point selecting the inner symmetric
	// equilibration applied to the KKT matrix on the sparse path.
	RuizEquilTol float64
	DiagEquilTol float64
	RuizMaxIter  int

	// BasisSize is the number of power-iteration steps used to estimate
	// the two-norm of A for scaling the temporary regularization.
	BasisSize int

	// ResolveReg selects full-precision preconditioned resolution of the
	// unregularized system (true) over bounded iterative refinement.
	ResolveReg bool

	SolveCtrl RegSolveCtrl

	// StandardShift applies Mehrotra's shift when synthesizing a starting
	// point; otherwise a plain clamp into the cone is used.
	StandardShift bool

	// StepLengthSigma selects the step-length centrality rule over the
	// Mehrotra (muAff/mu)^3 rule.
	StepLengthSigma bool

	// BalanceTol gates the hold on the barrier parameter when the
	// complementarity products are imbalanced.
	BalanceTol float64

	// Print emits per-iteration diagnostics; Time logs, for each
	// iteration, the combined wall time of its factorization and its two
	// solves; CheckResiduals, when Print is also set, logs how well each
	// computed direction satisfies the linearized KKT equations.
	Print          bool
	Time           bool
	CheckResiduals bool
}

const epsilon = 0x1p-52

// DefaultMehrotraCtrl returns the documented default configuration.
func DefaultMehrotraCtrl() MehrotraCtrl {
	return MehrotraCtrl{
		OuterEquil:   true,
		System:       AugmentedKKT,
		Mehrotra:     true,
		MaxStepRatio: 0.99,
		MaxIts:       100,
		TargetTol:    1e-8,
		MinTol:       1e-6,

		Reg0Tmp: math.Pow(epsilon, 0.25),
		Reg1Tmp: math.Pow(epsilon, 0.25),
		Reg2Tmp: math.Pow(epsilon, 0.25),

		RuizEquilTol: math.Pow(epsilon, -0.25),
		DiagEquilTol: math.Pow(epsilon, -0.15),
		RuizMaxIter:  3,

		BasisSize:  15,
		ResolveReg: true,
		SolveCtrl: RegSolveCtrl{
			RelTol:       math.Pow(epsilon, 0.5),
			MaxRefineIts: 50,
		},

		StandardShift:   true,
		StepLengthSigma: true,
		BalanceTol:      math.Pow(epsilon, -0.19),
	}
}
