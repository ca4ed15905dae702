package engine

import (
	"testing"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig(Config{})
	require.NoError(t, err)
	return cfg
}

func TestCandidateBoundaries(t *testing.T) {
	c := NewClassifier(testConfig(t))

	tests := []struct {
		psi  float64
		want domain.Tier
	}{
		{0.0, domain.TierSafety},
		{0.049, domain.TierSafety},
		{0.05, domain.TierSafety}, // crisis boundary resolves toward caution
		{0.051, domain.TierCoherence},
		{0.10, domain.TierCoherence},
		{0.149, domain.TierCoherence},
		{0.15, domain.TierTruth}, // closed lower bound on TRUTH
		{0.32, domain.TierTruth},
		{1.0, domain.TierTruth},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Candidate(tt.psi), "Candidate(%v)", tt.psi)
	}
}

// run feeds a Ψ/velocity trajectory through the state machine and returns
// the emitted tiers.
func run(c *Classifier, psis []float64) []domain.Tier {
	var state TierState
	var res domain.TierResult
	tiers := make([]domain.Tier, 0, len(psis))
	prev := 0.0
	for i, psi := range psis {
		velocity := 0.0
		if i > 0 {
			velocity = psi - prev
		}
		state, res = c.Evaluate(state, ClassifierInput{
			Psi:        psi,
			Velocity:   velocity,
			Components: domain.Components{E: 1, I: 1, O: 1, PAlign: 1},
		})
		tiers = append(tiers, res.Tier)
		prev = psi
	}
	return tiers
}

func TestImmediateSafetyEntry(t *testing.T) {
	c := NewClassifier(testConfig(t))

	// Entry is never delayed, regardless of prior tier or velocity.
	for _, prior := range []domain.Tier{domain.TierTruth, domain.TierCoherence} {
		state := TierState{Tier: prior, TurnsInTier: 5}
		_, res := c.Evaluate(state, ClassifierInput{Psi: 0.04, Velocity: 0.5,
			Components: domain.Components{E: 1, I: 1, O: 1, PAlign: 1}})
		assert.Equal(t, domain.TierSafety, res.Tier, "from %s", prior)
		assert.True(t, res.SafetyEntry)
		assert.Equal(t, domain.EdgeEntered, res.Edge)
		assert.Equal(t, 1, res.TurnsInTier)
	}
}

func TestNoPrematureExit(t *testing.T) {
	c := NewClassifier(testConfig(t))

	// One high reading is not recovery: it takes RecoveryMinTurns (2)
	// consecutive qualifying turns before containment lifts.
	tiers := run(c, []float64{0.32, 0.12, 0.04, 0.12, 0.24})
	assert.Equal(t, []domain.Tier{
		domain.TierTruth,
		domain.TierCoherence,
		domain.TierSafety,
		domain.TierSafety, // first qualifying recovery turn
		domain.TierTruth,  // second qualifying turn completes recovery
	}, tiers)
}

func TestRecoveryResetOnDip(t *testing.T) {
	c := NewClassifier(testConfig(t))

	// A dip below the recovery threshold mid-recovery restarts the streak.
	tiers := run(c, []float64{0.04, 0.12, 0.08, 0.12, 0.14})
	assert.Equal(t, []domain.Tier{
		domain.TierSafety,
		domain.TierSafety,
		domain.TierSafety, // dip resets streak
		domain.TierSafety,
		domain.TierCoherence,
	}, tiers)
}

func TestRecoveryRequiresNonNegativeVelocity(t *testing.T) {
	c := NewClassifier(testConfig(t))
	var state TierState
	var res domain.TierResult
	comps := domain.Components{E: 1, I: 1, O: 1, PAlign: 1}

	state, res = c.Evaluate(state, ClassifierInput{Psi: 0.03, Velocity: -0.1, Components: comps})
	require.Equal(t, domain.TierSafety, res.Tier)

	// Ψ above recovery threshold but still falling does not count.
	state, res = c.Evaluate(state, ClassifierInput{Psi: 0.13, Velocity: -0.01, Components: comps})
	assert.Equal(t, domain.TierSafety, res.Tier)
	assert.Equal(t, 0, state.RecoveryStreak)

	state, res = c.Evaluate(state, ClassifierInput{Psi: 0.13, Velocity: 0, Components: comps})
	assert.Equal(t, domain.TierSafety, res.Tier)
	assert.Equal(t, 1, state.RecoveryStreak)

	_, res = c.Evaluate(state, ClassifierInput{Psi: 0.14, Velocity: 0.01, Components: comps})
	assert.Equal(t, domain.TierCoherence, res.Tier)
	assert.Equal(t, domain.EdgeExited, res.Edge)
}

func TestTruthCoherenceNoHysteresis(t *testing.T) {
	c := NewClassifier(testConfig(t))

	// Neither side is safety-critical; raw thresholds apply directly.
	tiers := run(c, []float64{0.2, 0.1, 0.2, 0.1, 0.2})
	assert.Equal(t, []domain.Tier{
		domain.TierTruth,
		domain.TierCoherence,
		domain.TierTruth,
		domain.TierCoherence,
		domain.TierTruth,
	}, tiers)
}

func TestAtMostOneTierChangePerTurn(t *testing.T) {
	c := NewClassifier(testConfig(t))

	// A collapse from TRUTH straight into crisis is still one transition.
	state := TierState{Tier: domain.TierTruth, TurnsInTier: 3}
	next, res := c.Evaluate(state, ClassifierInput{Psi: 0.01,
		Components: domain.Components{E: 1, I: 1, O: 1, PAlign: 1}})
	assert.Equal(t, domain.TierSafety, res.Tier)
	assert.Equal(t, 1, next.TurnsInTier)
}

func TestHardFlagForcesSafety(t *testing.T) {
	c := NewClassifier(testConfig(t))

	_, res := c.Evaluate(TierState{}, ClassifierInput{
		Psi:        0.9,
		Velocity:   0.1,
		Components: domain.Components{E: 1, I: 1, O: 1, PAlign: 1},
		Flags:      domain.HardFlags{SelfHarm: true},
	})
	assert.Equal(t, domain.TierSafety, res.Tier)
	assert.True(t, res.SafetyEntry)
}

func TestHardFlagBlocksRecovery(t *testing.T) {
	c := NewClassifier(testConfig(t))
	comps := domain.Components{E: 1, I: 1, O: 1, PAlign: 1}

	state, _ := c.Evaluate(TierState{}, ClassifierInput{Psi: 0.03, Components: comps})

	// Qualifying Ψ and velocity, but the flag holds containment.
	state, res := c.Evaluate(state, ClassifierInput{Psi: 0.2, Velocity: 0.17,
		Components: comps, Flags: domain.HardFlags{Violence: true}})
	assert.Equal(t, domain.TierSafety, res.Tier)
	assert.Equal(t, 0, state.RecoveryStreak)
}

func TestPAlignDragDemotesTruth(t *testing.T) {
	c := NewClassifier(testConfig(t))

	// Ψ above caution, but purpose alignment is collapsing while Ψ falls.
	_, res := c.Evaluate(TierState{Tier: domain.TierTruth}, ClassifierInput{
		Psi:        0.22,
		Velocity:   -0.05,
		Components: domain.Components{E: 0.9, I: 0.66, O: 0.7, PAlign: 0.15},
	})
	assert.Equal(t, domain.TierCoherence, res.Tier)

	// Same Ψ with rising trend stays TRUTH.
	_, res = c.Evaluate(TierState{Tier: domain.TierTruth}, ClassifierInput{
		Psi:        0.22,
		Velocity:   0.05,
		Components: domain.Components{E: 0.9, I: 0.66, O: 0.7, PAlign: 0.15},
	})
	assert.Equal(t, domain.TierTruth, res.Tier)
}

func TestSafetyEntryFlagOnlyOnEntry(t *testing.T) {
	c := NewClassifier(testConfig(t))
	comps := domain.Components{E: 1, I: 1, O: 1, PAlign: 1}

	state, res := c.Evaluate(TierState{}, ClassifierInput{Psi: 0.02, Components: comps})
	assert.True(t, res.SafetyEntry)

	_, res = c.Evaluate(state, ClassifierInput{Psi: 0.03, Velocity: 0.01, Components: comps})
	assert.False(t, res.SafetyEntry, "remaining in SAFETY is not an entry edge")
	assert.Equal(t, domain.EdgeNone, res.Edge)
	assert.Equal(t, 2, res.TurnsInTier)
}
