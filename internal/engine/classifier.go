package engine

import (
	"fmt"

	"github.com/atlaspsi/sentinel/internal/domain"
)

// TierState is the per-session hysteresis state. Mutated only by the
// classifier, one evaluation per turn.
type TierState struct {
	Tier           domain.Tier
	TurnsInTier    int
	RecoveryStreak int
}

// Classifier is the hysteresis state machine mapping (Ψ, velocity, state)
// to an emitted tier. It is a total function over valid numeric input:
// malformed samples are rejected upstream and never reach it.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Candidate returns the raw-threshold tier for a Ψ value, before
// hysteresis. Boundary values resolve per the deployed contract: Ψ equal
// to the crisis threshold is SAFETY, Ψ equal to the caution threshold is
// TRUTH.
func (c *Classifier) Candidate(psi float64) domain.Tier {
	switch {
	case psi <= c.cfg.CrisisThreshold:
		return domain.TierSafety
	case psi >= c.cfg.CautionThreshold:
		return domain.TierTruth
	default:
		return domain.TierCoherence
	}
}

// ClassifierInput is one turn's signal bundle.
type ClassifierInput struct {
	Psi        float64
	Velocity   float64
	Components domain.Components
	Flags      domain.HardFlags
}

// Evaluate advances the state machine by one turn and returns the updated
// state plus the emitted result. The input state is not mutated, so a
// failed pipeline stage downstream can discard the update without
// corrupting the session.
func (c *Classifier) Evaluate(state TierState, in ClassifierInput) (TierState, domain.TierResult) {
	prev := state.Tier
	if prev == "" {
		prev = domain.TierTruth
	}

	candidate := c.Candidate(in.Psi)
	reason := c.reason(candidate, in)

	// Hard flags force containment regardless of Ψ.
	if in.Flags.Any() {
		candidate = domain.TierSafety
		reason = "hard risk flag raised"
	}

	// P_align drag: nominally TRUTH, but meaning is collapsing while Ψ
	// falls. Stabilize pattern before facts.
	if candidate == domain.TierTruth &&
		in.Components.PAlign < c.cfg.PAlignDragFloor && in.Velocity < 0 {
		candidate = domain.TierCoherence
		reason = fmt.Sprintf("P_align %.2f below %.2f with falling Ψ", in.Components.PAlign, c.cfg.PAlignDragFloor)
	}

	emitted := candidate
	streak := 0

	if prev == domain.TierSafety && candidate != domain.TierSafety {
		// Exit from SAFETY is guarded: Ψ must hold at or above the recovery
		// threshold with non-negative velocity for RecoveryMinTurns
		// consecutive turns. One noisy high reading never ends containment.
		qualifies := in.Psi >= c.cfg.RecoveryThreshold && in.Velocity >= 0 && !in.Flags.Any()
		if qualifies {
			streak = state.RecoveryStreak + 1
		}
		if !qualifies || streak < c.cfg.RecoveryMinTurns {
			emitted = domain.TierSafety
			if qualifies {
				reason = fmt.Sprintf("recovery %d/%d turns at Ψ ≥ %.2f", streak, c.cfg.RecoveryMinTurns, c.cfg.RecoveryThreshold)
			} else {
				reason = fmt.Sprintf("containment held: Ψ=%.3f below recovery %.2f or falling", in.Psi, c.cfg.RecoveryThreshold)
			}
		} else {
			streak = 0
			reason = fmt.Sprintf("recovery sustained %d turns; resuming %s", c.cfg.RecoveryMinTurns, emitted)
		}
	}

	next := TierState{Tier: emitted, RecoveryStreak: streak}
	if emitted == state.Tier {
		next.TurnsInTier = state.TurnsInTier + 1
	} else {
		next.TurnsInTier = 1
	}

	edge := domain.EdgeNone
	switch {
	case emitted.MoreSevereThan(prev):
		edge = domain.EdgeEntered
	case prev.MoreSevereThan(emitted):
		edge = domain.EdgeExited
	}

	return next, domain.TierResult{
		Tier:        emitted,
		Edge:        edge,
		SafetyEntry: emitted == domain.TierSafety && prev != domain.TierSafety,
		TurnsInTier: next.TurnsInTier,
		Psi:         in.Psi,
		Velocity:    in.Velocity,
		Reason:      reason,
	}
}

func (c *Classifier) reason(tier domain.Tier, in ClassifierInput) string {
	switch tier {
	case domain.TierSafety:
		return fmt.Sprintf("Ψ=%.3f at or below crisis threshold %.2f", in.Psi, c.cfg.CrisisThreshold)
	case domain.TierCoherence:
		return fmt.Sprintf("Ψ=%.3f inside caution band [%.2f, %.2f)", in.Psi, c.cfg.CrisisThreshold, c.cfg.CautionThreshold)
	default:
		return fmt.Sprintf("Ψ=%.3f at or above caution threshold %.2f", in.Psi, c.cfg.CautionThreshold)
	}
}
