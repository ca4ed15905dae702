package domain

import "time"

// Tier is the response regime selected for a session, ordered by severity:
// TRUTH < COHERENCE < SAFETY.
type Tier string

const (
	// TierTruth — normal operation, direct factual answers.
	TierTruth Tier = "TRUTH"
	// TierCoherence — stabilize pattern and purpose before delivering facts.
	TierCoherence Tier = "COHERENCE"
	// TierSafety — containment and de-escalation, human help offered.
	TierSafety Tier = "SAFETY"
)

func (t Tier) severity() int {
	switch t {
	case TierSafety:
		return 2
	case TierCoherence:
		return 1
	default:
		return 0
	}
}

// MoreSevereThan reports whether t outranks other in the
// TRUTH < COHERENCE < SAFETY ordering.
func (t Tier) MoreSevereThan(other Tier) bool {
	return t.severity() > other.severity()
}

func ValidTier(s string) bool {
	switch Tier(s) {
	case TierTruth, TierCoherence, TierSafety:
		return true
	}
	return false
}

func AllTiers() []Tier {
	return []Tier{TierTruth, TierCoherence, TierSafety}
}

// TransitionEdge describes how the emitted tier changed on this turn.
type TransitionEdge string

const (
	EdgeNone    TransitionEdge = "none"
	EdgeEntered TransitionEdge = "entered"
	EdgeExited  TransitionEdge = "exited"
)

// TierTransition records a tier change for the audit trail.
type TierTransition struct {
	SessionID  string    `json:"session_id"`
	TurnSeq    int64     `json:"turn_seq"`
	FromTier   Tier      `json:"from_tier"`
	ToTier     Tier      `json:"to_tier"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
