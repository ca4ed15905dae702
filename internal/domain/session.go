package domain

import "time"

// HardFlags are explicit hazard markers attached by the caller. Any raised
// flag forces SAFETY regardless of Ψ and blocks recovery while it persists.
type HardFlags struct {
	SelfHarm bool `json:"self_harm,omitempty"`
	Violence bool `json:"violence,omitempty"`
}

// Any reports whether at least one hard flag is raised.
func (f HardFlags) Any() bool {
	return f.SelfHarm || f.Violence
}

// CoherenceSample is one turn's evaluation input. Immutable once created;
// TextExcerpt must already be redacted of anything personally identifying —
// the engine only length-bounds it.
type CoherenceSample struct {
	SessionID   string     `json:"session_id"`
	TurnSeq     int64      `json:"turn_seq"`
	Components  Components `json:"components"`
	Timestamp   time.Time  `json:"timestamp"`
	TextExcerpt string     `json:"text_excerpt,omitempty"`
	Flags       HardFlags  `json:"flags,omitempty"`
}

// TierResult is one classifier evaluation: the stabilized tier plus the
// transition bookkeeping the downstream stages key off.
type TierResult struct {
	Tier        Tier           `json:"tier"`
	Edge        TransitionEdge `json:"edge"`
	SafetyEntry bool           `json:"safety_entry"`
	TurnsInTier int            `json:"turns_in_tier"`
	Psi         float64        `json:"psi"`
	Velocity    float64        `json:"velocity"`
	Reason      string         `json:"reason"`
}

// EvaluationResult is the composite output of one turn through the full
// pipeline.
type EvaluationResult struct {
	SessionID   string         `json:"session_id"`
	TurnSeq     int64          `json:"turn_seq"`
	Psi         float64        `json:"psi"`
	Velocity    float64        `json:"velocity"`
	Tier        Tier           `json:"tier"`
	Edge        TransitionEdge `json:"edge"`
	TurnsInTier int            `json:"turns_in_tier"`
	Scaffold    Scaffold       `json:"scaffold"`
	CrisisEvent *CrisisEvent   `json:"crisis_event,omitempty"`
}

// SessionSummary is the archived record of a closed session.
type SessionSummary struct {
	SessionID  string    `json:"session_id"`
	OpenedAt   time.Time `json:"opened_at"`
	ClosedAt   time.Time `json:"closed_at"`
	Turns      int64     `json:"turns"`
	LastTier   Tier      `json:"last_tier"`
	MeanPsi    float64   `json:"mean_psi"`
	MinPsi     float64   `json:"min_psi"`
	AlertCount int       `json:"alert_count"`
	// Trajectory is the final Ψ window, oldest first, zero-padded to the
	// configured window size so archived trajectories are comparable.
	Trajectory []float32 `json:"trajectory"`
}
