package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AlertTypeDarkNight is the alert_type constant consumers of the safety
// gateway contract match on.
const AlertTypeDarkNight = "DARK_NIGHT_THRESHOLD"

// CrisisEvent is the immutable human-review payload built on a confirmed
// SAFETY entry. Ownership transfers to the alert-delivery collaborator once
// built; nothing in the engine mutates it afterwards.
//
// human_required and autonomous_action are not fields: they are structural
// constants of the type, emitted literally by MarshalJSON so no code path
// or configuration can flip them.
type CrisisEvent struct {
	AlertID         uuid.UUID  `json:"alert_id"`
	Timestamp       time.Time  `json:"timestamp"`
	AlertType       string     `json:"alert_type"`
	SessionID       string     `json:"session_id"`
	TurnSeq         int64      `json:"turn_seq"`
	Psi             float64    `json:"psi"`
	Velocity        float64    `json:"dpsi_dt"`
	Components      Components `json:"components"`
	Severity        Severity   `json:"severity"`
	Reason          string     `json:"reason"`
	RedactedExcerpt string     `json:"redacted_excerpt"`
	Reconfirmed     bool       `json:"reconfirmed"`
}

// HumanRequired is always true: every crisis event demands human review.
func (e *CrisisEvent) HumanRequired() bool { return true }

// AutonomousAction is always false: the engine never acts on its own.
func (e *CrisisEvent) AutonomousAction() bool { return false }

func (e CrisisEvent) MarshalJSON() ([]byte, error) {
	type alias CrisisEvent
	return json.Marshal(struct {
		alias
		HumanRequired    bool `json:"human_required"`
		AutonomousAction bool `json:"autonomous_action"`
	}{
		alias:            alias(e),
		HumanRequired:    true,
		AutonomousAction: false,
	})
}
