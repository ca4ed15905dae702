package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/google/uuid"
)

// alertState tracks the alert bookkeeping for one session's current
// containment episode.
type alertState struct {
	// lastAlertTurn is the TurnsInTier value at which the most recent
	// alert fired; 0 means no alert in the current episode.
	lastAlertTurn int
}

// AlertBuilder constructs crisis events on confirmed SAFETY entries. A
// continuing episode produces no further events unless the configured
// cooldown elapses, so an alert storm cannot form — but the first entry is
// never suppressed.
type AlertBuilder struct {
	cfg Config
}

func NewAlertBuilder(cfg Config) *AlertBuilder {
	return &AlertBuilder{cfg: cfg}
}

// Build returns a CrisisEvent for this turn, or nil when none is due. The
// returned state must be committed by the caller together with the rest of
// the turn's state.
//
// The excerpt on the sample is trusted to be pre-redacted; the builder
// only bounds its length. PII detection is an upstream collaborator's job.
func (b *AlertBuilder) Build(state alertState, sample domain.CoherenceSample, res domain.TierResult) (alertState, *domain.CrisisEvent) {
	if res.Tier != domain.TierSafety {
		return alertState{}, nil
	}

	reconfirmed := false
	switch {
	case res.SafetyEntry:
		// First entry into containment always alerts.
	case state.lastAlertTurn > 0 && b.cfg.AlertCooldownTurns > 0 &&
		res.TurnsInTier-state.lastAlertTurn >= b.cfg.AlertCooldownTurns:
		reconfirmed = true
	default:
		return state, nil
	}

	event := &domain.CrisisEvent{
		AlertID:         uuid.New(),
		Timestamp:       sample.Timestamp,
		AlertType:       domain.AlertTypeDarkNight,
		SessionID:       sample.SessionID,
		TurnSeq:         sample.TurnSeq,
		Psi:             res.Psi,
		Velocity:        res.Velocity,
		Components:      sample.Components,
		Severity:        domain.GradeSeverity(res.Psi),
		Reason:          res.Reason,
		RedactedExcerpt: boundExcerpt(sample.TextExcerpt, b.cfg.MaxExcerptLen),
		Reconfirmed:     reconfirmed,
	}
	return alertState{lastAlertTurn: res.TurnsInTier}, event
}

// boundExcerpt truncates on a rune boundary so a multibyte character is
// never split mid-sequence.
func boundExcerpt(text string, max int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}
