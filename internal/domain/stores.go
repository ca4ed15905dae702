package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AlertRecord is a CrisisEvent as persisted in the audit log, annotated with
// delivery and human-verification state.
type AlertRecord struct {
	Event          CrisisEvent `json:"event"`
	GatewayID      string      `json:"gateway_id,omitempty"`
	DeliveryStatus string      `json:"delivery_status"`
	ReviewedBy     string      `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time  `json:"reviewed_at,omitempty"`
	ConsentBy      string      `json:"consent_by,omitempty"`
	ConsentAt      *time.Time  `json:"consent_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// AlertStore is the crisis-alert audit log.
type AlertStore interface {
	Insert(ctx context.Context, event CrisisEvent, gatewayID, deliveryStatus string) error
	GetByID(ctx context.Context, alertID uuid.UUID) (*AlertRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]AlertRecord, error)
	MarkReviewed(ctx context.Context, alertID uuid.UUID, reviewer string) error
	MarkConsent(ctx context.Context, alertID uuid.UUID, reviewer string) error
}

// SimilarSession pairs an archived session with its trajectory distance
// from a query window.
type SimilarSession struct {
	Summary  SessionSummary `json:"summary"`
	Distance float64        `json:"distance"`
}

// SessionStore archives closed sessions and serves trajectory lookups.
type SessionStore interface {
	Archive(ctx context.Context, summary *SessionSummary) error
	GetSummary(ctx context.Context, sessionID string) (*SessionSummary, error)
	SimilarTrajectories(ctx context.Context, trajectory []float32, topK int) ([]SimilarSession, error)
}
