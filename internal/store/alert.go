package store

import (
	"context"
	"errors"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AlertStore struct {
	db *pgxpool.Pool
}

func NewAlertStore(db *pgxpool.Pool) *AlertStore {
	return &AlertStore{db: db}
}

func (s *AlertStore) Insert(ctx context.Context, e domain.CrisisEvent, gatewayID, deliveryStatus string) error {
	// human_required/autonomous_action are stored as literal columns so the
	// audit table is self-describing even without the application schema.
	_, err := s.db.Exec(ctx,
		`INSERT INTO crisis_alerts (alert_id, occurred_at, alert_type, session_id, turn_seq, psi, dpsi_dt, e, i, o, p_align, severity, reason, redacted_excerpt, reconfirmed, gateway_id, delivery_status, human_required, autonomous_action)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, TRUE, FALSE)`,
		e.AlertID, e.Timestamp, e.AlertType, e.SessionID, e.TurnSeq, e.Psi, e.Velocity,
		e.Components.E, e.Components.I, e.Components.O, e.Components.PAlign,
		e.Severity, e.Reason, e.RedactedExcerpt, e.Reconfirmed, gatewayID, deliveryStatus,
	)
	return err
}

func (s *AlertStore) GetByID(ctx context.Context, alertID uuid.UUID) (*domain.AlertRecord, error) {
	r := &domain.AlertRecord{}
	err := s.db.QueryRow(ctx,
		`SELECT alert_id, occurred_at, alert_type, session_id, turn_seq, psi, dpsi_dt, e, i, o, p_align, severity, reason, redacted_excerpt, reconfirmed, COALESCE(gateway_id, ''), delivery_status, COALESCE(reviewed_by, ''), reviewed_at, COALESCE(consent_by, ''), consent_at, created_at
		 FROM crisis_alerts WHERE alert_id = $1`,
		alertID,
	).Scan(&r.Event.AlertID, &r.Event.Timestamp, &r.Event.AlertType, &r.Event.SessionID, &r.Event.TurnSeq,
		&r.Event.Psi, &r.Event.Velocity, &r.Event.Components.E, &r.Event.Components.I, &r.Event.Components.O,
		&r.Event.Components.PAlign, &r.Event.Severity, &r.Event.Reason, &r.Event.RedactedExcerpt,
		&r.Event.Reconfirmed, &r.GatewayID, &r.DeliveryStatus, &r.ReviewedBy, &r.ReviewedAt,
		&r.ConsentBy, &r.ConsentAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *AlertStore) ListBySession(ctx context.Context, sessionID string) ([]domain.AlertRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT alert_id, occurred_at, alert_type, session_id, turn_seq, psi, dpsi_dt, e, i, o, p_align, severity, reason, redacted_excerpt, reconfirmed, COALESCE(gateway_id, ''), delivery_status, COALESCE(reviewed_by, ''), reviewed_at, COALESCE(consent_by, ''), consent_at, created_at
		 FROM crisis_alerts WHERE session_id = $1 ORDER BY turn_seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AlertRecord
	for rows.Next() {
		var r domain.AlertRecord
		if err := rows.Scan(&r.Event.AlertID, &r.Event.Timestamp, &r.Event.AlertType, &r.Event.SessionID,
			&r.Event.TurnSeq, &r.Event.Psi, &r.Event.Velocity, &r.Event.Components.E, &r.Event.Components.I,
			&r.Event.Components.O, &r.Event.Components.PAlign, &r.Event.Severity, &r.Event.Reason,
			&r.Event.RedactedExcerpt, &r.Event.Reconfirmed, &r.GatewayID, &r.DeliveryStatus,
			&r.ReviewedBy, &r.ReviewedAt, &r.ConsentBy, &r.ConsentAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// MarkReviewed attaches human verification to an alert. Required before any
// escalation the far side of the gateway might take.
func (s *AlertStore) MarkReviewed(ctx context.Context, alertID uuid.UUID, reviewer string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE crisis_alerts SET reviewed_by = $2, reviewed_at = NOW() WHERE alert_id = $1`,
		alertID, reviewer,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkConsent records explicit user consent for escalation, verified by a
// human reviewer.
func (s *AlertStore) MarkConsent(ctx context.Context, alertID uuid.UUID, reviewer string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE crisis_alerts SET consent_by = $2, consent_at = NOW() WHERE alert_id = $1`,
		alertID, reviewer,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
