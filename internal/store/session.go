package store

import (
	"context"
	"errors"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

// Archive persists a closed session's summary together with its final Ψ
// window as a vector, which is what makes trajectory similarity queries
// possible later.
func (s *SessionStore) Archive(ctx context.Context, sum *domain.SessionSummary) error {
	trajectory := pgvector.NewVector(sum.Trajectory)
	_, err := s.db.Exec(ctx,
		`INSERT INTO session_archive (session_id, opened_at, closed_at, turns, last_tier, mean_psi, min_psi, alert_count, trajectory)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id) DO UPDATE
		 SET closed_at = EXCLUDED.closed_at, turns = EXCLUDED.turns, last_tier = EXCLUDED.last_tier,
		     mean_psi = EXCLUDED.mean_psi, min_psi = EXCLUDED.min_psi, alert_count = EXCLUDED.alert_count,
		     trajectory = EXCLUDED.trajectory`,
		sum.SessionID, sum.OpenedAt, sum.ClosedAt, sum.Turns, sum.LastTier,
		sum.MeanPsi, sum.MinPsi, sum.AlertCount, trajectory,
	)
	return err
}

func (s *SessionStore) GetSummary(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	sum := &domain.SessionSummary{}
	var trajectory pgvector.Vector
	err := s.db.QueryRow(ctx,
		`SELECT session_id, opened_at, closed_at, turns, last_tier, mean_psi, min_psi, alert_count, trajectory
		 FROM session_archive WHERE session_id = $1`,
		sessionID,
	).Scan(&sum.SessionID, &sum.OpenedAt, &sum.ClosedAt, &sum.Turns, &sum.LastTier,
		&sum.MeanPsi, &sum.MinPsi, &sum.AlertCount, &trajectory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sum.Trajectory = trajectory.Slice()
	return sum, nil
}

// SimilarTrajectories returns archived sessions whose Ψ windows are closest
// to the query window by cosine distance.
func (s *SessionStore) SimilarTrajectories(ctx context.Context, trajectory []float32, topK int) ([]domain.SimilarSession, error) {
	if topK <= 0 {
		topK = 10
	}

	rows, err := s.db.Query(ctx,
		`SELECT session_id, opened_at, closed_at, turns, last_tier, mean_psi, min_psi, alert_count, trajectory,
		        trajectory <=> $1 AS distance
		 FROM session_archive
		 ORDER BY trajectory <=> $1
		 LIMIT $2`,
		pgvector.NewVector(trajectory), topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SimilarSession
	for rows.Next() {
		var sim domain.SimilarSession
		var vec pgvector.Vector
		if err := rows.Scan(&sim.Summary.SessionID, &sim.Summary.OpenedAt, &sim.Summary.ClosedAt,
			&sim.Summary.Turns, &sim.Summary.LastTier, &sim.Summary.MeanPsi, &sim.Summary.MinPsi,
			&sim.Summary.AlertCount, &vec, &sim.Distance); err != nil {
			return nil, err
		}
		sim.Summary.Trajectory = vec.Slice()
		results = append(results, sim)
	}
	return results, rows.Err()
}
