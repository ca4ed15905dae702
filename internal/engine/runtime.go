package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/atlaspsi/sentinel/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already open")
)

// session is the state owned exclusively by one conversational session.
// The mutex serializes turns within the session; sessions never share
// state, so distinct sessions evaluate in parallel without contention.
type session struct {
	mu         sync.Mutex
	closed     bool
	window     *Window
	tier       TierState
	alerts     alertState
	openedAt   time.Time
	lastSeen   time.Time
	alertCount int
}

// Runtime is the engine façade. It owns the session registry and sequences
// calculator → tracker → classifier → scaffold → alert builder per turn.
// Evaluation is atomic: a rejected sample leaves session state exactly as
// it was. The runtime performs no delivery and no autonomous action of any
// kind; crisis events are returned to the caller, never acted on.
type Runtime struct {
	cfg        Config
	classifier *Classifier
	scaffolds  *ScaffoldSelector
	alerts     *AlertBuilder
	logger     *zap.Logger

	mu       sync.RWMutex
	tracker  *Tracker
	sessions map[string]*session
}

// NewRuntime builds a runtime over a validated Config (see NewConfig).
func NewRuntime(cfg Config, logger *zap.Logger) *Runtime {
	return &Runtime{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		scaffolds:  NewScaffoldSelector(cfg),
		alerts:     NewAlertBuilder(cfg),
		logger:     logger,
		tracker:    NewTracker(cfg.WindowSize),
		sessions:   make(map[string]*session),
	}
}

// Open registers a new session. Lifecycle is explicit: callers open before
// the first turn and close when the conversation ends; the runtime never
// expires state on its own.
func (r *Runtime) Open(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; ok {
		return ErrSessionExists
	}
	now := time.Now()
	r.sessions[sessionID] = &session{
		window:   r.tracker.Ensure(sessionID),
		openedAt: now,
		lastSeen: now,
	}
	r.logger.Debug("session opened", zap.String("session_id", sessionID))
	return nil
}

// Evaluate runs one sample through the full pipeline and returns the
// composite result. Within a session turns are strictly sequential; a
// concurrent second turn blocks on the session lock and then fails the
// sequence check if it arrived out of order.
func (r *Runtime) Evaluate(sample domain.CoherenceSample) (*domain.EvaluationResult, error) {
	r.mu.RLock()
	s, ok := r.sessions[sample.SessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	// Validate before any state mutation.
	psi, err := domain.ComputePsi(sample.Components)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The pointer was captured under the registry read-lock; a concurrent
	// Close may have removed the session since. Evaluating against the
	// orphaned state would produce a result nothing ever reflects.
	if s.closed {
		return nil, ErrSessionNotFound
	}

	velocity, err := s.window.Record(sample.TurnSeq, psi)
	if err != nil {
		return nil, err
	}

	tierState, tierRes := r.classifier.Evaluate(s.tier, ClassifierInput{
		Psi:        psi,
		Velocity:   velocity,
		Components: sample.Components,
		Flags:      sample.Flags,
	})

	scaffold := r.scaffolds.Select(tierRes.Tier, tierRes.SafetyEntry, tierRes.TurnsInTier)

	alertState, event := r.alerts.Build(s.alerts, sample, tierRes)

	// Commit. Nothing below can fail.
	prevTier := s.tier.Tier
	s.tier = tierState
	s.alerts = alertState
	s.lastSeen = time.Now()
	if event != nil {
		s.alertCount++
	}

	if tierRes.Edge != domain.EdgeNone {
		r.logger.Info("tier transition",
			zap.String("session_id", sample.SessionID),
			zap.Int64("turn_seq", sample.TurnSeq),
			zap.String("from", string(prevTier)),
			zap.String("to", string(tierRes.Tier)),
			zap.Float64("psi", psi),
			zap.Float64("velocity", velocity),
			zap.String("reason", tierRes.Reason))
	} else {
		r.logger.Debug("turn evaluated",
			zap.String("session_id", sample.SessionID),
			zap.Int64("turn_seq", sample.TurnSeq),
			zap.String("tier", string(tierRes.Tier)),
			zap.Float64("psi", psi))
	}

	return &domain.EvaluationResult{
		SessionID:   sample.SessionID,
		TurnSeq:     sample.TurnSeq,
		Psi:         psi,
		Velocity:    velocity,
		Tier:        tierRes.Tier,
		Edge:        tierRes.Edge,
		TurnsInTier: tierRes.TurnsInTier,
		Scaffold:    scaffold,
		CrisisEvent: event,
	}, nil
}

// Status reports the current tier state of an open session.
func (r *Runtime) Status(sessionID string) (*domain.TierResult, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionNotFound
	}
	tier := s.tier.Tier
	if tier == "" {
		tier = domain.TierTruth
	}
	res := &domain.TierResult{
		Tier:        tier,
		Edge:        domain.EdgeNone,
		TurnsInTier: s.tier.TurnsInTier,
	}
	if s.window.Len() > 0 {
		res.Psi = float64(s.window.latest().psi)
	}
	return res, nil
}

// Close releases the session's window and tier state and returns a summary
// suitable for archival.
func (r *Runtime) Close(sessionID string) (*domain.SessionSummary, error) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	r.tracker.Release(sessionID)
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	lastTier := s.tier.Tier
	if lastTier == "" {
		lastTier = domain.TierTruth
	}
	summary := &domain.SessionSummary{
		SessionID:  sessionID,
		OpenedAt:   s.openedAt,
		ClosedAt:   time.Now(),
		Turns:      s.window.Turns(),
		LastTier:   lastTier,
		MeanPsi:    s.window.MeanPsi(),
		MinPsi:     s.window.MinPsi(),
		AlertCount: s.alertCount,
		Trajectory: s.window.Snapshot(),
	}
	r.logger.Info("session closed",
		zap.String("session_id", sessionID),
		zap.Int64("turns", summary.Turns),
		zap.String("last_tier", string(summary.LastTier)),
		zap.Int("alerts", summary.AlertCount))
	return summary, nil
}

// IdleSessions returns ids of sessions with no turn in the given duration.
// Used by the caller-side archiver; the runtime itself never expires state.
func (r *Runtime) IdleSessions(idle time.Duration) []string {
	cutoff := time.Now().Add(-idle)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, s := range r.sessions {
		s.mu.Lock()
		last := s.lastSeen
		s.mu.Unlock()
		if last.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// OpenCount returns the number of live sessions.
func (r *Runtime) OpenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
