package service

import (
	"context"
	"sync"
	"time"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/atlaspsi/sentinel/internal/engine"
	"go.uber.org/zap"
)

const defaultSweepInterval = 1 * time.Minute

// Archiver closes sessions that have gone idle and persists their
// summaries. Session lifecycle is deliberately outside the engine core;
// this service is the caller-side owner of it.
type Archiver struct {
	runtime *engine.Runtime
	store   domain.SessionStore
	logger  *zap.Logger

	idleTTL  time.Duration
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewArchiver(runtime *engine.Runtime, store domain.SessionStore, idleTTL time.Duration, logger *zap.Logger) *Archiver {
	return &Archiver{
		runtime:  runtime,
		store:    store,
		logger:   logger,
		idleTTL:  idleTTL,
		interval: defaultSweepInterval,
		stopCh:   make(chan struct{}),
	}
}

func (a *Archiver) SetInterval(d time.Duration) {
	a.interval = d
}

// CloseAndArchive closes the session in the runtime and, when a store is
// configured, persists the summary. The close always wins: an archive
// failure is logged, not propagated, because releasing engine state must
// not depend on storage availability.
func (a *Archiver) CloseAndArchive(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	summary, err := a.runtime.Close(sessionID)
	if err != nil {
		return nil, err
	}
	if a.store != nil {
		if err := a.store.Archive(ctx, summary); err != nil {
			a.logger.Error("session archive failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
	return summary, nil
}

// Start runs the idle sweep on a periodic schedule in a background goroutine.
func (a *Archiver) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		a.logger.Info("session archiver started",
			zap.Duration("idle_ttl", a.idleTTL),
			zap.Duration("interval", a.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				a.sweep(ctx)
				cancel()
			case <-a.stopCh:
				a.logger.Info("session archiver stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the archiver.
func (a *Archiver) Stop() {
	close(a.stopCh)
	a.wg.Wait()
}

func (a *Archiver) sweep(ctx context.Context) {
	for _, id := range a.runtime.IdleSessions(a.idleTTL) {
		if _, err := a.CloseAndArchive(ctx, id); err != nil {
			a.logger.Warn("idle session close failed",
				zap.String("session_id", id),
				zap.Error(err))
			continue
		}
		a.logger.Info("idle session archived", zap.String("session_id", id))
	}
}
