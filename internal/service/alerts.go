package service

import (
	"context"
	"sync"
	"time"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/atlaspsi/sentinel/internal/gateway"
	"go.uber.org/zap"
)

const dispatchTimeout = 15 * time.Second

// AlertDeliverer sends a crisis event onward to human review.
type AlertDeliverer interface {
	SendAlert(ctx context.Context, event domain.CrisisEvent) (*gateway.Receipt, error)
}

// AlertService owns the delivery path for crisis events: forward to the
// safety gateway, then record the outcome in the audit log. Dispatch is
// asynchronous and happens only after the engine has already returned its
// result — delivery failures degrade the audit record, never the
// classification or the scaffold.
type AlertService struct {
	deliverer AlertDeliverer
	store     domain.AlertStore
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewAlertService(deliverer AlertDeliverer, store domain.AlertStore, logger *zap.Logger) *AlertService {
	return &AlertService{deliverer: deliverer, store: store, logger: logger}
}

// Dispatch hands the event off in a background goroutine and returns
// immediately.
func (s *AlertService) Dispatch(event domain.CrisisEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		s.deliver(ctx, event)
	}()
}

func (s *AlertService) deliver(ctx context.Context, event domain.CrisisEvent) {
	gatewayID := ""
	status := "DELIVERY_FAILED"

	receipt, err := s.deliverer.SendAlert(ctx, event)
	if err != nil {
		s.logger.Warn("alert delivery failed",
			zap.String("alert_id", event.AlertID.String()),
			zap.String("session_id", event.SessionID),
			zap.Error(err))
	} else {
		gatewayID = receipt.GatewayID
		status = receipt.Status
		s.logger.Info("crisis alert delivered",
			zap.String("alert_id", event.AlertID.String()),
			zap.String("gateway_id", receipt.GatewayID),
			zap.String("status", receipt.Status),
			zap.String("severity", string(event.Severity)))
	}

	if s.store == nil {
		return
	}
	if err := s.store.Insert(ctx, event, gatewayID, status); err != nil {
		s.logger.Error("alert audit insert failed",
			zap.String("alert_id", event.AlertID.String()),
			zap.Error(err))
	}
}

// Wait blocks until in-flight dispatches finish. Used on shutdown so a
// crisis alert raised on the last turn is not dropped.
func (s *AlertService) Wait() {
	s.wg.Wait()
}
