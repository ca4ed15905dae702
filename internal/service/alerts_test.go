package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/atlaspsi/sentinel/internal/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockDeliverer struct {
	mu      sync.Mutex
	sent    []domain.CrisisEvent
	receipt *gateway.Receipt
	err     error
}

func (m *mockDeliverer) SendAlert(_ context.Context, event domain.CrisisEvent) (*gateway.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, event)
	if m.err != nil {
		return nil, m.err
	}
	return m.receipt, nil
}

type insertCall struct {
	event     domain.CrisisEvent
	gatewayID string
	status    string
}

type mockAlertStore struct {
	mu      sync.Mutex
	inserts []insertCall
	err     error
}

func (m *mockAlertStore) Insert(_ context.Context, event domain.CrisisEvent, gatewayID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts = append(m.inserts, insertCall{event: event, gatewayID: gatewayID, status: status})
	return m.err
}

func (m *mockAlertStore) GetByID(context.Context, uuid.UUID) (*domain.AlertRecord, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAlertStore) ListBySession(context.Context, string) ([]domain.AlertRecord, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAlertStore) MarkReviewed(context.Context, uuid.UUID, string) error {
	return errors.New("not implemented")
}

func (m *mockAlertStore) MarkConsent(context.Context, uuid.UUID, string) error {
	return errors.New("not implemented")
}

func testEvent() domain.CrisisEvent {
	return domain.CrisisEvent{
		AlertID:   uuid.New(),
		Timestamp: time.Now(),
		AlertType: domain.AlertTypeDarkNight,
		SessionID: "sess-1",
		TurnSeq:   7,
		Psi:       0.003,
		Severity:  domain.SeverityExtreme,
		Reason:    "psi at or below crisis threshold",
	}
}

func TestDispatchDeliversAndAudits(t *testing.T) {
	deliverer := &mockDeliverer{receipt: &gateway.Receipt{GatewayID: "GW-123", Status: "RECEIVED"}}
	store := &mockAlertStore{}
	svc := NewAlertService(deliverer, store, zaptest.NewLogger(t))

	event := testEvent()
	svc.Dispatch(event)
	svc.Wait()

	require.Len(t, deliverer.sent, 1)
	assert.Equal(t, event.AlertID, deliverer.sent[0].AlertID)

	require.Len(t, store.inserts, 1)
	assert.Equal(t, "GW-123", store.inserts[0].gatewayID)
	assert.Equal(t, "RECEIVED", store.inserts[0].status)
}

func TestDispatchAuditsDeliveryFailure(t *testing.T) {
	deliverer := &mockDeliverer{err: errors.New("gateway unreachable")}
	store := &mockAlertStore{}
	svc := NewAlertService(deliverer, store, zaptest.NewLogger(t))

	svc.Dispatch(testEvent())
	svc.Wait()

	require.Len(t, store.inserts, 1)
	assert.Equal(t, "DELIVERY_FAILED", store.inserts[0].status)
	assert.Empty(t, store.inserts[0].gatewayID)
}

func TestDispatchWithoutStore(t *testing.T) {
	deliverer := &mockDeliverer{receipt: &gateway.Receipt{GatewayID: "GW-9", Status: "LOGGED"}}
	svc := NewAlertService(deliverer, nil, zaptest.NewLogger(t))

	svc.Dispatch(testEvent())
	svc.Wait()

	assert.Len(t, deliverer.sent, 1)
}

func TestDispatchConcurrent(t *testing.T) {
	deliverer := &mockDeliverer{receipt: &gateway.Receipt{GatewayID: "GW-1", Status: "RECEIVED"}}
	store := &mockAlertStore{}
	svc := NewAlertService(deliverer, store, zaptest.NewLogger(t))

	for i := 0; i < 10; i++ {
		svc.Dispatch(testEvent())
	}
	svc.Wait()

	assert.Len(t, deliverer.sent, 10)
	assert.Len(t, store.inserts, 10)
}
