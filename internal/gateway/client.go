// Package gateway forwards crisis events to a human-review safety gateway.
//
// Delivery runs strictly after classification has returned its result, so a
// slow or failing gateway can never delay or skip tier selection. The
// client never contacts emergency services and never escalates on its own:
// it packages, logs, and hands off. Human-in-loop is mandatory on the far
// side.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const deliverTimeout = 10 * time.Second

// Package wraps a CrisisEvent for transmission. The wrapper repeats the
// non-autonomy constants at the envelope level because the gateway contract
// checks them there too.
type Package struct {
	GatewayID        string             `json:"gateway_id"`
	ReceivedAt       time.Time          `json:"received_at"`
	Payload          domain.CrisisEvent `json:"payload"`
	AutonomousAction bool               `json:"autonomous_action"`
	HumanRequired    bool               `json:"human_required"`
	ConsentVerified  bool               `json:"consent_verified"`
	ReviewedByHuman  bool               `json:"reviewed_by_human"`
}

// Receipt is the delivery acknowledgement returned to the caller.
type Receipt struct {
	GatewayID     string    `json:"gateway_id"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	HumanRequired bool      `json:"human_required"`
}

// Client delivers alert packages over HTTP and appends every package to a
// local audit log. With no URL configured it is local-log-only, which keeps
// development and tests offline.
type Client struct {
	gatewayURL string
	logPath    string
	httpClient *http.Client
	logger     *zap.Logger

	mu sync.Mutex // serializes audit log appends
}

func NewClient(gatewayURL, logPath string, logger *zap.Logger) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		logPath:    logPath,
		httpClient: &http.Client{Timeout: deliverTimeout},
		logger:     logger,
	}
}

// SendAlert packages the event, writes the local audit line, and forwards
// to the gateway when one is configured. The local log is written before
// the network call so an unreachable gateway still leaves an audit trail.
func (c *Client) SendAlert(ctx context.Context, event domain.CrisisEvent) (*Receipt, error) {
	pkg := Package{
		GatewayID:        fmt.Sprintf("GW-%s", uuid.NewString()),
		ReceivedAt:       time.Now().UTC(),
		Payload:          event,
		AutonomousAction: false,
		HumanRequired:    true,
	}

	if err := c.appendLocal(pkg); err != nil {
		c.logger.Warn("alert audit log write failed",
			zap.String("alert_id", event.AlertID.String()),
			zap.Error(err))
	}

	status := "LOGGED"
	if c.gatewayURL != "" {
		if err := c.post(ctx, pkg); err != nil {
			return nil, fmt.Errorf("deliver alert %s: %w", event.AlertID, err)
		}
		status = "RECEIVED"
	}

	return &Receipt{
		GatewayID:     pkg.GatewayID,
		Status:        status,
		Timestamp:     pkg.ReceivedAt,
		HumanRequired: true,
	}, nil
}

func (c *Client) post(ctx context.Context, pkg Package) error {
	body, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("marshal alert package: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func (c *Client) appendLocal(pkg Package) error {
	line, err := json.Marshal(pkg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(append(line, '\n'))
	return err
}
