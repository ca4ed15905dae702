package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func crisisEvent() domain.CrisisEvent {
	return domain.CrisisEvent{
		AlertID:         uuid.New(),
		Timestamp:       time.Now().UTC(),
		AlertType:       domain.AlertTypeDarkNight,
		SessionID:       "sess-gw",
		TurnSeq:         4,
		Psi:             0.01,
		Velocity:        -0.08,
		Components:      domain.Components{E: 0.3, I: 0.2, O: 0.5, PAlign: 0.33},
		Severity:        domain.SeveritySevere,
		Reason:          "psi at or below crisis threshold",
		RedactedExcerpt: "redacted",
	}
}

func TestSendAlertDelivers(t *testing.T) {
	var got Package
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	logPath := filepath.Join(t.TempDir(), "alerts.log")
	c := NewClient(srv.URL, logPath, zaptest.NewLogger(t))

	event := crisisEvent()
	receipt, err := c.SendAlert(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "RECEIVED", receipt.Status)
	assert.True(t, receipt.HumanRequired)
	assert.True(t, strings.HasPrefix(receipt.GatewayID, "GW-"))

	assert.Equal(t, event.AlertID, got.Payload.AlertID)
	assert.True(t, got.HumanRequired)
	assert.False(t, got.AutonomousAction)
	assert.False(t, got.ConsentVerified, "consent is verified by humans downstream, never pre-set")
	assert.False(t, got.ReviewedByHuman)
}

func TestSendAlertLocalOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "alerts.log")
	c := NewClient("", logPath, zaptest.NewLogger(t))

	receipt, err := c.SendAlert(context.Background(), crisisEvent())
	require.NoError(t, err)
	assert.Equal(t, "LOGGED", receipt.Status)

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "one audit line per alert")

	var pkg Package
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &pkg))
	assert.Equal(t, receipt.GatewayID, pkg.GatewayID)
	assert.True(t, pkg.HumanRequired)
	assert.False(t, pkg.AutonomousAction)
	assert.False(t, scanner.Scan())
}

func TestSendAlertAuditBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	logPath := filepath.Join(t.TempDir(), "alerts.log")
	c := NewClient(srv.URL, logPath, zaptest.NewLogger(t))

	_, err := c.SendAlert(context.Background(), crisisEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	// A failed delivery still leaves the audit line behind.
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestWireBooleansAreLiteral(t *testing.T) {
	pkg := Package{
		GatewayID:     "GW-test",
		ReceivedAt:    time.Now().UTC(),
		Payload:       crisisEvent(),
		HumanRequired: true,
	}
	body, err := json.Marshal(pkg)
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, `"human_required":true`)
	assert.Contains(t, s, `"autonomous_action":false`)
}
