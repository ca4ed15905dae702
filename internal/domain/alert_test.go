package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCrisisEventMarshalFixedFields(t *testing.T) {
	event := CrisisEvent{
		AlertID:    uuid.New(),
		Timestamp:  time.Now().UTC(),
		AlertType:  AlertTypeDarkNight,
		SessionID:  "s-1",
		TurnSeq:    3,
		Psi:        0.04,
		Components: Components{E: 0.8, I: 0.1, O: 0.5, PAlign: 0.9},
		Severity:   SeverityDarkNight,
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v, ok := decoded["human_required"].(bool); !ok || !v {
		t.Errorf("human_required = %v, want literal true", decoded["human_required"])
	}
	if v, ok := decoded["autonomous_action"].(bool); !ok || v {
		t.Errorf("autonomous_action = %v, want literal false", decoded["autonomous_action"])
	}
	if decoded["alert_type"] != AlertTypeDarkNight {
		t.Errorf("alert_type = %v, want %q", decoded["alert_type"], AlertTypeDarkNight)
	}

	comps, ok := decoded["components"].(map[string]any)
	if !ok {
		t.Fatalf("components missing from payload: %s", data)
	}
	for _, key := range []string{"E", "I", "O", "P_align"} {
		if _, ok := comps[key]; !ok {
			t.Errorf("components missing %q", key)
		}
	}
}

func TestCrisisEventAccessorsAreConstant(t *testing.T) {
	var event CrisisEvent
	if !event.HumanRequired() {
		t.Error("HumanRequired() must be true")
	}
	if event.AutonomousAction() {
		t.Error("AutonomousAction() must be false")
	}
}
