package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/atlaspsi/sentinel/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AlertHandler struct {
	alerts domain.AlertStore
}

func NewAlertHandler(alerts domain.AlertStore) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

type listAlertsResponse struct {
	SessionID string               `json:"session_id"`
	Alerts    []domain.AlertRecord `json:"alerts"`
	Count     int                  `json:"count"`
}

func (h *AlertHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	records, err := h.alerts.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, listAlertsResponse{SessionID: sessionID, Alerts: records, Count: len(records)})
}

func (h *AlertHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	record, err := h.alerts.GetByID(r.Context(), alertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load alert")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type verifyRequest struct {
	Reviewer string `json:"reviewer"`
}

// Review attaches a human reviewer's verification to an alert.
func (h *AlertHandler) Review(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.alerts.MarkReviewed, "reviewed")
}

// Consent records human-verified user consent for escalation.
func (h *AlertHandler) Consent(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.alerts.MarkConsent, "consent_verified")
}

func (h *AlertHandler) mark(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, string) error, status string) {
	alertID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reviewer == "" {
		writeError(w, http.StatusBadRequest, "reviewer is required")
		return
	}

	if err := fn(r.Context(), alertID, req.Reviewer); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update alert")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"alert_id": alertID.String(),
		"status":   status,
		"by":       req.Reviewer,
	})
}
