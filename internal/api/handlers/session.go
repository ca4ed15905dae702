package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/atlaspsi/sentinel/internal/engine"
	"github.com/atlaspsi/sentinel/internal/service"
	"github.com/atlaspsi/sentinel/internal/store"
	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	runtime  *engine.Runtime
	alerts   *service.AlertService
	archiver *service.Archiver
	sessions domain.SessionStore
}

func NewSessionHandler(runtime *engine.Runtime, alerts *service.AlertService, archiver *service.Archiver, sessions domain.SessionStore) *SessionHandler {
	return &SessionHandler{runtime: runtime, alerts: alerts, archiver: archiver, sessions: sessions}
}

type openSessionRequest struct {
	SessionID string `json:"session_id"`
}

func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.runtime.Open(req.SessionID); err != nil {
		if errors.Is(err, engine.ErrSessionExists) {
			writeError(w, http.StatusConflict, "session already open")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": req.SessionID, "status": "open"})
}

type evaluateRequest struct {
	TurnSeq     int64            `json:"turn_seq"`
	E           float64          `json:"E"`
	I           float64          `json:"I"`
	O           float64          `json:"O"`
	PAlign      float64          `json:"P_align"`
	Timestamp   *time.Time       `json:"timestamp,omitempty"`
	TextExcerpt string           `json:"text_excerpt,omitempty"`
	Flags       domain.HardFlags `json:"flags,omitempty"`
	// AutoOpen opens the session on first use instead of requiring an
	// explicit open call.
	AutoOpen bool `json:"auto_open,omitempty"`
}

func (h *SessionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	sample := domain.CoherenceSample{
		SessionID:   sessionID,
		TurnSeq:     req.TurnSeq,
		Components:  domain.Components{E: req.E, I: req.I, O: req.O, PAlign: req.PAlign},
		Timestamp:   ts,
		TextExcerpt: req.TextExcerpt,
		Flags:       req.Flags,
	}

	result, err := h.runtime.Evaluate(sample)
	if err != nil && errors.Is(err, engine.ErrSessionNotFound) && req.AutoOpen {
		if err = h.runtime.Open(sessionID); err == nil || errors.Is(err, engine.ErrSessionExists) {
			result, err = h.runtime.Evaluate(sample)
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not open")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, engine.ErrSequenceViolation):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "evaluation failed")
		}
		return
	}

	// Delivery is strictly after classification: the result is complete
	// here no matter what the gateway does.
	if result.CrisisEvent != nil {
		h.alerts.Dispatch(*result.CrisisEvent)
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	status, err := h.runtime.Status(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not open")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	summary, err := h.archiver.CloseAndArchive(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not open")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to close session")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Archived serves the stored summary of a closed session.
func (h *SessionHandler) Archived(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session archive not configured")
		return
	}
	sessionID := chi.URLParam(r, "id")

	summary, err := h.sessions.GetSummary(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not archived")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type similarResponse struct {
	SessionID string                  `json:"session_id"`
	Similar   []domain.SimilarSession `json:"similar"`
}

// Similar returns archived sessions whose Ψ trajectories are nearest to the
// given archived session's.
func (h *SessionHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session archive not configured")
		return
	}
	sessionID := chi.URLParam(r, "id")

	topK := 10
	if v := r.URL.Query().Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k <= 0 || k > 100 {
			writeError(w, http.StatusBadRequest, "invalid top_k")
			return
		}
		topK = k
	}

	summary, err := h.sessions.GetSummary(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not archived")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	similar, err := h.sessions.SimilarTrajectories(r.Context(), summary.Trajectory, topK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "similarity lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, similarResponse{SessionID: sessionID, Similar: similar})
}
