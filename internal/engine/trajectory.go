package engine

import (
	"errors"
	"fmt"
)

// ErrSequenceViolation is returned when a turn arrives with a sequence
// number at or below the last one recorded for its session. It signals a
// caller-side ordering bug (replayed or reordered turns); the window is
// left untouched.
var ErrSequenceViolation = errors.New("turn sequence not strictly increasing")

type trajectoryPoint struct {
	turnSeq int64
	psi     float64
}

// Window is a fixed-capacity ring of recent (turn_seq, Ψ) pairs for one
// session. The oldest point is evicted on overflow. Not safe for concurrent
// use; each session owns exactly one window and turns are sequential.
type Window struct {
	points []trajectoryPoint
	head   int
	count  int
	sum    float64
	min    float64
	turns  int64
}

// NewWindow returns an empty trajectory window with the given capacity.
func NewWindow(capacity int) *Window {
	return &Window{points: make([]trajectoryPoint, capacity), min: 1}
}

// Len returns the number of points currently held.
func (w *Window) Len() int { return w.count }

// Turns returns the total number of points ever recorded, including
// evicted ones.
func (w *Window) Turns() int64 { return w.turns }

// MeanPsi returns the mean Ψ over all recorded turns (not just the
// retained window).
func (w *Window) MeanPsi() float64 {
	if w.turns == 0 {
		return 0
	}
	return w.sum / float64(w.turns)
}

// MinPsi returns the minimum Ψ ever recorded.
func (w *Window) MinPsi() float64 {
	if w.turns == 0 {
		return 0
	}
	return w.min
}

func (w *Window) at(i int) trajectoryPoint {
	// i counts from the oldest retained point.
	idx := (w.head + len(w.points) - w.count + i) % len(w.points)
	return w.points[idx]
}

func (w *Window) latest() trajectoryPoint {
	return w.at(w.count - 1)
}

// Record appends one turn's Ψ and returns the current velocity estimate.
//
// The estimator is the last-sample delta (Ψ_n − Ψ_{n−1}) / (seq_n −
// seq_{n−1}); this deployment fixes that choice over a short-window slope
// because it reacts within one turn, which matters at the crisis boundary.
// With fewer than two samples the velocity is 0 — no trend from one point.
func (w *Window) Record(turnSeq int64, psi float64) (float64, error) {
	if w.count > 0 {
		if prev := w.latest(); turnSeq <= prev.turnSeq {
			return 0, fmt.Errorf("%w: got %d after %d", ErrSequenceViolation, turnSeq, prev.turnSeq)
		}
	}

	velocity := 0.0
	if w.count > 0 {
		prev := w.latest()
		velocity = (psi - prev.psi) / float64(turnSeq-prev.turnSeq)
	}

	w.points[w.head] = trajectoryPoint{turnSeq: turnSeq, psi: psi}
	w.head = (w.head + 1) % len(w.points)
	if w.count < len(w.points) {
		w.count++
	}
	w.turns++
	w.sum += psi
	if psi < w.min {
		w.min = psi
	}
	return velocity, nil
}

// Tracker maintains one trajectory window per session, created on first
// use. Serialization of turns within a session is the caller's job; the
// strictly-increasing sequence check rejects anything that slips through.
type Tracker struct {
	windowSize int
	windows    map[string]*Window
}

// NewTracker returns a tracker whose windows hold windowSize points.
func NewTracker(windowSize int) *Tracker {
	return &Tracker{windowSize: windowSize, windows: make(map[string]*Window)}
}

// Record appends one turn for the session and returns the velocity
// estimate. An unseen session id gets a fresh window.
func (t *Tracker) Record(sessionID string, turnSeq int64, psi float64) (float64, error) {
	w, ok := t.windows[sessionID]
	if !ok {
		w = NewWindow(t.windowSize)
		t.windows[sessionID] = w
	}
	return w.Record(turnSeq, psi)
}

// Ensure returns the session's window, creating it if absent.
func (t *Tracker) Ensure(sessionID string) *Window {
	w, ok := t.windows[sessionID]
	if !ok {
		w = NewWindow(t.windowSize)
		t.windows[sessionID] = w
	}
	return w
}

// Window returns the session's window, or nil if none exists yet.
func (t *Tracker) Window(sessionID string) *Window {
	return t.windows[sessionID]
}

// Release drops the session's window.
func (t *Tracker) Release(sessionID string) {
	delete(t.windows, sessionID)
}

// Snapshot returns the retained Ψ values oldest-first, left-padded with
// zeros to the window capacity so trajectories of young sessions remain
// comparable as fixed-length vectors.
func (w *Window) Snapshot() []float32 {
	out := make([]float32, len(w.points))
	pad := len(w.points) - w.count
	for i := 0; i < w.count; i++ {
		out[pad+i] = float32(w.at(i).psi)
	}
	return out
}
