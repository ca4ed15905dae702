package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a coherence factor is non-finite or
// outside [0,1]. Samples carrying such a factor are rejected before any
// session state is touched.
var ErrInvalidInput = errors.New("coherence factor out of range")

// Components holds the four normalized coherence factors for one turn.
//
//	E      — emotional intensity
//	I      — information clarity
//	O      — order / control
//	PAlign — purpose alignment (meaning)
type Components struct {
	E      float64 `json:"E"`
	I      float64 `json:"I"`
	O      float64 `json:"O"`
	PAlign float64 `json:"P_align"`
}

// ComputePsi derives the coherence signal Ψ = E·I·O·P_align.
// The product form is deliberate: a single collapsing factor drives Ψ
// toward zero, so coherence is bottlenecked by its weakest dimension
// rather than averaged across them.
func ComputePsi(c Components) (float64, error) {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"E", c.E},
		{"I", c.I},
		{"O", c.O},
		{"P_align", c.PAlign},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 || f.value > 1 {
			return 0, fmt.Errorf("%w: %s=%v", ErrInvalidInput, f.name, f.value)
		}
	}
	return c.E * c.I * c.O * c.PAlign, nil
}

// Severity grades how deep a crisis-band Ψ reading is.
type Severity string

const (
	SeverityDarkNight Severity = "DARK_NIGHT"
	SeveritySevere    Severity = "SEVERE"
	SeverityExtreme   Severity = "EXTREME"
)

const (
	extremePsi = 0.005
	severePsi  = 0.02
)

// GradeSeverity maps a crisis-band Ψ to its alert severity.
func GradeSeverity(psi float64) Severity {
	switch {
	case psi < extremePsi:
		return SeverityExtreme
	case psi < severePsi:
		return SeveritySevere
	default:
		return SeverityDarkNight
	}
}
