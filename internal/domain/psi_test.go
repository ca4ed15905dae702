package domain

import (
	"errors"
	"math"
	"testing"
)

func TestComputePsi(t *testing.T) {
	tests := []struct {
		name string
		c    Components
		want float64
	}{
		{"all ones", Components{1, 1, 1, 1}, 1.0},
		{"all halves", Components{0.5, 0.5, 0.5, 0.5}, 0.0625},
		{"mixed", Components{0.6, 0.7, 0.8, 0.9}, 0.6 * 0.7 * 0.8 * 0.9},
		{"zero E dominates", Components{0, 0.9, 0.9, 0.9}, 0},
		{"zero I dominates", Components{0.9, 0, 0.9, 0.9}, 0},
		{"zero O dominates", Components{0.9, 0.9, 0, 0.9}, 0},
		{"zero P_align dominates", Components{0.9, 0.9, 0.9, 0}, 0},
		{"weak factor bottlenecks", Components{0.9, 0.9, 0.9, 0.01}, 0.9 * 0.9 * 0.9 * 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputePsi(tt.c)
			if err != nil {
				t.Fatalf("ComputePsi(%+v) error: %v", tt.c, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ComputePsi(%+v) = %v, want %v", tt.c, got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("ComputePsi(%+v) = %v outside [0,1]", tt.c, got)
			}
		})
	}
}

func TestComputePsiInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		c    Components
	}{
		{"negative E", Components{-0.1, 0.5, 0.5, 0.5}},
		{"I above one", Components{0.5, 1.1, 0.5, 0.5}},
		{"NaN O", Components{0.5, 0.5, math.NaN(), 0.5}},
		{"infinite P_align", Components{0.5, 0.5, 0.5, math.Inf(1)}},
		{"negative infinity", Components{math.Inf(-1), 0.5, 0.5, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputePsi(tt.c)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ComputePsi(%+v) error = %v, want ErrInvalidInput", tt.c, err)
			}
		})
	}
}

func TestGradeSeverity(t *testing.T) {
	tests := []struct {
		psi  float64
		want Severity
	}{
		{0.004, SeverityExtreme},
		{0.0049999, SeverityExtreme},
		{0.005, SeveritySevere},
		{0.01, SeveritySevere},
		{0.02, SeverityDarkNight},
		{0.049, SeverityDarkNight},
	}

	for _, tt := range tests {
		if got := GradeSeverity(tt.psi); got != tt.want {
			t.Errorf("GradeSeverity(%v) = %v, want %v", tt.psi, got, tt.want)
		}
	}
}
