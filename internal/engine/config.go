package engine

import (
	"errors"
	"fmt"

	"github.com/atlaspsi/sentinel/internal/domain"
)

// Defaults for the classification thresholds and hysteresis parameters.
const (
	DefaultCrisisThreshold    = 0.05
	DefaultCautionThreshold   = 0.15
	DefaultRecoveryThreshold  = 0.10
	DefaultRecoveryMinTurns   = 2
	DefaultWindowSize         = 10
	DefaultAlertCooldownTurns = 0
	DefaultMaxExcerptLen      = 240
	DefaultPAlignDragFloor    = 0.20
)

// ErrConfiguration is returned from NewConfig when the supplied parameters
// cannot produce a sound engine. It is raised at construction time only; a
// misconfigured engine never runs.
var ErrConfiguration = errors.New("invalid engine configuration")

// Config is the validated parameter set for one engine deployment. Build it
// with NewConfig; the zero value is not usable.
type Config struct {
	// CrisisThreshold: Ψ at or below this enters SAFETY immediately.
	CrisisThreshold float64
	// CautionThreshold: Ψ at or above this is TRUTH territory.
	CautionThreshold float64
	// RecoveryThreshold: Ψ must hold at or above this to exit SAFETY.
	// Strictly between crisis and caution — the asymmetric band is the
	// hysteresis that stops boundary flapping.
	RecoveryThreshold float64
	// RecoveryMinTurns: consecutive qualifying turns required to exit SAFETY.
	RecoveryMinTurns int
	// WindowSize: trajectory ring capacity per session.
	WindowSize int
	// AlertCooldownTurns: 0 disables re-alerts within a single uninterrupted
	// SAFETY episode; n > 0 re-confirms after n further containment turns.
	AlertCooldownTurns int
	// MaxExcerptLen bounds the redacted excerpt attached to crisis events.
	MaxExcerptLen int
	// PAlignDragFloor: a P_align below this combined with negative velocity
	// demotes a candidate TRUTH to COHERENCE.
	PAlignDragFloor float64
	// Resources are the crisis contact channels rendered in every SAFETY
	// scaffold. Must be non-empty: resource provision is mandatory and not
	// configurable to empty.
	Resources []domain.Resource
}

// DefaultResources is the fallback crisis contact list.
func DefaultResources() []domain.Resource {
	return []domain.Resource{
		{Name: "988 Suicide & Crisis Lifeline", Contact: "call or text 988"},
		{Name: "Crisis Text Line", Contact: "text HOME to 741741"},
	}
}

// NewConfig validates and returns an engine configuration. Zero-valued
// numeric fields fall back to defaults before validation, so callers only
// set what they override.
func NewConfig(c Config) (Config, error) {
	if c.CrisisThreshold == 0 {
		c.CrisisThreshold = DefaultCrisisThreshold
	}
	if c.CautionThreshold == 0 {
		c.CautionThreshold = DefaultCautionThreshold
	}
	if c.RecoveryThreshold == 0 {
		c.RecoveryThreshold = DefaultRecoveryThreshold
	}
	if c.RecoveryMinTurns == 0 {
		c.RecoveryMinTurns = DefaultRecoveryMinTurns
	}
	if c.WindowSize == 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.MaxExcerptLen == 0 {
		c.MaxExcerptLen = DefaultMaxExcerptLen
	}
	if c.PAlignDragFloor == 0 {
		c.PAlignDragFloor = DefaultPAlignDragFloor
	}
	if len(c.Resources) == 0 {
		c.Resources = DefaultResources()
	}

	if c.CrisisThreshold <= 0 || c.CautionThreshold >= 1 {
		return Config{}, fmt.Errorf("%w: thresholds must lie inside (0,1)", ErrConfiguration)
	}
	if !(c.CrisisThreshold < c.RecoveryThreshold && c.RecoveryThreshold < c.CautionThreshold) {
		return Config{}, fmt.Errorf("%w: require crisis (%v) < recovery (%v) < caution (%v)",
			ErrConfiguration, c.CrisisThreshold, c.RecoveryThreshold, c.CautionThreshold)
	}
	if c.RecoveryMinTurns < 1 {
		return Config{}, fmt.Errorf("%w: recovery_min_turns must be >= 1", ErrConfiguration)
	}
	if c.WindowSize < 2 {
		return Config{}, fmt.Errorf("%w: window_size must be >= 2", ErrConfiguration)
	}
	if c.AlertCooldownTurns < 0 {
		return Config{}, fmt.Errorf("%w: alert_cooldown_turns must be >= 0", ErrConfiguration)
	}
	if c.MaxExcerptLen < 0 {
		return Config{}, fmt.Errorf("%w: max_excerpt_len must be >= 0", ErrConfiguration)
	}
	for _, r := range c.Resources {
		if r.Name == "" || r.Contact == "" {
			return Config{}, fmt.Errorf("%w: resource entries need name and contact", ErrConfiguration)
		}
	}
	return c, nil
}
