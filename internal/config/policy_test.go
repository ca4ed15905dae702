package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atlaspsi/sentinel/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psi_policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPolicyEmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := LoadPolicy("")
	require.NoError(t, err)

	assert.Equal(t, engine.DefaultCrisisThreshold, cfg.CrisisThreshold)
	assert.Equal(t, engine.DefaultCautionThreshold, cfg.CautionThreshold)
	assert.Equal(t, engine.DefaultRecoveryThreshold, cfg.RecoveryThreshold)
	assert.Equal(t, engine.DefaultRecoveryMinTurns, cfg.RecoveryMinTurns)
	assert.Equal(t, engine.DefaultWindowSize, cfg.WindowSize)
	assert.NotEmpty(t, cfg.Resources)
}

func TestLoadPolicyOverrides(t *testing.T) {
	path := writePolicy(t, `
thresholds:
  crisis: 0.03
  caution: 0.20
  recovery: 0.08
recovery:
  min_turns: 3
window:
  size: 16
alerts:
  cooldown_turns: 5
  max_excerpt_len: 120
resources:
  - name: "Local Crisis Line"
    contact: "call 112"
`)

	cfg, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 0.03, cfg.CrisisThreshold)
	assert.Equal(t, 0.20, cfg.CautionThreshold)
	assert.Equal(t, 0.08, cfg.RecoveryThreshold)
	assert.Equal(t, 3, cfg.RecoveryMinTurns)
	assert.Equal(t, 16, cfg.WindowSize)
	assert.Equal(t, 5, cfg.AlertCooldownTurns)
	assert.Equal(t, 120, cfg.MaxExcerptLen)
	require.Len(t, cfg.Resources, 1)
	assert.Equal(t, "Local Crisis Line", cfg.Resources[0].Name)
}

func TestLoadPolicyPartialFileKeepsDefaults(t *testing.T) {
	path := writePolicy(t, `
thresholds:
  crisis: 0.04
`)

	cfg, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 0.04, cfg.CrisisThreshold)
	assert.Equal(t, engine.DefaultCautionThreshold, cfg.CautionThreshold)
	assert.Equal(t, engine.DefaultRecoveryMinTurns, cfg.RecoveryMinTurns)
	assert.NotEmpty(t, cfg.Resources, "omitted resources fall back to the defaults")
}

func TestLoadPolicyRejectsEmptyResources(t *testing.T) {
	path := writePolicy(t, `
resources: []
`)

	_, err := LoadPolicy(path)
	assert.ErrorIs(t, err, engine.ErrConfiguration)
}

func TestLoadPolicyRejectsBadOrdering(t *testing.T) {
	path := writePolicy(t, `
thresholds:
  crisis: 0.20
  caution: 0.15
  recovery: 0.10
`)

	_, err := LoadPolicy(path)
	assert.ErrorIs(t, err, engine.ErrConfiguration)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadPolicyMalformedYAML(t *testing.T) {
	path := writePolicy(t, "thresholds: [not a map")
	_, err := LoadPolicy(path)
	assert.Error(t, err)
}
