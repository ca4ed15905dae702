package config

import (
	"fmt"
	"os"

	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/atlaspsi/sentinel/internal/engine"
	"gopkg.in/yaml.v3"
)

// Policy mirrors the psi_policy.yaml layout. Only fields present in the
// file override engine defaults.
type Policy struct {
	Thresholds struct {
		Crisis   float64 `yaml:"crisis"`
		Caution  float64 `yaml:"caution"`
		Recovery float64 `yaml:"recovery"`
	} `yaml:"thresholds"`
	Recovery struct {
		MinTurns int `yaml:"min_turns"`
	} `yaml:"recovery"`
	// Window size must match the trajectory VECTOR dimension in the
	// session_archive migration when archival is enabled; pgvector rejects
	// inserts of any other dimension.
	Window struct {
		Size int `yaml:"size"`
	} `yaml:"window"`
	Alerts struct {
		CooldownTurns int `yaml:"cooldown_turns"`
		MaxExcerptLen int `yaml:"max_excerpt_len"`
	} `yaml:"alerts"`
	Resources *[]struct {
		Name    string `yaml:"name"`
		Contact string `yaml:"contact"`
	} `yaml:"resources"`
}

// LoadPolicy reads the policy file and compiles it into a validated engine
// config. An empty path yields the engine defaults. An explicitly empty
// resources list is rejected here: resource provision is mandatory and
// a policy file cannot silently switch it off.
func LoadPolicy(path string) (engine.Config, error) {
	var cfg engine.Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return engine.Config{}, fmt.Errorf("read policy %s: %w", path, err)
		}

		var p Policy
		if err := yaml.Unmarshal(data, &p); err != nil {
			return engine.Config{}, fmt.Errorf("parse policy %s: %w", path, err)
		}

		cfg.CrisisThreshold = p.Thresholds.Crisis
		cfg.CautionThreshold = p.Thresholds.Caution
		cfg.RecoveryThreshold = p.Thresholds.Recovery
		cfg.RecoveryMinTurns = p.Recovery.MinTurns
		cfg.WindowSize = p.Window.Size
		cfg.AlertCooldownTurns = p.Alerts.CooldownTurns
		cfg.MaxExcerptLen = p.Alerts.MaxExcerptLen

		if p.Resources != nil {
			if len(*p.Resources) == 0 {
				return engine.Config{}, fmt.Errorf("%w: policy resources list may not be empty", engine.ErrConfiguration)
			}
			for _, r := range *p.Resources {
				cfg.Resources = append(cfg.Resources, domain.Resource{Name: r.Name, Contact: r.Contact})
			}
		}
	}

	return engine.NewConfig(cfg)
}
