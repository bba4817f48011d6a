package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/riskgov/internal/capital"
	"github.com/sawpanic/riskgov/internal/confidence"
	"github.com/sawpanic/riskgov/internal/meta"
	"github.com/sawpanic/riskgov/internal/quarantine"
	"github.com/sawpanic/riskgov/internal/threat"
)

// Config is the full riskgov configuration tree.
type Config struct {
	Threat     *threat.DetectorConfig   `yaml:"threat"`
	Confidence *confidence.EngineConfig `yaml:"confidence"`
	Quarantine *quarantine.Config       `yaml:"quarantine"`
	Capital    *capital.Config          `yaml:"capital"`
	Meta       *meta.Config             `yaml:"meta"`

	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// ServerConfig configures the HTTP control-plane surface.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// Manual-reset attempts allowed per minute at the HTTP boundary
	ResetRatePerMinute float64 `yaml:"reset_rate_per_minute"`
	ResetBurst         int     `yaml:"reset_burst"`
}

// RedisConfig configures the snapshot store; empty Addr disables it.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	SnapshotKey string `yaml:"snapshot_key"`
}

// PostgresConfig configures the decision audit ledger; empty DSN disables it.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Threat:     threat.DefaultDetectorConfig(),
		Confidence: confidence.DefaultEngineConfig(),
		Quarantine: quarantine.DefaultConfig(),
		Capital:    capital.DefaultConfig(),
		Meta:       meta.DefaultConfig(),
		Server: ServerConfig{
			ListenAddr:         ":8090",
			ResetRatePerMinute: 3,
			ResetBurst:         1,
		},
	}
}

// Load reads the YAML config, layering it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate enforces the construction-time configuration contract.
// Inverted or nonsensical thresholds are refused here, never discovered
// at evaluation time.
func (c *Config) Validate() error {
	if c.Meta != nil {
		if c.Meta.OperationalThreshold <= c.Meta.DegradedThreshold {
			return fmt.Errorf("meta thresholds inverted: operational %.2f must exceed degraded %.2f",
				c.Meta.OperationalThreshold, c.Meta.DegradedThreshold)
		}
		if c.Meta.DegradedThreshold <= c.Meta.WarningThreshold {
			return fmt.Errorf("meta thresholds inverted: degraded %.2f must exceed warning %.2f",
				c.Meta.DegradedThreshold, c.Meta.WarningThreshold)
		}
	}

	if c.Capital != nil {
		if c.Capital.GrowThreshold <= c.Capital.HoldThreshold {
			return fmt.Errorf("capital thresholds inverted: grow %.2f must exceed hold %.2f",
				c.Capital.GrowThreshold, c.Capital.HoldThreshold)
		}
		if c.Capital.MinCapitalFraction <= 0 || c.Capital.MinCapitalFraction >= c.Capital.MaxCapitalFraction {
			return fmt.Errorf("capital fraction bounds invalid: floor %.2f, cap %.2f",
				c.Capital.MinCapitalFraction, c.Capital.MaxCapitalFraction)
		}
		if c.Capital.GrowthRate <= 1.0 {
			return fmt.Errorf("capital growth rate %.3f must exceed 1.0", c.Capital.GrowthRate)
		}
		if c.Capital.MaxDailyShrink <= 0 || c.Capital.MaxDailyShrink >= 1.0 {
			return fmt.Errorf("capital max daily shrink %.2f must be in (0, 1)", c.Capital.MaxDailyShrink)
		}
	}

	if c.Quarantine != nil {
		if c.Quarantine.InitialQuarantinePct <= 0 || c.Quarantine.InitialQuarantinePct > c.Quarantine.MaxQuarantinePct {
			return fmt.Errorf("quarantine pct bounds invalid: initial %.2f, max %.2f",
				c.Quarantine.InitialQuarantinePct, c.Quarantine.MaxQuarantinePct)
		}
		if c.Quarantine.MaxQuarantinePct > 1.0 {
			return fmt.Errorf("quarantine max pct %.2f exceeds 1.0", c.Quarantine.MaxQuarantinePct)
		}
		if c.Quarantine.StabilityPeriod <= 0 {
			return fmt.Errorf("quarantine stability period must be positive")
		}
		if c.Quarantine.EscalationFactor <= 1.0 {
			return fmt.Errorf("quarantine escalation factor %.2f must exceed 1.0", c.Quarantine.EscalationFactor)
		}
	}

	if c.Threat != nil {
		if c.Threat.MinSamplesForBaseline < 2 {
			return fmt.Errorf("threat min samples %d too small for a variance estimate", c.Threat.MinSamplesForBaseline)
		}
		if c.Threat.ZScoreThreshold <= 0 {
			return fmt.Errorf("threat z-score threshold must be positive")
		}
		if c.Threat.JointProbabilityThreshold <= 0 || c.Threat.JointProbabilityThreshold >= 1 {
			return fmt.Errorf("threat joint probability threshold %.4f must be in (0, 1)", c.Threat.JointProbabilityThreshold)
		}
	}

	if c.Confidence != nil && c.Confidence.Drawdown != nil {
		if c.Confidence.Drawdown.WarningDrawdownPct >= c.Confidence.Drawdown.CriticalDrawdownPct {
			return fmt.Errorf("drawdown thresholds inverted: warning %.1f must be below critical %.1f",
				c.Confidence.Drawdown.WarningDrawdownPct, c.Confidence.Drawdown.CriticalDrawdownPct)
		}
	}

	return nil
}
