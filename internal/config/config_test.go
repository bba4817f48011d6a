package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
quarantine:
  stability_period: 3h
  initial_quarantine_pct: 0.30
capital:
  grow_threshold: 0.80
  euphoria:
    ath_freeze_duration: 48h
server:
  listen_addr: ":9999"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden values.
	assert.Equal(t, 3*time.Hour, cfg.Quarantine.StabilityPeriod.Std())
	assert.Equal(t, 0.30, cfg.Quarantine.InitialQuarantinePct)
	assert.Equal(t, 0.80, cfg.Capital.GrowThreshold)
	assert.Equal(t, 48*time.Hour, cfg.Capital.Euphoria.ATHFreezeDuration.Std())
	assert.Equal(t, ":9999", cfg.Server.ListenAddr)

	// Untouched values keep their defaults.
	assert.Equal(t, 0.50, cfg.Quarantine.MaxQuarantinePct)
	assert.Equal(t, 0.30, cfg.Capital.HoldThreshold)
	assert.Equal(t, int64(100), cfg.Threat.MinSamplesForBaseline)
	assert.Equal(t, 0.80, cfg.Meta.OperationalThreshold)
}

func TestLoad_ShippedConfigParses(t *testing.T) {
	cfg, err := Load("../../config/governor.yaml")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Quarantine.StabilityPeriod.Std())
	assert.Equal(t, 24*time.Hour, cfg.Capital.Euphoria.ATHFreezeDuration.Std())
	assert.Equal(t, 0.65, cfg.Meta.ResetTrustScore)
	assert.Equal(t, ":8090", cfg.Server.ListenAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "quarantine: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "quarantine:\n  stability_period: two hours\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestValidate_RejectsBrokenThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errHas string
	}{
		{
			name:   "meta operational below degraded",
			mutate: func(c *Config) { c.Meta.OperationalThreshold = 0.50 },
			errHas: "meta thresholds inverted",
		},
		{
			name:   "meta degraded below warning",
			mutate: func(c *Config) { c.Meta.DegradedThreshold = 0.30 },
			errHas: "meta thresholds inverted",
		},
		{
			name:   "capital grow below hold",
			mutate: func(c *Config) { c.Capital.GrowThreshold = 0.20 },
			errHas: "capital thresholds inverted",
		},
		{
			name:   "capital fraction floor above cap",
			mutate: func(c *Config) { c.Capital.MinCapitalFraction = 1.5 },
			errHas: "fraction bounds invalid",
		},
		{
			name:   "growth rate not multiplicative",
			mutate: func(c *Config) { c.Capital.GrowthRate = 1.0 },
			errHas: "growth rate",
		},
		{
			name:   "shrink out of range",
			mutate: func(c *Config) { c.Capital.MaxDailyShrink = 1.0 },
			errHas: "max daily shrink",
		},
		{
			name:   "quarantine initial above max",
			mutate: func(c *Config) { c.Quarantine.InitialQuarantinePct = 0.60 },
			errHas: "quarantine pct bounds",
		},
		{
			name:   "quarantine zero stability period",
			mutate: func(c *Config) { c.Quarantine.StabilityPeriod = 0 },
			errHas: "stability period",
		},
		{
			name:   "quarantine escalation factor too small",
			mutate: func(c *Config) { c.Quarantine.EscalationFactor = 1.0 },
			errHas: "escalation factor",
		},
		{
			name:   "threat joint probability out of range",
			mutate: func(c *Config) { c.Threat.JointProbabilityThreshold = 1.0 },
			errHas: "joint probability",
		},
		{
			name:   "drawdown warning above critical",
			mutate: func(c *Config) { c.Confidence.Drawdown.WarningDrawdownPct = 20.0 },
			errHas: "drawdown thresholds inverted",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errHas)
		})
	}
}
