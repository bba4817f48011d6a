package quarantine

import (
	"time"

	"github.com/sawpanic/riskgov/internal/timex"
)

// Trigger identifies which risk condition activated the quarantine.
type Trigger string

const (
	TriggerNone             Trigger = "NONE"
	TriggerDrawdownVelocity Trigger = "DRAWDOWN_VELOCITY"
	TriggerVolatilitySpike  Trigger = "VOLATILITY_SPIKE"
	TriggerCombinedRisk     Trigger = "COMBINED_RISK"
	TriggerManual           Trigger = "MANUAL"
)

// Config contains the quarantine trigger and release thresholds
type Config struct {
	// Drawdown velocity in %/hour that immediately quarantines
	DrawdownVelocityThreshold float64 `yaml:"drawdown_velocity_threshold"` // ≥2.0 %/h

	// Volatility vs. baseline ratio that immediately quarantines
	VolatilityRatioThreshold float64 `yaml:"volatility_ratio_threshold"` // ≥2.0×

	// Weighted combined risk score that quarantines
	CombinedRiskThreshold float64 `yaml:"combined_risk_threshold"` // ≥1.5

	// Combined-risk weights: velocity, volatility, drawdown level
	VelocityWeight      float64 `yaml:"velocity_weight"`       // 0.4
	VolatilityWeight    float64 `yaml:"volatility_weight"`     // 0.4
	DrawdownLevelWeight float64 `yaml:"drawdown_level_weight"` // 0.2

	// Drawdown level (%) that normalizes to 1.0 in the combined score
	ReferenceDrawdownPct float64 `yaml:"reference_drawdown_pct"` // 15%

	// Capital fraction locked on first activation
	InitialQuarantinePct float64 `yaml:"initial_quarantine_pct"` // 25%

	// Hard cap on locked capital
	MaxQuarantinePct float64 `yaml:"max_quarantine_pct"` // 50%

	// Trigger value growth that escalates an active quarantine
	EscalationRatio float64 `yaml:"escalation_ratio"` // >1.5× previous

	// Multiplicative lock increase on escalation
	EscalationFactor float64 `yaml:"escalation_factor"` // ×1.5

	// Continuous calm required before release
	StabilityPeriod timex.Duration `yaml:"stability_period"` // 2h
}

// DefaultConfig returns production-ready quarantine thresholds
func DefaultConfig() *Config {
	return &Config{
		DrawdownVelocityThreshold: 2.0,
		VolatilityRatioThreshold:  2.0,
		CombinedRiskThreshold:     1.5,
		VelocityWeight:            0.4,
		VolatilityWeight:          0.4,
		DrawdownLevelWeight:       0.2,
		ReferenceDrawdownPct:      15.0,
		InitialQuarantinePct:      0.25,
		MaxQuarantinePct:          0.50,
		EscalationRatio:           1.5,
		EscalationFactor:          1.5,
		StabilityPeriod:           timex.Duration(2 * time.Hour),
	}
}

// Inputs carries the per-tick risk measurements.
type Inputs struct {
	DrawdownVelocityPctPerHour float64 `json:"drawdown_velocity_pct_per_hour"`
	VolatilityRatio            float64 `json:"volatility_ratio"`
	CurrentDrawdownPct         float64 `json:"current_drawdown_pct"`
}

// State is the immutable per-tick snapshot of the quarantine.
type State struct {
	IsActive      bool      `json:"is_active"`
	QuarantinePct float64   `json:"quarantine_pct"`
	Trigger       Trigger   `json:"trigger"`
	TriggerValue  float64   `json:"trigger_value"`
	ActivatedAt   time.Time `json:"activated_at,omitempty"`
	ReleasedAt    time.Time `json:"released_at,omitempty"`

	// StableFor is how long the controller has been continuously
	// normalized while still active; zero when not yet normalized.
	StableFor time.Duration `json:"stable_for"`
}

// Controller locks a fraction of capital when risk spikes and releases it
// only after a proven stability period with no re-trigger. Owns the only
// mutable quarantine state; drive it from a single control loop.
type Controller struct {
	config *Config

	active        bool
	quarantinePct float64
	trigger       Trigger
	triggerValue  float64
	activatedAt   time.Time
	releasedAt    time.Time

	// firstNormalizedAt marks the start of the current stability window;
	// zero while risk is still elevated.
	firstNormalizedAt time.Time
}

// NewController creates a quarantine controller
func NewController(config *Config) *Controller {
	if config == nil {
		config = DefaultConfig()
	}
	return &Controller{
		config:  config,
		trigger: TriggerNone,
	}
}

// Evaluate runs one quarantine tick: checks triggers in priority order,
// escalates an active quarantine on a worsening trigger, and releases
// after the stability period passes with no re-trigger.
func (c *Controller) Evaluate(inputs Inputs, now time.Time) State {
	trigger, value := c.detectTrigger(inputs)

	if trigger != TriggerNone {
		c.onTrigger(trigger, value, now)
	} else if c.active {
		c.onNormalized(now)
	}

	return c.Snapshot(now)
}

// detectTrigger checks the three trigger conditions in priority order.
func (c *Controller) detectTrigger(inputs Inputs) (Trigger, float64) {
	if inputs.DrawdownVelocityPctPerHour >= c.config.DrawdownVelocityThreshold {
		return TriggerDrawdownVelocity, inputs.DrawdownVelocityPctPerHour
	}
	if inputs.VolatilityRatio >= c.config.VolatilityRatioThreshold {
		return TriggerVolatilitySpike, inputs.VolatilityRatio
	}

	combined := c.config.VelocityWeight*(inputs.DrawdownVelocityPctPerHour/c.config.DrawdownVelocityThreshold) +
		c.config.VolatilityWeight*(inputs.VolatilityRatio/c.config.VolatilityRatioThreshold) +
		c.config.DrawdownLevelWeight*(inputs.CurrentDrawdownPct/c.config.ReferenceDrawdownPct)
	if combined >= c.config.CombinedRiskThreshold {
		return TriggerCombinedRisk, combined
	}

	return TriggerNone, 0
}

func (c *Controller) onTrigger(trigger Trigger, value float64, now time.Time) {
	// Any trigger during the stability window resets the timer.
	c.firstNormalizedAt = time.Time{}

	if !c.active {
		c.active = true
		c.quarantinePct = c.config.InitialQuarantinePct
		c.trigger = trigger
		c.triggerValue = value
		c.activatedAt = now
		c.releasedAt = time.Time{}
		return
	}

	// Already active: escalate only when the trigger is materially worse.
	if c.triggerValue > 0 && value > c.config.EscalationRatio*c.triggerValue {
		c.quarantinePct *= c.config.EscalationFactor
		if c.quarantinePct > c.config.MaxQuarantinePct {
			c.quarantinePct = c.config.MaxQuarantinePct
		}
		c.trigger = trigger
		c.triggerValue = value
	}
}

func (c *Controller) onNormalized(now time.Time) {
	if c.firstNormalizedAt.IsZero() {
		c.firstNormalizedAt = now
		return
	}
	if now.Sub(c.firstNormalizedAt) >= c.config.StabilityPeriod.Std() {
		c.release(now)
	}
}

func (c *Controller) release(now time.Time) {
	c.active = false
	c.quarantinePct = 0
	c.trigger = TriggerNone
	c.triggerValue = 0
	c.releasedAt = now
	c.firstNormalizedAt = time.Time{}
}

// ForceActivate bypasses trigger logic for operator intervention.
func (c *Controller) ForceActivate(pct float64, now time.Time) {
	if pct > c.config.MaxQuarantinePct {
		pct = c.config.MaxQuarantinePct
	}
	c.active = true
	c.quarantinePct = pct
	c.trigger = TriggerManual
	c.triggerValue = 0
	c.activatedAt = now
	c.releasedAt = time.Time{}
	c.firstNormalizedAt = time.Time{}
}

// ForceRelease bypasses the stability period for operator intervention.
func (c *Controller) ForceRelease(now time.Time) {
	if c.active {
		c.release(now)
	}
}

// Snapshot returns the immutable view of the current quarantine state.
func (c *Controller) Snapshot(now time.Time) State {
	state := State{
		IsActive:      c.active,
		QuarantinePct: c.quarantinePct,
		Trigger:       c.trigger,
		TriggerValue:  c.triggerValue,
		ActivatedAt:   c.activatedAt,
		ReleasedAt:    c.releasedAt,
	}
	if c.active && !c.firstNormalizedAt.IsZero() {
		state.StableFor = now.Sub(c.firstNormalizedAt)
	}
	return state
}

// AvailableCapitalFraction returns the deployable fraction of capital.
func (c *Controller) AvailableCapitalFraction() float64 {
	return 1.0 - c.quarantinePct
}

// IsActive reports whether capital is currently quarantined.
func (c *Controller) IsActive() bool {
	return c.active
}

// RestoreState rebuilds the controller's internal state from a snapshot.
func (c *Controller) RestoreState(active bool, pct float64, trigger Trigger, triggerValue float64, activatedAt, firstNormalizedAt time.Time) {
	c.active = active
	c.quarantinePct = pct
	c.trigger = trigger
	c.triggerValue = triggerValue
	c.activatedAt = activatedAt
	c.firstNormalizedAt = firstNormalizedAt
	c.releasedAt = time.Time{}
}
