package capital

import (
	"fmt"
	"time"

	"github.com/sawpanic/riskgov/internal/confidence"
	"github.com/sawpanic/riskgov/internal/quarantine"
)

// ScalingState is the capital governor's discrete decision state.
type ScalingState string

const (
	StateGrow       ScalingState = "GROW"
	StateHold       ScalingState = "HOLD"
	StateShrink     ScalingState = "SHRINK"
	StateFreeze     ScalingState = "FREEZE"
	StateQuarantine ScalingState = "QUARANTINE"
)

// Size multipliers by scaling state. Fixed by design.
const (
	sizeMultiplierNormal     = 1.0
	sizeMultiplierShrink     = 0.5
	sizeMultiplierFreeze     = 0.75
	sizeMultiplierQuarantine = 0.25
)

// Config contains the capital scaling thresholds
type Config struct {
	// Confidence boundaries for scaling classification
	GrowThreshold float64 `yaml:"grow_threshold"` // ≥0.75 grows
	HoldThreshold float64 `yaml:"hold_threshold"` // ≥0.30 holds, below shrinks

	// Growth is multiplicative per evaluation, double-capped
	GrowthRate      float64 `yaml:"growth_rate"`       // ×1.05 per grow step
	MaxWeeklyGrowth float64 `yaml:"max_weekly_growth"` // +0.10 absolute per step

	// Shrink bounds
	MaxDailyShrink     float64 `yaml:"max_daily_shrink"`     // at most 40% reduction
	MinCapitalFraction float64 `yaml:"min_capital_fraction"` // hard floor 0.10

	MaxCapitalFraction     float64 `yaml:"max_capital_fraction"`     // absolute cap 1.0
	InitialCapitalFraction float64 `yaml:"initial_capital_fraction"` // starting allocation

	Euphoria *EuphoriaConfig `yaml:"euphoria"`
}

// DefaultConfig returns production-ready capital scaling thresholds
func DefaultConfig() *Config {
	return &Config{
		GrowThreshold:          0.75,
		HoldThreshold:          0.30,
		GrowthRate:             1.05,
		MaxWeeklyGrowth:        0.10,
		MaxDailyShrink:         0.40,
		MinCapitalFraction:     0.10,
		MaxCapitalFraction:     1.0,
		InitialCapitalFraction: 0.50,
		Euphoria:               DefaultEuphoriaConfig(),
	}
}

// Inputs carries the per-tick account and performance measurements.
type Inputs struct {
	CurrentEquity float64 `json:"current_equity"`
	DailyPnLPct   float64 `json:"daily_pnl_pct"`
	WinStreak     int     `json:"win_streak"`

	Quarantine quarantine.Inputs `json:"quarantine"`
}

// Decision is the immutable, fully self-describing output of one capital
// evaluation. Every field is always populated; SubScores is nil only when
// the caller supplied no confidence inputs.
type Decision struct {
	State                  ScalingState          `json:"state"`
	AllowedCapitalFraction float64               `json:"allowed_capital_fraction"`
	SizeMultiplier         float64               `json:"size_multiplier"`
	Confidence             float64               `json:"confidence"`
	SubScores              *confidence.SubScores `json:"sub_scores,omitempty"`
	Quarantine             quarantine.State      `json:"quarantine"`
	FreezeReason           FreezeReason          `json:"freeze_reason"`
	FreezeUntil            time.Time             `json:"freeze_until,omitempty"`
	Reason                 string                `json:"reason"`
	Timestamp              time.Time             `json:"timestamp"`
}

// Governor decides how much capital the system may deploy. One mutable
// aggregate driven by a single control loop; evaluation is a deterministic
// function of (prior state, inputs, now).
type Governor struct {
	config     *Config
	quarantine *quarantine.Controller
	euphoria   *euphoriaEngine

	scalingState    ScalingState
	allowedFraction float64
}

// NewGovernor creates a capital governor with its own quarantine controller
func NewGovernor(config *Config, qc *quarantine.Controller) *Governor {
	if config == nil {
		config = DefaultConfig()
	}
	if qc == nil {
		qc = quarantine.NewController(nil)
	}
	return &Governor{
		config:          config,
		quarantine:      qc,
		euphoria:        newEuphoriaEngine(config.Euphoria),
		scalingState:    StateHold,
		allowedFraction: config.InitialCapitalFraction,
	}
}

// Quarantine exposes the owned controller for operator intervention.
func (g *Governor) Quarantine() *quarantine.Controller {
	return g.quarantine
}

// Evaluate produces one capital decision in strict priority order:
// quarantine beats euphoria beats confidence scaling. Confidence is
// irrelevant while quarantined, and the allowed fraction is held constant
// while frozen.
func (g *Governor) Evaluate(inputs Inputs, subScores *confidence.SubScores, now time.Time) Decision {
	qState := g.quarantine.Evaluate(inputs.Quarantine, now)

	composite := confidence.NeutralScore
	if subScores != nil {
		composite = subScores.Composite
	}

	if qState.IsActive {
		g.scalingState = StateQuarantine
		return Decision{
			State:                  StateQuarantine,
			AllowedCapitalFraction: 1.0 - qState.QuarantinePct,
			SizeMultiplier:         sizeMultiplierQuarantine,
			Confidence:             composite,
			SubScores:              subScores,
			Quarantine:             qState,
			FreezeReason:           FreezeNone,
			Reason:                 fmt.Sprintf("quarantine active: %s locked %.0f%% of capital", qState.Trigger, qState.QuarantinePct*100),
			Timestamp:              now,
		}
	}

	if !g.euphoria.isFrozen(now) {
		if reason, detail := g.euphoria.checkEuphoria(inputs.CurrentEquity, inputs.WinStreak, inputs.DailyPnLPct, now); reason != FreezeNone {
			g.scalingState = StateFreeze
			return g.freezeDecision(composite, subScores, qState, detail, now)
		}
	} else {
		g.scalingState = StateFreeze
		return g.freezeDecision(composite, subScores, qState, "freeze window still open", now)
	}

	state, newFraction, reason := g.classify(composite)
	g.scalingState = state
	g.allowedFraction = newFraction

	sizeMultiplier := sizeMultiplierNormal
	if state == StateShrink {
		sizeMultiplier = sizeMultiplierShrink
	}

	return Decision{
		State:                  state,
		AllowedCapitalFraction: newFraction,
		SizeMultiplier:         sizeMultiplier,
		Confidence:             composite,
		SubScores:              subScores,
		Quarantine:             qState,
		FreezeReason:           FreezeNone,
		Reason:                 reason,
		Timestamp:              now,
	}
}

func (g *Governor) freezeDecision(composite float64, subScores *confidence.SubScores, qState quarantine.State, detail string, now time.Time) Decision {
	return Decision{
		State:                  StateFreeze,
		AllowedCapitalFraction: g.allowedFraction,
		SizeMultiplier:         sizeMultiplierFreeze,
		Confidence:             composite,
		SubScores:              subScores,
		Quarantine:             qState,
		FreezeReason:           g.euphoria.freezeReason,
		FreezeUntil:            g.euphoria.freezeUntil,
		Reason:                 fmt.Sprintf("euphoria freeze (%s): %s", g.euphoria.freezeReason, detail),
		Timestamp:              now,
	}
}

// classify maps composite confidence to a scaling state and the new
// allowed fraction.
func (g *Governor) classify(composite float64) (ScalingState, float64, string) {
	current := g.allowedFraction

	switch {
	case composite >= g.config.GrowThreshold:
		target := current * g.config.GrowthRate
		if limit := current + g.config.MaxWeeklyGrowth; target > limit {
			target = limit
		}
		if target > g.config.MaxCapitalFraction {
			target = g.config.MaxCapitalFraction
		}
		return StateGrow, target,
			fmt.Sprintf("confidence %.3f ≥ %.2f: growing %.3f → %.3f", composite, g.config.GrowThreshold, current, target)

	case composite >= g.config.HoldThreshold:
		return StateHold, current,
			fmt.Sprintf("confidence %.3f in [%.2f, %.2f): holding at %.3f", composite, g.config.HoldThreshold, g.config.GrowThreshold, current)

	default:
		// Shrink proportionally to how far below the hold threshold
		// confidence fell, bounded by the daily shrink cap and floor.
		shortfall := (g.config.HoldThreshold - composite) / g.config.HoldThreshold
		target := current * (1.0 - shortfall*g.config.MaxDailyShrink)
		if target < g.config.MinCapitalFraction {
			target = g.config.MinCapitalFraction
		}
		return StateShrink, target,
			fmt.Sprintf("confidence %.3f < %.2f: shrinking %.3f → %.3f", composite, g.config.HoldThreshold, current, target)
	}
}

// ForceFreeze opens a manual freeze window for operator intervention.
func (g *Governor) ForceFreeze(duration time.Duration, now time.Time) {
	g.euphoria.freeze(FreezeManual, duration, now)
	g.scalingState = StateFreeze
}

// State returns the current scaling state.
func (g *Governor) State() ScalingState {
	return g.scalingState
}

// AllowedCapitalFraction returns the current allowed fraction.
func (g *Governor) AllowedCapitalFraction() float64 {
	return g.allowedFraction
}

// RestoreState rebuilds the governor's internal state from a snapshot.
// The quarantine controller is restored separately through its own
// RestoreState.
func (g *Governor) RestoreState(state ScalingState, allowedFraction float64, freezeUntil time.Time, freezeReason FreezeReason, peakEquity float64, winStreak int) {
	g.scalingState = state
	g.allowedFraction = allowedFraction
	g.euphoria.freezeUntil = freezeUntil
	g.euphoria.freezeReason = freezeReason
	g.euphoria.peakEquity = peakEquity
	g.euphoria.winStreak = winStreak
}

// PeakEquity returns the tracked all-time-high equity.
func (g *Governor) PeakEquity() float64 {
	return g.euphoria.peakEquity
}

// WinStreak returns the consecutive-win count from the last evaluation.
func (g *Governor) WinStreak() int {
	return g.euphoria.winStreak
}

// FreezeUntil returns the end of the current freeze window, if any.
func (g *Governor) FreezeUntil() time.Time {
	return g.euphoria.freezeUntil
}

// FreezeReasonNow returns the reason for the current freeze window.
func (g *Governor) FreezeReasonNow() FreezeReason {
	return g.euphoria.freezeReason
}

// Summary returns a concise human-readable decision line.
func (d Decision) Summary() string {
	return fmt.Sprintf("%s: capital %.1f%%, size x%.2f (confidence %.3f): %s",
		d.State, d.AllowedCapitalFraction*100, d.SizeMultiplier, d.Confidence, d.Reason)
}
