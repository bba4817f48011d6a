package meta

import (
	"fmt"
	"time"

	"github.com/sawpanic/riskgov/internal/threat"
)

// TrustState is the meta governor's discrete trust classification.
type TrustState string

const (
	StateOperational   TrustState = "OPERATIONAL"
	StateDegraded      TrustState = "DEGRADED"
	StateWarning       TrustState = "WARNING"
	StateCritical      TrustState = "CRITICAL"
	StateUnknownThreat TrustState = "UNKNOWN_THREAT"
)

// ResetPhrase is the exact confirmation phrase the operator gate must
// supply to clear a manual-reset lock.
const ResetPhrase = "CONFIRM RESET META GOVERNOR"

// Config contains trust classification thresholds and the override table
type Config struct {
	OperationalThreshold float64 `yaml:"operational_threshold"` // ≥0.80
	DegradedThreshold    float64 `yaml:"degraded_threshold"`    // ≥0.60
	WarningThreshold     float64 `yaml:"warning_threshold"`     // ≥0.40, below is CRITICAL

	// Capital overrides by state; OPERATIONAL carries none
	DegradedOverride float64 `yaml:"degraded_override"` // 0.75
	WarningOverride  float64 `yaml:"warning_override"`  // 0.50
	CriticalOverride float64 `yaml:"critical_override"` // 0.10

	// Trust score assigned after a successful manual reset. Never back to
	// OPERATIONAL directly: the system re-earns trust from DEGRADED.
	ResetTrustScore float64 `yaml:"reset_trust_score"` // 0.65

	Detector *threat.DetectorConfig `yaml:"detector"`
}

// DefaultConfig returns production-ready meta governor thresholds
func DefaultConfig() *Config {
	return &Config{
		OperationalThreshold: 0.80,
		DegradedThreshold:    0.60,
		WarningThreshold:     0.40,
		DegradedOverride:     0.75,
		WarningOverride:      0.50,
		CriticalOverride:     0.10,
		ResetTrustScore:      0.65,
		Detector:             threat.DefaultDetectorConfig(),
	}
}

// Decision is the immutable output of one meta evaluation. When
// CapitalOverride is non-nil it replaces the capital governor's fraction
// outright; it is never blended.
type Decision struct {
	TrustState          TrustState               `json:"trust_state"`
	TrustScore          float64                  `json:"trust_score"`
	SubScores           *TrustSubScores          `json:"sub_scores,omitempty"`
	Threats             *threat.ThreatAssessment `json:"threats,omitempty"`
	AllowsTrading       bool                     `json:"allows_trading"`
	AllowsEntries       bool                     `json:"allows_entries"`
	AllowsExits         bool                     `json:"allows_exits"`
	CapitalOverride     *float64                 `json:"capital_override,omitempty"`
	RequiresManualReset bool                     `json:"requires_manual_reset"`
	Reason              string                   `json:"reason"`
	Timestamp           time.Time                `json:"timestamp"`
}

// Governor is the supreme trust authority. It can override every decision
// below it, including the capital governor's fraction. One mutable
// aggregate driven by a single control loop; no internal locking.
type Governor struct {
	config   *Config
	detector *threat.Detector

	trustState          TrustState
	trustScore          float64
	requiresManualReset bool
}

// NewGovernor creates a meta governor with its own threat detector
func NewGovernor(config *Config) *Governor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Governor{
		config:     config,
		detector:   threat.NewDetector(config.Detector),
		trustState: StateOperational,
		trustScore: FullTrust,
	}
}

// Detector exposes the owned unknown-threat detector for baseline warming
// and correlation registration.
func (g *Governor) Detector() *threat.Detector {
	return g.detector
}

// Evaluate produces one meta decision in strict order: a pending manual
// reset short-circuits everything, then unknown threats, then trust
// scoring. Exits are always allowed: the system must be able to reduce
// risk no matter how degraded.
func (g *Governor) Evaluate(trustInputs TrustInputs, metricObservations map[string]float64, now time.Time) Decision {
	if g.requiresManualReset {
		return g.lockedDecision("manual reset required before trading resumes", nil, now)
	}

	var assessment *threat.ThreatAssessment
	if metricObservations != nil {
		assessment = g.detector.Evaluate(metricObservations, now)
		if assessment.HasUnknownThreats {
			g.trustState = StateUnknownThreat
			g.requiresManualReset = true
			return g.lockedDecision(
				fmt.Sprintf("unknown threat: %d anomalous metrics, max |z|=%.2f, joint p=%.2e",
					assessment.ThreatCount, assessment.MaxAbsZScore, assessment.JointProbability),
				assessment, now)
		}
	}

	subScores := computeTrustSubScores(trustInputs, now)
	g.trustScore = subScores.Min()
	g.trustState = g.classify(g.trustScore)

	decision := Decision{
		TrustState:  g.trustState,
		TrustScore:  g.trustScore,
		SubScores:   &subScores,
		Threats:     assessment,
		AllowsExits: true,
		Timestamp:   now,
	}

	switch g.trustState {
	case StateOperational:
		decision.AllowsTrading = true
		decision.AllowsEntries = true
		decision.Reason = fmt.Sprintf("trust %.3f ≥ %.2f: full trading, no override", g.trustScore, g.config.OperationalThreshold)

	case StateDegraded:
		decision.AllowsTrading = true
		decision.AllowsEntries = true
		decision.CapitalOverride = f64ptr(g.config.DegradedOverride)
		decision.Reason = fmt.Sprintf("trust %.3f degraded: capital overridden to %.2f", g.trustScore, g.config.DegradedOverride)

	case StateWarning:
		decision.AllowsTrading = true
		decision.AllowsEntries = true
		decision.CapitalOverride = f64ptr(g.config.WarningOverride)
		decision.Reason = fmt.Sprintf("trust %.3f warning: capital overridden to %.2f", g.trustScore, g.config.WarningOverride)

	case StateCritical:
		g.requiresManualReset = true
		decision.AllowsTrading = false
		decision.AllowsEntries = false
		decision.CapitalOverride = f64ptr(g.config.CriticalOverride)
		decision.RequiresManualReset = true
		decision.Reason = fmt.Sprintf("trust %.3f critical: entries blocked, manual reset required", g.trustScore)

	case StateUnknownThreat:
		// Unreachable here: unknown threats short-circuit above.
	}

	return decision
}

// lockedDecision builds the exits-only decision used for manual-reset and
// unknown-threat lockouts.
func (g *Governor) lockedDecision(reason string, assessment *threat.ThreatAssessment, now time.Time) Decision {
	g.requiresManualReset = true
	return Decision{
		TrustState:          g.trustState,
		TrustScore:          g.trustScore,
		Threats:             assessment,
		AllowsTrading:       false,
		AllowsEntries:       false,
		AllowsExits:         true,
		CapitalOverride:     f64ptr(g.config.CriticalOverride),
		RequiresManualReset: true,
		Reason:              reason,
		Timestamp:           now,
	}
}

func (g *Governor) classify(score float64) TrustState {
	switch {
	case score >= g.config.OperationalThreshold:
		return StateOperational
	case score >= g.config.DegradedThreshold:
		return StateDegraded
	case score >= g.config.WarningThreshold:
		return StateWarning
	default:
		return StateCritical
	}
}

// ManualReset clears a manual-reset lock when the exact confirmation
// phrase is supplied. The operator gate validates cooldown and intent
// before calling; this core only matches the phrase. Success resets into
// DEGRADED: trust is re-earned, never restored outright. Failure is a
// result, not an error, and changes nothing.
func (g *Governor) ManualReset(phrase string) (bool, string) {
	if phrase != ResetPhrase {
		return false, "Invalid confirmation phrase: manual reset refused"
	}

	g.requiresManualReset = false
	g.trustState = StateDegraded
	g.trustScore = g.config.ResetTrustScore

	return true, fmt.Sprintf("manual reset accepted: trust state %s, score %.2f", g.trustState, g.trustScore)
}

// TrustState returns the current trust state.
func (g *Governor) TrustState() TrustState {
	return g.trustState
}

// TrustScore returns the current trust score.
func (g *Governor) TrustScore() float64 {
	return g.trustScore
}

// RequiresManualReset reports whether the governor is locked.
func (g *Governor) RequiresManualReset() bool {
	return g.requiresManualReset
}

// RestoreState rebuilds the governor's internal state from a snapshot.
// Detector baselines are restored separately through the detector.
func (g *Governor) RestoreState(state TrustState, score float64, requiresManualReset bool) {
	g.trustState = state
	g.trustScore = score
	g.requiresManualReset = requiresManualReset
}

// Summary returns a concise human-readable decision line.
func (d Decision) Summary() string {
	override := "none"
	if d.CapitalOverride != nil {
		override = fmt.Sprintf("%.2f", *d.CapitalOverride)
	}
	return fmt.Sprintf("%s — trust %.3f, entries=%t exits=%t override=%s: %s",
		d.TrustState, d.TrustScore, d.AllowsEntries, d.AllowsExits, override, d.Reason)
}

func f64ptr(v float64) *float64 {
	return &v
}
