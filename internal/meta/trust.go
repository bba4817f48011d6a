package meta

import (
	"time"
)

// FullTrust is the fail-open default for trust components the caller did
// not compute this tick. This is deliberately different from the
// confidence engine's fail-neutral 0.5: an omitted trust input means "not
// checked", not "suspect". Flagged as an open design question against the
// platform's fail-closed philosophy; preserved as specified.
const FullTrust = 1.0

// DataTrustInputs carries pre-normalized [0,1] data-health scores.
// Nil components default to FullTrust.
type DataTrustInputs struct {
	StalenessScore  *float64 `json:"staleness_score,omitempty"`
	DriftScore      *float64 `json:"drift_score,omitempty"`
	SpreadScore     *float64 `json:"spread_score,omitempty"`
	DepthScore      *float64 `json:"depth_score,omitempty"`
	DivergenceScore *float64 `json:"divergence_score,omitempty"`
}

// ExecutionTrustInputs carries pre-normalized [0,1] execution-health scores.
type ExecutionTrustInputs struct {
	SlippageScore *float64 `json:"slippage_score,omitempty"`
	FillRateScore *float64 `json:"fill_rate_score,omitempty"`
	LatencyScore  *float64 `json:"latency_score,omitempty"`
	RejectScore   *float64 `json:"reject_score,omitempty"`
}

// AlphaTrustInputs carries pre-normalized [0,1] alpha-health scores.
type AlphaTrustInputs struct {
	EdgeDecayScore   *float64 `json:"edge_decay_score,omitempty"`
	SignalNoiseScore *float64 `json:"signal_noise_score,omitempty"`
	HitRateScore     *float64 `json:"hit_rate_score,omitempty"`
}

// RiskTrustInputs carries pre-normalized [0,1] risk-discipline scores.
type RiskTrustInputs struct {
	DrawdownScore      *float64 `json:"drawdown_score,omitempty"`
	ExposureScore      *float64 `json:"exposure_score,omitempty"`
	LeverageScore      *float64 `json:"leverage_score,omitempty"`
	ConcentrationScore *float64 `json:"concentration_score,omitempty"`
}

// ConsistencyTrustInputs carries pre-normalized [0,1] behavioral scores.
type ConsistencyTrustInputs struct {
	PnLVolatilityScore    *float64 `json:"pnl_volatility_score,omitempty"`
	BehaviorScore         *float64 `json:"behavior_score,omitempty"`
	ReplayDivergenceScore *float64 `json:"replay_divergence_score,omitempty"`
}

// TrustInputs aggregates the five trust dimensions. A nil dimension
// defaults the whole sub-score to FullTrust.
type TrustInputs struct {
	Data        *DataTrustInputs        `json:"data,omitempty"`
	Execution   *ExecutionTrustInputs   `json:"execution,omitempty"`
	Alpha       *AlphaTrustInputs       `json:"alpha,omitempty"`
	Risk        *RiskTrustInputs        `json:"risk,omitempty"`
	Consistency *ConsistencyTrustInputs `json:"consistency,omitempty"`
}

// TrustSubScores is the immutable snapshot of the five trust dimensions.
// Each is itself a MIN over its component checks: one failing component
// caps the dimension, one failing dimension caps the system.
type TrustSubScores struct {
	Data        float64   `json:"data"`
	Execution   float64   `json:"execution"`
	Alpha       float64   `json:"alpha"`
	Risk        float64   `json:"risk"`
	Consistency float64   `json:"consistency"`
	Timestamp   time.Time `json:"timestamp"`
}

// Min returns the weakest-link trust score.
func (ts TrustSubScores) Min() float64 {
	min := ts.Data
	for _, s := range []float64{ts.Execution, ts.Alpha, ts.Risk, ts.Consistency} {
		if s < min {
			min = s
		}
	}
	return min
}

// computeTrustSubScores evaluates the five dimensions from the supplied
// inputs.
func computeTrustSubScores(inputs TrustInputs, now time.Time) TrustSubScores {
	scores := TrustSubScores{
		Data:        FullTrust,
		Execution:   FullTrust,
		Alpha:       FullTrust,
		Risk:        FullTrust,
		Consistency: FullTrust,
		Timestamp:   now,
	}

	if inputs.Data != nil {
		scores.Data = minOf(inputs.Data.StalenessScore, inputs.Data.DriftScore,
			inputs.Data.SpreadScore, inputs.Data.DepthScore, inputs.Data.DivergenceScore)
	}
	if inputs.Execution != nil {
		scores.Execution = minOf(inputs.Execution.SlippageScore, inputs.Execution.FillRateScore,
			inputs.Execution.LatencyScore, inputs.Execution.RejectScore)
	}
	if inputs.Alpha != nil {
		scores.Alpha = minOf(inputs.Alpha.EdgeDecayScore, inputs.Alpha.SignalNoiseScore,
			inputs.Alpha.HitRateScore)
	}
	if inputs.Risk != nil {
		scores.Risk = minOf(inputs.Risk.DrawdownScore, inputs.Risk.ExposureScore,
			inputs.Risk.LeverageScore, inputs.Risk.ConcentrationScore)
	}
	if inputs.Consistency != nil {
		scores.Consistency = minOf(inputs.Consistency.PnLVolatilityScore,
			inputs.Consistency.BehaviorScore, inputs.Consistency.ReplayDivergenceScore)
	}

	return scores
}

// minOf takes the minimum over the provided component scores, treating
// nil as FullTrust and clamping each to [0,1].
func minOf(components ...*float64) float64 {
	min := FullTrust
	for _, c := range components {
		if c == nil {
			continue
		}
		v := *c
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		if v < min {
			min = v
		}
	}
	return min
}
