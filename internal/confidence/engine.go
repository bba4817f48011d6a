package confidence

import (
	"time"
)

// NeutralScore is the fail-neutral default: a sub-score whose inputs the
// caller did not compute contributes the midpoint, degrading the composite
// toward indifference rather than toward failure. This is deliberately
// different from the meta governor's fail-open trust default.
const NeutralScore = 0.5

// Composite weights. Fixed by design; they sum to 1.0.
const (
	WeightEdgeStability           = 0.25
	WeightMarketStability         = 0.15
	WeightExecutionQuality        = 0.20
	WeightImpactContainment       = 0.15
	WeightDrawdownDiscipline      = 0.15
	WeightStrategyDiversification = 0.10
)

// Inputs carries the optional per-calculator input structs for one tick.
// A nil field means the upstream collaborator did not compute that
// dimension this tick.
type Inputs struct {
	Edge            *EdgeStabilityInputs           `json:"edge,omitempty"`
	Market          *MarketStabilityInputs         `json:"market,omitempty"`
	Execution       *ExecutionQualityInputs        `json:"execution,omitempty"`
	Impact          *ImpactContainmentInputs       `json:"impact,omitempty"`
	Drawdown        *DrawdownDisciplineInputs      `json:"drawdown,omitempty"`
	Diversification *StrategyDiversificationInputs `json:"diversification,omitempty"`
}

// SubScores is the immutable snapshot of one scoring pass. Nil sub-score
// pointers mark dimensions that genuinely were not computed; Composite
// already folds those in at NeutralScore.
type SubScores struct {
	EdgeStability           *float64  `json:"edge_stability,omitempty"`
	MarketStability         *float64  `json:"market_stability,omitempty"`
	ExecutionQuality        *float64  `json:"execution_quality,omitempty"`
	ImpactContainment       *float64  `json:"impact_containment,omitempty"`
	DrawdownDiscipline      *float64  `json:"drawdown_discipline,omitempty"`
	StrategyDiversification *float64  `json:"strategy_diversification,omitempty"`
	Composite               float64   `json:"composite"`
	Timestamp               time.Time `json:"timestamp"`
}

// Engine combines the six sub-score calculators into one composite
// confidence score. The calculators themselves are pure functions; the
// engine only carries their thresholds.
type Engine struct {
	config *EngineConfig
}

// NewEngine creates a confidence engine
func NewEngine(config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultEngineConfig()
	}
	return &Engine{config: config}
}

// Score runs every calculator whose inputs were supplied and combines
// them into the composite confidence.
func (e *Engine) Score(inputs Inputs, now time.Time) *SubScores {
	scores := &SubScores{Timestamp: now}

	if inputs.Edge != nil {
		s := ScoreEdgeStability(inputs.Edge, e.config.Edge)
		scores.EdgeStability = &s
	}
	if inputs.Market != nil {
		s := ScoreMarketStability(inputs.Market, e.config.Market)
		scores.MarketStability = &s
	}
	if inputs.Execution != nil {
		s := ScoreExecutionQuality(inputs.Execution, e.config.Execution)
		scores.ExecutionQuality = &s
	}
	if inputs.Impact != nil {
		s := ScoreImpactContainment(inputs.Impact, e.config.Impact)
		scores.ImpactContainment = &s
	}
	if inputs.Drawdown != nil {
		s := ScoreDrawdownDiscipline(inputs.Drawdown, e.config.Drawdown)
		scores.DrawdownDiscipline = &s
	}
	if inputs.Diversification != nil {
		s := ScoreStrategyDiversification(inputs.Diversification, e.config.Diversification)
		scores.StrategyDiversification = &s
	}

	scores.Composite = WeightEdgeStability*orNeutral(scores.EdgeStability) +
		WeightMarketStability*orNeutral(scores.MarketStability) +
		WeightExecutionQuality*orNeutral(scores.ExecutionQuality) +
		WeightImpactContainment*orNeutral(scores.ImpactContainment) +
		WeightDrawdownDiscipline*orNeutral(scores.DrawdownDiscipline) +
		WeightStrategyDiversification*orNeutral(scores.StrategyDiversification)

	return scores
}

func orNeutral(score *float64) float64 {
	if score == nil {
		return NeutralScore
	}
	return *score
}

// clamp01 bounds a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// penaltyScore maps a "lower is better" measurement to [0,1]: full score
// at or below the acceptable threshold, zero at or beyond the degraded
// threshold, linear in between.
func penaltyScore(value, acceptable, degraded float64) float64 {
	if value <= acceptable {
		return 1.0
	}
	if value >= degraded {
		return 0.0
	}
	return 1.0 - (value-acceptable)/(degraded-acceptable)
}
