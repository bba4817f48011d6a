package confidence

// EngineConfig aggregates the per-calculator thresholds.
type EngineConfig struct {
	Edge            *EdgeStabilityConfig           `yaml:"edge"`
	Market          *MarketStabilityConfig         `yaml:"market"`
	Execution       *ExecutionQualityConfig        `yaml:"execution"`
	Impact          *ImpactContainmentConfig       `yaml:"impact"`
	Drawdown        *DrawdownDisciplineConfig      `yaml:"drawdown"`
	Diversification *StrategyDiversificationConfig `yaml:"diversification"`
}

// DefaultEngineConfig returns production-ready scoring thresholds
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Edge:            DefaultEdgeStabilityConfig(),
		Market:          DefaultMarketStabilityConfig(),
		Execution:       DefaultExecutionQualityConfig(),
		Impact:          DefaultImpactContainmentConfig(),
		Drawdown:        DefaultDrawdownDisciplineConfig(),
		Diversification: DefaultStrategyDiversificationConfig(),
	}
}

// EdgeStabilityConfig contains thresholds for edge stability scoring
type EdgeStabilityConfig struct {
	MinSamples         int     `yaml:"min_samples"`          // <10 samples scores 0.0
	TargetExpectancy   float64 `yaml:"target_expectancy"`    // weighted expectancy for full level score
	TargetProfitFactor float64 `yaml:"target_profit_factor"` // PF for full profit-factor score
	MaxConsistencyCV   float64 `yaml:"max_consistency_cv"`   // CV at which consistency hits 0
	AcceptableVariance float64 `yaml:"acceptable_variance"`  // variance at which penalty hits 0
}

func DefaultEdgeStabilityConfig() *EdgeStabilityConfig {
	return &EdgeStabilityConfig{
		MinSamples:         10,
		TargetExpectancy:   0.30,
		TargetProfitFactor: 2.0,
		MaxConsistencyCV:   1.0,
		AcceptableVariance: 0.25,
	}
}

// MarketStabilityConfig contains degraded thresholds for market health
type MarketStabilityConfig struct {
	DegradedLiquidityRatio  float64 `yaml:"degraded_liquidity_ratio"`  // ratio at which liquidity scores 0
	DegradedVolatilityRatio float64 `yaml:"degraded_volatility_ratio"` // ratio at which volatility scores 0
	DegradedSpreadExpansion float64 `yaml:"degraded_spread_expansion"` // expansion at which spread scores 0
}

func DefaultMarketStabilityConfig() *MarketStabilityConfig {
	return &MarketStabilityConfig{
		DegradedLiquidityRatio:  0.5,
		DegradedVolatilityRatio: 2.0,
		DegradedSpreadExpansion: 2.0,
	}
}

// ExecutionQualityConfig contains acceptable/degraded execution thresholds
type ExecutionQualityConfig struct {
	MinSamples int `yaml:"min_samples"` // <5 fills scores neutral

	AcceptableFillTimeP95Ms float64 `yaml:"acceptable_fill_time_p95_ms"`
	DegradedFillTimeP95Ms   float64 `yaml:"degraded_fill_time_p95_ms"`

	AcceptableSlippageBps float64 `yaml:"acceptable_slippage_bps"`
	DegradedSlippageBps   float64 `yaml:"degraded_slippage_bps"`

	AcceptableCancelRate float64 `yaml:"acceptable_cancel_rate"`
	DegradedCancelRate   float64 `yaml:"degraded_cancel_rate"`

	AcceptableRetryRate float64 `yaml:"acceptable_retry_rate"`
	DegradedRetryRate   float64 `yaml:"degraded_retry_rate"`
}

func DefaultExecutionQualityConfig() *ExecutionQualityConfig {
	return &ExecutionQualityConfig{
		MinSamples:              5,
		AcceptableFillTimeP95Ms: 500.0,
		DegradedFillTimeP95Ms:   5000.0,
		AcceptableSlippageBps:   5.0,
		DegradedSlippageBps:     25.0,
		AcceptableCancelRate:    0.10,
		DegradedCancelRate:      0.50,
		AcceptableRetryRate:     0.05,
		DegradedRetryRate:       0.30,
	}
}

// ImpactContainmentConfig contains thresholds for market impact scoring
type ImpactContainmentConfig struct {
	MinObservations int     `yaml:"min_observations"`  // <3 observations scores neutral
	AcceptableSlope float64 `yaml:"acceptable_slope"`  // bps slippage per unit size
	SubLinearBonus  float64 `yaml:"sub_linear_bonus"`  // multiplier when impact is sub-linear
}

func DefaultImpactContainmentConfig() *ImpactContainmentConfig {
	return &ImpactContainmentConfig{
		MinObservations: 3,
		AcceptableSlope: 0.5,
		SubLinearBonus:  1.2,
	}
}

// DrawdownDisciplineConfig contains drawdown scoring thresholds
type DrawdownDisciplineConfig struct {
	WarningDrawdownPct  float64 `yaml:"warning_drawdown_pct"`   // full score at or below
	CriticalDrawdownPct float64 `yaml:"critical_drawdown_pct"`  // zero score at or above
	MaxDurationHours    float64 `yaml:"max_duration_hours"`     // duration at which penalty hits 0
	MaxSlopePctPerHour  float64 `yaml:"max_slope_pct_per_hour"` // acceleration at which penalty hits 0
}

func DefaultDrawdownDisciplineConfig() *DrawdownDisciplineConfig {
	return &DrawdownDisciplineConfig{
		WarningDrawdownPct:  5.0,
		CriticalDrawdownPct: 15.0,
		MaxDurationHours:    72.0,
		MaxSlopePctPerHour:  2.0,
	}
}

// StrategyDiversificationConfig contains concentration thresholds
type StrategyDiversificationConfig struct {
	MaxSingleWeight float64 `yaml:"max_single_weight"` // weight cap before penalty
}

func DefaultStrategyDiversificationConfig() *StrategyDiversificationConfig {
	return &StrategyDiversificationConfig{
		MaxSingleWeight: 0.40,
	}
}
