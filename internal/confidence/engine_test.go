package confidence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestScore_AllInputsMissingIsNeutral(t *testing.T) {
	e := NewEngine(nil)

	scores := e.Score(Inputs{}, t0)

	assert.Nil(t, scores.EdgeStability)
	assert.Nil(t, scores.MarketStability)
	assert.Nil(t, scores.ExecutionQuality)
	assert.Nil(t, scores.ImpactContainment)
	assert.Nil(t, scores.DrawdownDiscipline)
	assert.Nil(t, scores.StrategyDiversification)
	assert.InDelta(t, NeutralScore, scores.Composite, 1e-12)
	assert.Equal(t, t0, scores.Timestamp)
}

func TestScore_CompositeIsWeightedSum(t *testing.T) {
	e := NewEngine(nil)

	// Only market supplied, at perfect health: market scores 1.0, the other
	// five fold in at 0.5. Composite = 0.15·1.0 + 0.85·0.5 = 0.575.
	scores := e.Score(Inputs{
		Market: &MarketStabilityInputs{LiquidityRatio: 1.0, VolatilityRatio: 1.0, SpreadExpansion: 1.0},
	}, t0)

	require.NotNil(t, scores.MarketStability)
	assert.InDelta(t, 1.0, *scores.MarketStability, 1e-12)
	assert.InDelta(t, 0.575, scores.Composite, 1e-12)
}

func TestScore_Deterministic(t *testing.T) {
	e := NewEngine(nil)
	inputs := Inputs{
		Market:   &MarketStabilityInputs{LiquidityRatio: 0.8, VolatilityRatio: 1.3, SpreadExpansion: 1.1},
		Drawdown: &DrawdownDisciplineInputs{CurrentDrawdownPct: 7.0, DurationHours: 10, SlopePctPerHour: 0.5},
	}

	s1 := e.Score(inputs, t0)
	s2 := e.Score(inputs, t0)

	assert.Equal(t, s1.Composite, s2.Composite)
	assert.Equal(t, *s1.MarketStability, *s2.MarketStability)
	assert.Equal(t, *s1.DrawdownDiscipline, *s2.DrawdownDiscipline)
}

func TestPenaltyScore(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"below acceptable", 3.0, 1.0},
		{"exactly acceptable", 5.0, 1.0},
		{"midpoint", 15.0, 0.5},
		{"exactly degraded", 25.0, 0.0},
		{"beyond degraded", 40.0, 0.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, penaltyScore(tc.value, 5.0, 25.0), 1e-12)
		})
	}
}

func TestScoreEdgeStability(t *testing.T) {
	cfg := DefaultEdgeStabilityConfig()

	t.Run("too few samples scores zero", func(t *testing.T) {
		score := ScoreEdgeStability(&EdgeStabilityInputs{
			Expectancy1d: 1.0, Expectancy7d: 1.0, Expectancy30d: 1.0, Expectancy90d: 1.0,
			ProfitFactor: 5.0, SampleCount: 9,
		}, cfg)
		assert.Equal(t, 0.0, score)
	})

	t.Run("perfect edge scores one", func(t *testing.T) {
		score := ScoreEdgeStability(&EdgeStabilityInputs{
			Expectancy1d: 0.30, Expectancy7d: 0.30, Expectancy30d: 0.30, Expectancy90d: 0.30,
			ExpectancyVariance: 0.0, ProfitFactor: 2.0, SampleCount: 100,
		}, cfg)
		assert.InDelta(t, 1.0, score, 1e-12)
	})

	t.Run("losing edge scores near zero", func(t *testing.T) {
		score := ScoreEdgeStability(&EdgeStabilityInputs{
			Expectancy1d: -0.2, Expectancy7d: -0.2, Expectancy30d: -0.2, Expectancy90d: -0.2,
			ExpectancyVariance: 0.5, ProfitFactor: 0.8, SampleCount: 100,
		}, cfg)
		// Negative level, PF below 1 and variance beyond acceptable all
		// zero out; only consistency (identical windows) survives.
		assert.InDelta(t, edgeConsistencyWeight, score, 1e-12)
	})

	t.Run("inconsistent windows are penalized", func(t *testing.T) {
		steady := ScoreEdgeStability(&EdgeStabilityInputs{
			Expectancy1d: 0.15, Expectancy7d: 0.15, Expectancy30d: 0.15, Expectancy90d: 0.15,
			ProfitFactor: 1.5, SampleCount: 100,
		}, cfg)
		erratic := ScoreEdgeStability(&EdgeStabilityInputs{
			Expectancy1d: 0.60, Expectancy7d: 0.0, Expectancy30d: 0.0, Expectancy90d: 0.0,
			ProfitFactor: 1.5, SampleCount: 100,
		}, cfg)
		assert.Greater(t, steady, erratic)
	})
}

func TestCrossWindowConsistency(t *testing.T) {
	assert.Equal(t, 1.0, crossWindowConsistency([]float64{0.2, 0.2, 0.2, 0.2}, 1.0))
	assert.Equal(t, 0.0, crossWindowConsistency([]float64{0.3, -0.3, 0.3, -0.3}, 1.0),
		"near-zero mean makes CV meaningless")
}

func TestScoreMarketStability(t *testing.T) {
	cfg := DefaultMarketStabilityConfig()

	tests := []struct {
		name   string
		inputs MarketStabilityInputs
		want   float64
	}{
		{"at baseline", MarketStabilityInputs{LiquidityRatio: 1.0, VolatilityRatio: 1.0, SpreadExpansion: 1.0}, 1.0},
		{"fully degraded", MarketStabilityInputs{LiquidityRatio: 0.5, VolatilityRatio: 2.0, SpreadExpansion: 2.0}, 0.0},
		{"halfway degraded", MarketStabilityInputs{LiquidityRatio: 0.75, VolatilityRatio: 1.5, SpreadExpansion: 1.5}, 0.5},
		{"better than baseline clamps", MarketStabilityInputs{LiquidityRatio: 1.5, VolatilityRatio: 0.5, SpreadExpansion: 0.8}, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ScoreMarketStability(&tc.inputs, cfg), 1e-12)
		})
	}
}

func TestScoreExecutionQuality(t *testing.T) {
	cfg := DefaultExecutionQualityConfig()

	t.Run("too few samples scores neutral", func(t *testing.T) {
		score := ScoreExecutionQuality(&ExecutionQualityInputs{
			FillTimeP95Ms: 10000, MeanSlippageBps: 100, CancelRate: 1.0, RetryRate: 1.0,
			SampleCount: 4,
		}, cfg)
		assert.Equal(t, NeutralScore, score)
	})

	t.Run("clean execution scores one", func(t *testing.T) {
		score := ScoreExecutionQuality(&ExecutionQualityInputs{
			FillTimeP95Ms: 200, MeanSlippageBps: 2.0, CancelRate: 0.05, RetryRate: 0.01,
			SampleCount: 50,
		}, cfg)
		assert.InDelta(t, 1.0, score, 1e-12)
	})

	t.Run("degraded execution scores zero", func(t *testing.T) {
		score := ScoreExecutionQuality(&ExecutionQualityInputs{
			FillTimeP95Ms: 8000, MeanSlippageBps: 30, CancelRate: 0.6, RetryRate: 0.5,
			SampleCount: 50,
		}, cfg)
		assert.InDelta(t, 0.0, score, 1e-12)
	})

	t.Run("only slippage halfway degraded", func(t *testing.T) {
		score := ScoreExecutionQuality(&ExecutionQualityInputs{
			FillTimeP95Ms: 200, MeanSlippageBps: 15.0, CancelRate: 0.05, RetryRate: 0.01,
			SampleCount: 50,
		}, cfg)
		// 0.30 + 0.35·0.5 + 0.20 + 0.15
		assert.InDelta(t, 0.825, score, 1e-12)
	})
}

func TestScoreImpactContainment(t *testing.T) {
	cfg := DefaultImpactContainmentConfig()

	t.Run("too few observations scores neutral", func(t *testing.T) {
		score := ScoreImpactContainment(&ImpactContainmentInputs{
			Sizes: []float64{1, 2}, SlippagesBps: []float64{1, 2},
		}, cfg)
		assert.Equal(t, NeutralScore, score)
	})

	t.Run("mismatched lengths score neutral", func(t *testing.T) {
		score := ScoreImpactContainment(&ImpactContainmentInputs{
			Sizes: []float64{1, 2, 3}, SlippagesBps: []float64{1, 2},
		}, cfg)
		assert.Equal(t, NeutralScore, score)
	})

	t.Run("identical sizes score neutral", func(t *testing.T) {
		score := ScoreImpactContainment(&ImpactContainmentInputs{
			Sizes: []float64{2, 2, 2}, SlippagesBps: []float64{1, 5, 9},
		}, cfg)
		assert.Equal(t, NeutralScore, score)
	})

	t.Run("flat slippage scores one", func(t *testing.T) {
		score := ScoreImpactContainment(&ImpactContainmentInputs{
			Sizes: []float64{1, 2, 3}, SlippagesBps: []float64{5, 5, 5},
		}, cfg)
		assert.InDelta(t, 1.0, score, 1e-12)
	})

	t.Run("steep slope scores zero", func(t *testing.T) {
		score := ScoreImpactContainment(&ImpactContainmentInputs{
			Sizes: []float64{1, 2, 3}, SlippagesBps: []float64{1, 2, 3},
		}, cfg)
		assert.InDelta(t, 0.0, score, 1e-12)
	})

	t.Run("moderate slope with sub-linear bonus", func(t *testing.T) {
		inputs := &ImpactContainmentInputs{
			Sizes: []float64{1, 2, 3}, SlippagesBps: []float64{0.25, 0.50, 0.75},
		}
		plain := ScoreImpactContainment(inputs, cfg)
		assert.InDelta(t, 0.5, plain, 1e-12)

		inputs.SubLinearImpact = true
		boosted := ScoreImpactContainment(inputs, cfg)
		assert.InDelta(t, 0.6, boosted, 1e-12)
	})
}

func TestOLSSlope(t *testing.T) {
	slope, ok := olsSlope([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.True(t, ok)
	assert.InDelta(t, 2.0, slope, 1e-12)

	_, ok = olsSlope([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.False(t, ok)
}

func TestScoreDrawdownDiscipline(t *testing.T) {
	cfg := DefaultDrawdownDisciplineConfig()

	tests := []struct {
		name   string
		inputs DrawdownDisciplineInputs
		want   float64
	}{
		{"at peak", DrawdownDisciplineInputs{}, 1.0},
		{"shallow fresh drawdown", DrawdownDisciplineInputs{CurrentDrawdownPct: 5.0}, 1.0},
		{"midway drawdown", DrawdownDisciplineInputs{CurrentDrawdownPct: 10.0}, 0.75},
		{"deep long accelerating", DrawdownDisciplineInputs{CurrentDrawdownPct: 20.0, DurationHours: 72, SlopePctPerHour: 2.0}, 0.0},
		{"recovering slope is not penalized", DrawdownDisciplineInputs{CurrentDrawdownPct: 10.0, SlopePctPerHour: -1.0}, 0.75},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ScoreDrawdownDiscipline(&tc.inputs, cfg), 1e-12)
		})
	}
}

func TestScoreStrategyDiversification(t *testing.T) {
	cfg := DefaultStrategyDiversificationConfig()

	t.Run("no strategies scores zero", func(t *testing.T) {
		score := ScoreStrategyDiversification(&StrategyDiversificationInputs{}, cfg)
		assert.Equal(t, 0.0, score)
	})

	t.Run("single strategy is maximal concentration", func(t *testing.T) {
		score := ScoreStrategyDiversification(&StrategyDiversificationInputs{
			Weights: map[string]float64{"trend": 1.0},
		}, cfg)
		// HHI and max-weight both bottom out; only the (skipped)
		// correlation component contributes.
		assert.InDelta(t, diversificationCorrelationWeight, score, 1e-12)
	})

	t.Run("even allocation scores one", func(t *testing.T) {
		score := ScoreStrategyDiversification(&StrategyDiversificationInputs{
			Weights: map[string]float64{"a": 0.25, "b": 0.25, "c": 0.25, "d": 0.25},
		}, cfg)
		assert.InDelta(t, 1.0, score, 1e-12)
	})

	t.Run("correlated strategies are penalized", func(t *testing.T) {
		corr := 0.5
		score := ScoreStrategyDiversification(&StrategyDiversificationInputs{
			Weights:                map[string]float64{"a": 0.25, "b": 0.25, "c": 0.25, "d": 0.25},
			AvgPairwiseCorrelation: &corr,
		}, cfg)
		// 0.35 + 0.35 + 0.30·0.5
		assert.InDelta(t, 0.85, score, 1e-12)
	})
}
