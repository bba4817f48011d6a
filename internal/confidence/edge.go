package confidence

import (
	"math"
)

// Multi-window expectancy weights: recent performance dominates but the
// longer windows anchor against a lucky day.
const (
	edgeWindowWeight1d  = 0.40
	edgeWindowWeight7d  = 0.30
	edgeWindowWeight30d = 0.20
	edgeWindowWeight90d = 0.10
)

// Edge sub-component weights.
const (
	edgeLevelWeight       = 0.35
	edgeConsistencyWeight = 0.25
	edgeProfitWeight      = 0.25
	edgeVarianceWeight    = 0.15
)

// EdgeStabilityInputs carries multi-window expectancy statistics from the
// performance tracker.
type EdgeStabilityInputs struct {
	Expectancy1d  float64 `json:"expectancy_1d"`
	Expectancy7d  float64 `json:"expectancy_7d"`
	Expectancy30d float64 `json:"expectancy_30d"`
	Expectancy90d float64 `json:"expectancy_90d"`

	ExpectancyVariance float64 `json:"expectancy_variance"`
	ProfitFactor       float64 `json:"profit_factor"`
	SampleCount        int     `json:"sample_count"`
}

// ScoreEdgeStability scores how stable and positive the trading edge is
// across time windows. Fewer than MinSamples trades scores 0.0: an
// unproven edge earns nothing, unlike the neutral defaults elsewhere.
func ScoreEdgeStability(inputs *EdgeStabilityInputs, config *EdgeStabilityConfig) float64 {
	if inputs.SampleCount < config.MinSamples {
		return 0.0
	}

	weighted := edgeWindowWeight1d*inputs.Expectancy1d +
		edgeWindowWeight7d*inputs.Expectancy7d +
		edgeWindowWeight30d*inputs.Expectancy30d +
		edgeWindowWeight90d*inputs.Expectancy90d

	levelScore := clamp01(weighted / config.TargetExpectancy)

	consistencyScore := crossWindowConsistency(
		[]float64{inputs.Expectancy1d, inputs.Expectancy7d, inputs.Expectancy30d, inputs.Expectancy90d},
		config.MaxConsistencyCV,
	)

	profitScore := 0.0
	if inputs.ProfitFactor > 1.0 {
		profitScore = clamp01((inputs.ProfitFactor - 1.0) / (config.TargetProfitFactor - 1.0))
	}

	varianceScore := clamp01(1.0 - inputs.ExpectancyVariance/config.AcceptableVariance)

	return clamp01(edgeLevelWeight*levelScore +
		edgeConsistencyWeight*consistencyScore +
		edgeProfitWeight*profitScore +
		edgeVarianceWeight*varianceScore)
}

// crossWindowConsistency scores the coefficient of variation across
// expectancy windows: identical windows score 1.0, CV at or beyond maxCV
// scores 0.0. A near-zero mean makes the CV meaningless, so it scores 0.
func crossWindowConsistency(windows []float64, maxCV float64) float64 {
	mean := 0.0
	for _, w := range windows {
		mean += w
	}
	mean /= float64(len(windows))

	if math.Abs(mean) < 1e-9 {
		return 0.0
	}

	variance := 0.0
	for _, w := range windows {
		d := w - mean
		variance += d * d
	}
	variance /= float64(len(windows))

	cv := math.Sqrt(variance) / math.Abs(mean)
	return clamp01(1.0 - cv/maxCV)
}
