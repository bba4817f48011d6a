package confidence

// Strategy diversification sub-component weights.
const (
	diversificationHHIWeight         = 0.35
	diversificationMaxWeightWeight   = 0.35
	diversificationCorrelationWeight = 0.30
)

// StrategyDiversificationInputs carries the current capital allocation
// across strategies.
type StrategyDiversificationInputs struct {
	// Weights are capital allocation fractions per strategy; expected to
	// sum to ~1.0 but scored as given.
	Weights map[string]float64 `json:"weights"`

	// AvgPairwiseCorrelation is the mean correlation across strategy
	// return streams, when the caller computes one. Nil skips the
	// correlation penalty entirely.
	AvgPairwiseCorrelation *float64 `json:"avg_pairwise_correlation,omitempty"`
}

// ScoreStrategyDiversification scores allocation concentration via the
// Herfindahl–Hirschman Index: a single strategy carrying everything
// scores 0, perfectly even allocation scores 1. Concentration in any one
// strategy and correlated return streams both drag the score down.
func ScoreStrategyDiversification(inputs *StrategyDiversificationInputs, config *StrategyDiversificationConfig) float64 {
	n := len(inputs.Weights)
	if n == 0 {
		return 0.0
	}

	hhi := 0.0
	maxWeight := 0.0
	for _, w := range inputs.Weights {
		hhi += w * w
		if w > maxWeight {
			maxWeight = w
		}
	}

	// HHI floor is 1/n (even allocation); ceiling is 1.0 (single strategy).
	hhiScore := 0.0
	if n > 1 {
		minHHI := 1.0 / float64(n)
		hhiScore = clamp01((1.0 - hhi) / (1.0 - minHHI))
	}

	maxWeightScore := 1.0
	if maxWeight > config.MaxSingleWeight {
		maxWeightScore = clamp01(1.0 - (maxWeight-config.MaxSingleWeight)/(1.0-config.MaxSingleWeight))
	}

	correlationScore := 1.0
	if inputs.AvgPairwiseCorrelation != nil {
		correlationScore = clamp01(1.0 - *inputs.AvgPairwiseCorrelation)
	}

	return clamp01(diversificationHHIWeight*hhiScore +
		diversificationMaxWeightWeight*maxWeightScore +
		diversificationCorrelationWeight*correlationScore)
}
