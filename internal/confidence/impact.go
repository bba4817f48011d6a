package confidence

// ImpactContainmentInputs carries paired (order size, realized slippage)
// observations from recent executions.
type ImpactContainmentInputs struct {
	Sizes        []float64 `json:"sizes"`
	SlippagesBps []float64 `json:"slippages_bps"`

	// SubLinearImpact is asserted by the caller when its own impact model
	// confirms slippage grows sub-linearly with size.
	SubLinearImpact bool `json:"sub_linear_impact"`
}

// ScoreImpactContainment scores whether order size is moving the market.
// The ordinary-least-squares slope of slippage against size measures the
// marginal impact per unit of size; a flat or negative slope is ideal.
// Fewer than MinObservations pairs scores neutral.
func ScoreImpactContainment(inputs *ImpactContainmentInputs, config *ImpactContainmentConfig) float64 {
	n := len(inputs.Sizes)
	if n != len(inputs.SlippagesBps) || n < config.MinObservations {
		return NeutralScore
	}

	slope, ok := olsSlope(inputs.Sizes, inputs.SlippagesBps)
	if !ok {
		// All sizes identical: slope is undefined, no impact evidence.
		return NeutralScore
	}

	score := 1.0
	if slope > 0 {
		score = clamp01(1.0 - slope/config.AcceptableSlope)
	}

	if inputs.SubLinearImpact {
		score *= config.SubLinearBonus
	}

	return clamp01(score)
}

// olsSlope computes the least-squares slope of y against x. Returns
// ok=false when x has no variance.
func olsSlope(x, y []float64) (float64, bool) {
	n := float64(len(x))

	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var covXY, varX float64
	for i := range x {
		dx := x[i] - meanX
		covXY += dx * (y[i] - meanY)
		varX += dx * dx
	}

	if varX == 0 {
		return 0, false
	}
	return covXY / varX, true
}
