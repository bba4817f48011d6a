package confidence

// Drawdown discipline sub-component weights.
const (
	drawdownLevelWeight    = 0.50
	drawdownDurationWeight = 0.25
	drawdownSlopeWeight    = 0.25
)

// DrawdownDisciplineInputs carries the current drawdown profile.
type DrawdownDisciplineInputs struct {
	CurrentDrawdownPct float64 `json:"current_drawdown_pct"` // positive percentage, 0 = at peak
	DurationHours      float64 `json:"duration_hours"`       // hours since the drawdown began
	SlopePctPerHour    float64 `json:"slope_pct_per_hour"`   // positive = deepening
}

// ScoreDrawdownDiscipline scores how controlled the current drawdown is.
// Level is piecewise linear between the warning and critical thresholds;
// a long-running or accelerating drawdown scores lower even at the same
// depth.
func ScoreDrawdownDiscipline(inputs *DrawdownDisciplineInputs, config *DrawdownDisciplineConfig) float64 {
	var levelScore float64
	switch {
	case inputs.CurrentDrawdownPct <= config.WarningDrawdownPct:
		levelScore = 1.0
	case inputs.CurrentDrawdownPct >= config.CriticalDrawdownPct:
		levelScore = 0.0
	default:
		levelScore = 1.0 - (inputs.CurrentDrawdownPct-config.WarningDrawdownPct)/
			(config.CriticalDrawdownPct-config.WarningDrawdownPct)
	}

	durationScore := clamp01(1.0 - inputs.DurationHours/config.MaxDurationHours)

	slopeScore := 1.0
	if inputs.SlopePctPerHour > 0 {
		slopeScore = clamp01(1.0 - inputs.SlopePctPerHour/config.MaxSlopePctPerHour)
	}

	return clamp01(drawdownLevelWeight*levelScore +
		drawdownDurationWeight*durationScore +
		drawdownSlopeWeight*slopeScore)
}
