package confidence

// Execution quality sub-component weights.
const (
	execFillTimeWeight = 0.30
	execSlippageWeight = 0.35
	execCancelWeight   = 0.20
	execRetryWeight    = 0.15
)

// ExecutionQualityInputs carries fill statistics from the execution layer.
type ExecutionQualityInputs struct {
	FillTimeP95Ms   float64 `json:"fill_time_p95_ms"`
	MeanSlippageBps float64 `json:"mean_slippage_bps"`
	CancelRate      float64 `json:"cancel_rate"` // fraction of orders cancelled
	RetryRate       float64 `json:"retry_rate"`  // fraction of orders retried
	SampleCount     int     `json:"sample_count"`
}

// ScoreExecutionQuality scores how cleanly orders are being executed.
// Fewer than MinSamples fills is too little evidence either way and
// scores neutral.
func ScoreExecutionQuality(inputs *ExecutionQualityInputs, config *ExecutionQualityConfig) float64 {
	if inputs.SampleCount < config.MinSamples {
		return NeutralScore
	}

	fillScore := penaltyScore(inputs.FillTimeP95Ms,
		config.AcceptableFillTimeP95Ms, config.DegradedFillTimeP95Ms)
	slippageScore := penaltyScore(inputs.MeanSlippageBps,
		config.AcceptableSlippageBps, config.DegradedSlippageBps)
	cancelScore := penaltyScore(inputs.CancelRate,
		config.AcceptableCancelRate, config.DegradedCancelRate)
	retryScore := penaltyScore(inputs.RetryRate,
		config.AcceptableRetryRate, config.DegradedRetryRate)

	return clamp01(execFillTimeWeight*fillScore +
		execSlippageWeight*slippageScore +
		execCancelWeight*cancelScore +
		execRetryWeight*retryScore)
}
