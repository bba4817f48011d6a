package confidence

// Market stability sub-component weights.
const (
	marketLiquidityWeight  = 0.40
	marketVolatilityWeight = 0.35
	marketSpreadWeight     = 0.25
)

// MarketStabilityInputs carries market health ratios against baseline.
// All three are ratios where 1.0 means "at baseline".
type MarketStabilityInputs struct {
	// Current liquidity vs. baseline; below 1.0 means thinner books
	LiquidityRatio float64 `json:"liquidity_ratio"`

	// Current volatility vs. baseline; above 1.0 means elevated vol
	VolatilityRatio float64 `json:"volatility_ratio"`

	// Current spread vs. baseline; above 1.0 means widening spreads
	SpreadExpansion float64 `json:"spread_expansion"`
}

// ScoreMarketStability scores the health of the market environment.
// Each ratio is linearly normalized between its baseline value and the
// configured degraded threshold.
func ScoreMarketStability(inputs *MarketStabilityInputs, config *MarketStabilityConfig) float64 {
	// Liquidity: 1.0 at or above baseline, 0.0 at or below degraded.
	liquidityScore := clamp01((inputs.LiquidityRatio - config.DegradedLiquidityRatio) /
		(1.0 - config.DegradedLiquidityRatio))

	// Volatility: 1.0 at or below baseline, 0.0 at or above degraded.
	volatilityScore := clamp01((config.DegradedVolatilityRatio - inputs.VolatilityRatio) /
		(config.DegradedVolatilityRatio - 1.0))

	// Spread: same shape as volatility.
	spreadScore := clamp01((config.DegradedSpreadExpansion - inputs.SpreadExpansion) /
		(config.DegradedSpreadExpansion - 1.0))

	return clamp01(marketLiquidityWeight*liquidityScore +
		marketVolatilityWeight*volatilityScore +
		marketSpreadWeight*spreadScore)
}
