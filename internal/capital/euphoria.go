package capital

import (
	"fmt"
	"time"

	"github.com/sawpanic/riskgov/internal/timex"
)

// FreezeReason identifies which euphoria condition froze capital growth.
type FreezeReason string

const (
	FreezeNone        FreezeReason = "NONE"
	FreezeNewATH      FreezeReason = "NEW_ALL_TIME_HIGH"
	FreezeWinStreak   FreezeReason = "WIN_STREAK"
	FreezeProfitSpike FreezeReason = "PROFIT_SPIKE"
	FreezeManual      FreezeReason = "MANUAL"
)

// EuphoriaConfig contains the anti-euphoria freeze thresholds. The freeze
// fires on good news: right after a new equity peak, a hot streak, or an
// outsized day is exactly when discipline slips.
type EuphoriaConfig struct {
	ATHFreezeDuration timex.Duration `yaml:"ath_freeze_duration"` // 24h after a new all-time high

	WinStreakThreshold      int            `yaml:"win_streak_threshold"`       // ≥5 consecutive wins
	WinStreakFreezeDuration timex.Duration `yaml:"win_streak_freeze_duration"` // 12h

	DailyProfitSpikePct       float64        `yaml:"daily_profit_spike_pct"`       // ≥5% daily P&L
	ProfitSpikeFreezeDuration timex.Duration `yaml:"profit_spike_freeze_duration"` // 12h
}

// DefaultEuphoriaConfig returns production-ready euphoria thresholds
func DefaultEuphoriaConfig() *EuphoriaConfig {
	return &EuphoriaConfig{
		ATHFreezeDuration:         timex.Duration(24 * time.Hour),
		WinStreakThreshold:        5,
		WinStreakFreezeDuration:   timex.Duration(12 * time.Hour),
		DailyProfitSpikePct:       5.0,
		ProfitSpikeFreezeDuration: timex.Duration(12 * time.Hour),
	}
}

// euphoriaEngine tracks the equity peak and freeze window. Owned by the
// capital governor; not used standalone.
type euphoriaEngine struct {
	config *EuphoriaConfig

	peakEquity   float64
	winStreak    int
	freezeUntil  time.Time
	freezeReason FreezeReason
}

func newEuphoriaEngine(config *EuphoriaConfig) *euphoriaEngine {
	if config == nil {
		config = DefaultEuphoriaConfig()
	}
	return &euphoriaEngine{
		config:       config,
		freezeReason: FreezeNone,
	}
}

// isFrozen reports whether a freeze window is currently open.
func (ee *euphoriaEngine) isFrozen(now time.Time) bool {
	return now.Before(ee.freezeUntil)
}

// checkEuphoria tests the freeze triggers in priority order and opens a
// freeze window when one fires. The very first equity observation only
// seeds the peak: a previous peak > 0 must already exist before a new
// all-time high can trigger.
func (ee *euphoriaEngine) checkEuphoria(currentEquity float64, winStreak int, dailyPnLPct float64, now time.Time) (FreezeReason, string) {
	previousPeak := ee.peakEquity
	if currentEquity > ee.peakEquity {
		ee.peakEquity = currentEquity
	}
	ee.winStreak = winStreak

	if previousPeak > 0 && currentEquity > previousPeak {
		ee.freeze(FreezeNewATH, ee.config.ATHFreezeDuration.Std(), now)
		return FreezeNewATH, fmt.Sprintf("new all-time high %.2f (previous %.2f)", currentEquity, previousPeak)
	}

	if winStreak >= ee.config.WinStreakThreshold {
		ee.freeze(FreezeWinStreak, ee.config.WinStreakFreezeDuration.Std(), now)
		return FreezeWinStreak, fmt.Sprintf("%d consecutive wins (threshold %d)", winStreak, ee.config.WinStreakThreshold)
	}

	if dailyPnLPct >= ee.config.DailyProfitSpikePct {
		ee.freeze(FreezeProfitSpike, ee.config.ProfitSpikeFreezeDuration.Std(), now)
		return FreezeProfitSpike, fmt.Sprintf("daily P&L %.2f%% (threshold %.2f%%)", dailyPnLPct, ee.config.DailyProfitSpikePct)
	}

	return FreezeNone, ""
}

func (ee *euphoriaEngine) freeze(reason FreezeReason, duration time.Duration, now time.Time) {
	ee.freezeUntil = now.Add(duration)
	ee.freezeReason = reason
}
