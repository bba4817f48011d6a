package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func inputsWithRisk(risk float64) TrustInputs {
	return TrustInputs{
		Data:        &DataTrustInputs{StalenessScore: f(0.95), DriftScore: f(0.92)},
		Execution:   &ExecutionTrustInputs{SlippageScore: f(0.90), FillRateScore: f(0.97)},
		Alpha:       &AlphaTrustInputs{EdgeDecayScore: f(0.93)},
		Risk:        &RiskTrustInputs{DrawdownScore: f(risk)},
		Consistency: &ConsistencyTrustInputs{BehaviorScore: f(0.96)},
	}
}

func TestTrustScoreIsMinimumOfDimensions(t *testing.T) {
	scores := computeTrustSubScores(TrustInputs{
		Data:        &DataTrustInputs{StalenessScore: f(0.9), DriftScore: f(0.85)},
		Execution:   &ExecutionTrustInputs{SlippageScore: f(0.95)},
		Alpha:       &AlphaTrustInputs{HitRateScore: f(0.70)},
		Risk:        &RiskTrustInputs{ExposureScore: f(0.88)},
		Consistency: &ConsistencyTrustInputs{ReplayDivergenceScore: f(0.99)},
	}, t0)

	// Each dimension is the min of its components.
	assert.Equal(t, 0.85, scores.Data)
	assert.Equal(t, 0.95, scores.Execution)
	assert.Equal(t, 0.70, scores.Alpha)
	assert.Equal(t, 0.88, scores.Risk)
	assert.Equal(t, 0.99, scores.Consistency)

	// The overall score is the min of the dimensions: one weak link caps it.
	assert.Equal(t, 0.70, scores.Min())
}

func TestTrustDefaults(t *testing.T) {
	// Nil dimensions and nil components default to full trust.
	scores := computeTrustSubScores(TrustInputs{}, t0)
	assert.Equal(t, FullTrust, scores.Min())

	scores = computeTrustSubScores(TrustInputs{
		Data: &DataTrustInputs{StalenessScore: nil, DriftScore: f(0.8)},
	}, t0)
	assert.Equal(t, 0.8, scores.Data)
	assert.Equal(t, FullTrust, scores.Execution)
}

func TestTrustComponentsClamped(t *testing.T) {
	scores := computeTrustSubScores(TrustInputs{
		Data: &DataTrustInputs{StalenessScore: f(1.7)},
		Risk: &RiskTrustInputs{DrawdownScore: f(-0.3)},
	}, t0)

	assert.Equal(t, 1.0, scores.Data)
	assert.Equal(t, 0.0, scores.Risk)
}

func TestEvaluate_StateBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		risk        float64
		state       TrustState
		override    *float64
		entries     bool
		needsReset  bool
	}{
		{"exactly operational", 0.80, StateOperational, nil, true, false},
		{"just below operational", 0.7999, StateDegraded, f(0.75), true, false},
		{"exactly degraded", 0.60, StateDegraded, f(0.75), true, false},
		{"just below degraded", 0.5999, StateWarning, f(0.50), true, false},
		{"exactly warning", 0.40, StateWarning, f(0.50), true, false},
		{"just below warning", 0.3999, StateCritical, f(0.10), false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGovernor(nil)
			d := g.Evaluate(inputsWithRisk(tc.risk), nil, t0)

			assert.Equal(t, tc.state, d.TrustState)
			assert.InDelta(t, tc.risk, d.TrustScore, 1e-12)
			assert.Equal(t, tc.entries, d.AllowsEntries)
			assert.True(t, d.AllowsExits, "exits must always be allowed")
			assert.Equal(t, tc.needsReset, d.RequiresManualReset)

			if tc.override == nil {
				assert.Nil(t, d.CapitalOverride)
			} else {
				require.NotNil(t, d.CapitalOverride)
				assert.Equal(t, *tc.override, *d.CapitalOverride)
			}
		})
	}
}

func TestEvaluate_CriticalLocksUntilManualReset(t *testing.T) {
	g := NewGovernor(nil)

	d := g.Evaluate(inputsWithRisk(0.2), nil, t0)
	require.Equal(t, StateCritical, d.TrustState)
	require.True(t, d.RequiresManualReset)

	// Perfect inputs afterwards do not matter: the lock short-circuits.
	d = g.Evaluate(TrustInputs{}, nil, t0.Add(time.Minute))
	assert.False(t, d.AllowsTrading)
	assert.False(t, d.AllowsEntries)
	assert.True(t, d.AllowsExits)
	assert.True(t, d.RequiresManualReset)
	require.NotNil(t, d.CapitalOverride)
	assert.Equal(t, 0.10, *d.CapitalOverride)
	assert.Contains(t, d.Reason, "manual reset required")
}

func TestEvaluate_UnknownThreatLocks(t *testing.T) {
	g := NewGovernor(nil)
	for i := 0; i < 120; i++ {
		v := 5.0 + float64(i%2)*2 - 1 // alternating 4/6
		g.Detector().UpdateMetric("order_reject_rate", v)
	}

	d := g.Evaluate(TrustInputs{}, map[string]float64{"order_reject_rate": 50.0}, t0)

	assert.Equal(t, StateUnknownThreat, d.TrustState)
	assert.False(t, d.AllowsEntries)
	assert.True(t, d.AllowsExits)
	assert.True(t, d.RequiresManualReset)
	require.NotNil(t, d.CapitalOverride)
	assert.Equal(t, 0.10, *d.CapitalOverride)
	require.NotNil(t, d.Threats)
	assert.True(t, d.Threats.HasUnknownThreats)
}

func TestEvaluate_NilObservationsSkipDetector(t *testing.T) {
	g := NewGovernor(nil)

	d := g.Evaluate(TrustInputs{}, nil, t0)

	assert.Equal(t, StateOperational, d.TrustState)
	assert.Nil(t, d.Threats)
}

func TestManualReset(t *testing.T) {
	g := NewGovernor(nil)
	g.Evaluate(inputsWithRisk(0.2), nil, t0)
	require.True(t, g.RequiresManualReset())

	ok, msg := g.ManualReset("reset please")
	assert.False(t, ok)
	assert.Contains(t, msg, "Invalid confirmation phrase")
	assert.True(t, g.RequiresManualReset(), "failed reset must change nothing")

	ok, msg = g.ManualReset("confirm reset meta governor") // case matters
	assert.False(t, ok)
	assert.True(t, g.RequiresManualReset())

	ok, msg = g.ManualReset(ResetPhrase)
	assert.True(t, ok)
	assert.Contains(t, msg, "manual reset accepted")
	assert.False(t, g.RequiresManualReset())

	// Reset lands in DEGRADED with the probationary score, never OPERATIONAL.
	assert.Equal(t, StateDegraded, g.TrustState())
	assert.Equal(t, 0.65, g.TrustScore())
}

func TestEvaluate_AfterResetTradesDegraded(t *testing.T) {
	g := NewGovernor(nil)
	g.Evaluate(inputsWithRisk(0.2), nil, t0)
	g.ManualReset(ResetPhrase)

	d := g.Evaluate(inputsWithRisk(0.9), nil, t0.Add(time.Minute))

	// Fresh healthy inputs re-earn OPERATIONAL on the next evaluation.
	assert.Equal(t, StateOperational, d.TrustState)
	assert.True(t, d.AllowsEntries)
}

func TestEvaluate_Idempotent(t *testing.T) {
	g := NewGovernor(nil)

	d1 := g.Evaluate(inputsWithRisk(0.7), nil, t0)
	d2 := g.Evaluate(inputsWithRisk(0.7), nil, t0)

	assert.Equal(t, d1, d2)
	assert.Equal(t, StateDegraded, d2.TrustState)
}

func TestRestoreState(t *testing.T) {
	g := NewGovernor(nil)
	g.RestoreState(StateCritical, 0.25, true)

	assert.Equal(t, StateCritical, g.TrustState())
	assert.Equal(t, 0.25, g.TrustScore())

	d := g.Evaluate(TrustInputs{}, nil, t0)
	assert.True(t, d.RequiresManualReset)
	assert.False(t, d.AllowsEntries)
}
