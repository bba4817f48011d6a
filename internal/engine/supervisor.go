package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/riskgov/internal/audit"
	"github.com/sawpanic/riskgov/internal/capital"
	"github.com/sawpanic/riskgov/internal/confidence"
	"github.com/sawpanic/riskgov/internal/meta"
	"github.com/sawpanic/riskgov/internal/persistence"
	"github.com/sawpanic/riskgov/internal/telemetry"
)

// TickInputs carries everything one governance tick consumes. Time comes
// from the caller: evaluation is a deterministic function of
// (prior state, inputs, now), which makes replays bit-identical.
type TickInputs struct {
	MetricObservations map[string]float64 `json:"metric_observations,omitempty"`
	Confidence         confidence.Inputs  `json:"confidence"`
	Capital            capital.Inputs     `json:"capital"`
	Trust              meta.TrustInputs   `json:"trust"`
	Now                time.Time          `json:"now,omitempty"`
}

// TickResult is the combined output of one tick: the capital governor's
// decision, the meta governor's decision, and the effective values after
// the override hierarchy is applied.
type TickResult struct {
	CapitalDecision capital.Decision `json:"capital_decision"`
	MetaDecision    meta.Decision    `json:"meta_decision"`

	// EffectiveCapitalFraction is the fraction downstream sizing must
	// obey: the meta override replaces (never blends with) the capital
	// governor's fraction when present.
	EffectiveCapitalFraction float64 `json:"effective_capital_fraction"`
	AllowsEntries            bool    `json:"allows_entries"`
	AllowsExits              bool    `json:"allows_exits"`

	Timestamp time.Time `json:"timestamp"`
}

// Supervisor wires the governor hierarchy into a single per-tick entry
// point with logging, metrics, audit, and snapshot persistence around it.
// Drive it from exactly one control loop: there is no internal locking.
type Supervisor struct {
	confidence *confidence.Engine
	capital    *capital.Governor
	meta       *meta.Governor

	metrics *telemetry.MetricsRegistry
	auditor *audit.Writer
	store   persistence.SnapshotStore

	lastResult *TickResult
}

// Option configures optional supervisor collaborators.
type Option func(*Supervisor)

// WithMetrics attaches a prometheus registry.
func WithMetrics(m *telemetry.MetricsRegistry) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// WithAuditor attaches the decision ledger writer.
func WithAuditor(a *audit.Writer) Option {
	return func(s *Supervisor) { s.auditor = a }
}

// WithSnapshotStore attaches the persistence boundary.
func WithSnapshotStore(store persistence.SnapshotStore) Option {
	return func(s *Supervisor) { s.store = store }
}

// NewSupervisor assembles the governance hierarchy.
func NewSupervisor(ce *confidence.Engine, cg *capital.Governor, mg *meta.Governor, opts ...Option) *Supervisor {
	s := &Supervisor{
		confidence: ce,
		capital:    cg,
		meta:       mg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateTick runs one full governance tick in dependency order:
// confidence scoring, capital decision (quarantine and euphoria inside),
// then the meta governor's independent evaluation and override.
func (s *Supervisor) EvaluateTick(ctx context.Context, inputs TickInputs) *TickResult {
	now := inputs.Now
	if now.IsZero() {
		now = time.Now()
	}
	started := time.Now()

	subScores := s.confidence.Score(inputs.Confidence, now)
	capitalDecision := s.capital.Evaluate(inputs.Capital, subScores, now)
	metaDecision := s.meta.Evaluate(inputs.Trust, inputs.MetricObservations, now)

	effective := capitalDecision.AllowedCapitalFraction
	if metaDecision.CapitalOverride != nil {
		effective = *metaDecision.CapitalOverride
	}

	result := &TickResult{
		CapitalDecision:          capitalDecision,
		MetaDecision:             metaDecision,
		EffectiveCapitalFraction: effective,
		AllowsEntries:            metaDecision.AllowsEntries,
		AllowsExits:              metaDecision.AllowsExits,
		Timestamp:                now,
	}
	s.lastResult = result

	log.Info().
		Str("trust_state", string(metaDecision.TrustState)).
		Float64("trust_score", metaDecision.TrustScore).
		Str("scaling_state", string(capitalDecision.State)).
		Float64("confidence", capitalDecision.Confidence).
		Float64("capital_fraction", effective).
		Bool("allows_entries", result.AllowsEntries).
		Msg("governance tick evaluated")

	s.recordMetrics(result, time.Since(started))
	s.appendAudit(ctx, result)
	s.saveSnapshot(ctx, now)

	return result
}

func (s *Supervisor) recordMetrics(result *TickResult, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}

	s.metrics.TicksTotal.Inc()
	s.metrics.TickDuration.Observe(elapsed.Seconds())
	s.metrics.TrustScore.Set(result.MetaDecision.TrustScore)
	s.metrics.ConfidenceScore.Set(result.CapitalDecision.Confidence)
	s.metrics.AllowedFraction.Set(result.EffectiveCapitalFraction)
	s.metrics.QuarantinePct.Set(result.CapitalDecision.Quarantine.QuarantinePct)
	s.metrics.TrustStates.WithLabelValues(string(result.MetaDecision.TrustState)).Inc()
	s.metrics.ScalingStates.WithLabelValues(string(result.CapitalDecision.State)).Inc()

	if result.MetaDecision.CapitalOverride != nil {
		s.metrics.CapitalOverride.Set(*result.MetaDecision.CapitalOverride)
		s.metrics.OverridesTotal.Inc()
	} else {
		s.metrics.CapitalOverride.Set(1.0)
	}
	if result.CapitalDecision.State == capital.StateFreeze {
		s.metrics.FreezesTotal.WithLabelValues(string(result.CapitalDecision.FreezeReason)).Inc()
	}
	if result.CapitalDecision.Quarantine.IsActive {
		s.metrics.QuarantinesTotal.WithLabelValues(string(result.CapitalDecision.Quarantine.Trigger)).Inc()
	}
	if result.MetaDecision.TrustState == meta.StateUnknownThreat {
		s.metrics.ThreatsTotal.Inc()
	}
}

func (s *Supervisor) appendAudit(ctx context.Context, result *TickResult) {
	if s.auditor == nil {
		return
	}

	rec := audit.Record{
		Timestamp:       result.Timestamp,
		TrustState:      string(result.MetaDecision.TrustState),
		TrustScore:      result.MetaDecision.TrustScore,
		ScalingState:    string(result.CapitalDecision.State),
		Confidence:      result.CapitalDecision.Confidence,
		AllowedFraction: result.EffectiveCapitalFraction,
		SizeMultiplier:  result.CapitalDecision.SizeMultiplier,
		CapitalOverride: result.MetaDecision.CapitalOverride,
		AllowsEntries:   result.AllowsEntries,
		AllowsExits:     result.AllowsExits,
		QuarantinePct:   result.CapitalDecision.Quarantine.QuarantinePct,
		Reason:          result.MetaDecision.Reason,
	}

	if err := s.auditor.Append(ctx, rec); err != nil {
		if s.metrics != nil {
			s.metrics.AuditWriteErrors.Inc()
		}
		log.Warn().Err(err).Msg("decision audit append failed, continuing")
	}
}

func (s *Supervisor) saveSnapshot(ctx context.Context, now time.Time) {
	if s.store == nil {
		return
	}

	snap := s.Snapshot(now)
	if err := s.store.Save(ctx, snap); err != nil {
		log.Warn().Err(err).Msg("snapshot save failed, continuing")
	}
}

// LastResult returns the most recent tick result, or nil before the
// first tick.
func (s *Supervisor) LastResult() *TickResult {
	return s.lastResult
}

// Meta exposes the meta governor for the operator reset boundary.
func (s *Supervisor) Meta() *meta.Governor {
	return s.meta
}

// Capital exposes the capital governor for operator intervention.
func (s *Supervisor) Capital() *capital.Governor {
	return s.capital
}

// Snapshot exports the full governor hierarchy state.
func (s *Supervisor) Snapshot(now time.Time) *persistence.Snapshot {
	snap := &persistence.Snapshot{TakenAt: now}

	snap.Meta.TrustState = s.meta.TrustState()
	snap.Meta.TrustScore = s.meta.TrustScore()
	snap.Meta.RequiresManualReset = s.meta.RequiresManualReset()

	snap.Capital.ScalingState = s.capital.State()
	snap.Capital.AllowedFraction = s.capital.AllowedCapitalFraction()
	snap.Capital.FreezeUntil = s.capital.FreezeUntil()
	snap.Capital.FreezeReason = s.capital.FreezeReasonNow()
	snap.Capital.PeakEquity = s.capital.PeakEquity()
	snap.Capital.WinStreak = s.capital.WinStreak()

	qc := s.capital.Quarantine()
	qs := qc.Snapshot(now)
	snap.Quarantine.Active = qs.IsActive
	snap.Quarantine.QuarantinePct = qs.QuarantinePct
	snap.Quarantine.Trigger = qs.Trigger
	snap.Quarantine.TriggerValue = qs.TriggerValue
	snap.Quarantine.ActivatedAt = qs.ActivatedAt
	if qs.IsActive && qs.StableFor > 0 {
		snap.Quarantine.FirstNormalizedAt = now.Add(-qs.StableFor)
	}

	snap.Baselines = s.meta.Detector().SnapshotState()

	return snap
}

// Restore applies a previously saved snapshot to the hierarchy.
func (s *Supervisor) Restore(snap *persistence.Snapshot) {
	s.meta.RestoreState(snap.Meta.TrustState, snap.Meta.TrustScore, snap.Meta.RequiresManualReset)
	s.meta.Detector().RestoreState(snap.Baselines)

	s.capital.RestoreState(snap.Capital.ScalingState, snap.Capital.AllowedFraction,
		snap.Capital.FreezeUntil, snap.Capital.FreezeReason, snap.Capital.PeakEquity,
		snap.Capital.WinStreak)

	s.capital.Quarantine().RestoreState(snap.Quarantine.Active, snap.Quarantine.QuarantinePct,
		snap.Quarantine.Trigger, snap.Quarantine.TriggerValue,
		snap.Quarantine.ActivatedAt, snap.Quarantine.FirstNormalizedAt)

	log.Info().
		Str("trust_state", string(snap.Meta.TrustState)).
		Float64("allowed_fraction", snap.Capital.AllowedFraction).
		Time("taken_at", snap.TakenAt).
		Msg("governor state restored from snapshot")
}

// RestoreFromStore loads and applies the latest snapshot, if one exists.
func (s *Supervisor) RestoreFromStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	snap, found, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		log.Info().Msg("no governor snapshot found, starting fresh")
		return nil
	}

	s.Restore(snap)
	return nil
}
