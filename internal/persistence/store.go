package persistence

import (
	"context"
	"time"

	"github.com/sawpanic/riskgov/internal/capital"
	"github.com/sawpanic/riskgov/internal/meta"
	"github.com/sawpanic/riskgov/internal/quarantine"
	"github.com/sawpanic/riskgov/internal/threat"
)

// Snapshot is the full internal-state field set of every stateful
// governor, sufficient to restore the hierarchy after a restart. The
// serialization format is an adapter concern; this struct is the
// boundary.
type Snapshot struct {
	TakenAt time.Time `json:"taken_at"`

	Meta struct {
		TrustState          meta.TrustState `json:"trust_state"`
		TrustScore          float64         `json:"trust_score"`
		RequiresManualReset bool            `json:"requires_manual_reset"`
	} `json:"meta"`

	Capital struct {
		ScalingState    capital.ScalingState `json:"scaling_state"`
		AllowedFraction float64              `json:"allowed_fraction"`
		FreezeUntil     time.Time            `json:"freeze_until"`
		FreezeReason    capital.FreezeReason `json:"freeze_reason"`
		PeakEquity      float64              `json:"peak_equity"`
		WinStreak       int                  `json:"win_streak"`
	} `json:"capital"`

	Quarantine struct {
		Active            bool               `json:"active"`
		QuarantinePct     float64            `json:"quarantine_pct"`
		Trigger           quarantine.Trigger `json:"trigger"`
		TriggerValue      float64            `json:"trigger_value"`
		ActivatedAt       time.Time          `json:"activated_at"`
		FirstNormalizedAt time.Time          `json:"first_normalized_at"`
	} `json:"quarantine"`

	Baselines map[string]threat.BaselineSnapshot `json:"baselines"`
}

// SnapshotStore is the persistence boundary: the core never decides when
// or where snapshots live, it only fills and applies them.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, bool, error)
}
