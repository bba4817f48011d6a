package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Record is one row in the append-only decision ledger. Decisions are
// auditable by construction: every tick's outputs land here verbatim.
type Record struct {
	ID              string    `db:"id"`
	Timestamp       time.Time `db:"ts"`
	TrustState      string    `db:"trust_state"`
	TrustScore      float64   `db:"trust_score"`
	ScalingState    string    `db:"scaling_state"`
	Confidence      float64   `db:"confidence"`
	AllowedFraction float64   `db:"allowed_fraction"`
	SizeMultiplier  float64   `db:"size_multiplier"`
	CapitalOverride *float64  `db:"capital_override"`
	AllowsEntries   bool      `db:"allows_entries"`
	AllowsExits     bool      `db:"allows_exits"`
	QuarantinePct   float64   `db:"quarantine_pct"`
	Reason          string    `db:"reason"`
}

// Schema creates the decision ledger table.
const Schema = `
CREATE TABLE IF NOT EXISTS governor_decisions (
	id               UUID PRIMARY KEY,
	ts               TIMESTAMPTZ NOT NULL,
	trust_state      TEXT NOT NULL,
	trust_score      DOUBLE PRECISION NOT NULL,
	scaling_state    TEXT NOT NULL,
	confidence       DOUBLE PRECISION NOT NULL,
	allowed_fraction DOUBLE PRECISION NOT NULL,
	size_multiplier  DOUBLE PRECISION NOT NULL,
	capital_override DOUBLE PRECISION,
	allows_entries   BOOLEAN NOT NULL,
	allows_exits     BOOLEAN NOT NULL,
	quarantine_pct   DOUBLE PRECISION NOT NULL,
	reason           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_governor_decisions_ts ON governor_decisions (ts);
`

const insertQuery = `
INSERT INTO governor_decisions (
	id, ts, trust_state, trust_score, scaling_state, confidence,
	allowed_fraction, size_multiplier, capital_override,
	allows_entries, allows_exits, quarantine_pct, reason
) VALUES (
	:id, :ts, :trust_state, :trust_score, :scaling_state, :confidence,
	:allowed_fraction, :size_multiplier, :capital_override,
	:allows_entries, :allows_exits, :quarantine_pct, :reason
)`

// Writer appends decision records to Postgres behind a circuit breaker:
// a dead ledger trips open and is skipped, so the audit path can never
// stall the control loop.
type Writer struct {
	db      *sqlx.DB
	breaker *gobreaker.CircuitBreaker
}

// NewWriter creates the ledger writer and ensures the schema exists.
func NewWriter(db *sqlx.DB) (*Writer, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "audit-ledger",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("audit ledger circuit breaker state change")
		},
	})

	return &Writer{db: db, breaker: breaker}, nil
}

// Append writes one decision record. Errors are returned for metrics but
// callers should log and continue; the ledger is best-effort.
func (w *Writer) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := w.breaker.Execute(func() (interface{}, error) {
		return w.db.NamedExecContext(ctx, insertQuery, rec)
	})
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}
