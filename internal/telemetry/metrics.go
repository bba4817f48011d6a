package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds all Prometheus metrics for riskgov
type MetricsRegistry struct {
	// Governance score gauges
	TrustScore      prometheus.Gauge
	ConfidenceScore prometheus.Gauge
	AllowedFraction prometheus.Gauge
	CapitalOverride prometheus.Gauge
	QuarantinePct   prometheus.Gauge

	// Tick counters
	TicksTotal       prometheus.Counter
	TickDuration     prometheus.Histogram
	TrustStates      *prometheus.CounterVec
	ScalingStates    *prometheus.CounterVec
	FreezesTotal     *prometheus.CounterVec
	QuarantinesTotal *prometheus.CounterVec
	ThreatsTotal     prometheus.Counter
	OverridesTotal   prometheus.Counter

	// Audit path health
	AuditWriteErrors prometheus.Counter
}

// NewMetricsRegistry creates a metrics registry with all riskgov metrics
// registered against the supplied registerer.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	m := &MetricsRegistry{
		TrustScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgov_trust_score",
			Help: "Current meta governor trust score (0.0 to 1.0)",
		}),
		ConfidenceScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgov_confidence_score",
			Help: "Current composite confidence score (0.0 to 1.0)",
		}),
		AllowedFraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgov_allowed_capital_fraction",
			Help: "Capital fraction the system may deploy after all overrides",
		}),
		CapitalOverride: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgov_capital_override",
			Help: "Meta governor capital override in effect (1.0 when none)",
		}),
		QuarantinePct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgov_quarantine_pct",
			Help: "Fraction of capital currently quarantined",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskgov_ticks_total",
			Help: "Total governance evaluation ticks",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskgov_tick_duration_seconds",
			Help:    "Duration of one full governance tick",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		TrustStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgov_trust_state_total",
			Help: "Ticks spent in each trust state",
		}, []string{"state"}),
		ScalingStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgov_scaling_state_total",
			Help: "Ticks spent in each scaling state",
		}, []string{"state"}),
		FreezesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgov_freezes_total",
			Help: "Anti-euphoria freezes by reason",
		}, []string{"reason"}),
		QuarantinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgov_quarantines_total",
			Help: "Quarantine activations by trigger",
		}, []string{"trigger"}),
		ThreatsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskgov_unknown_threats_total",
			Help: "Unknown-threat detections that locked the system",
		}),
		OverridesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskgov_capital_overrides_total",
			Help: "Ticks where the meta governor overrode the capital fraction",
		}),
		AuditWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskgov_audit_write_errors_total",
			Help: "Failed decision audit writes (circuit breaker included)",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TrustScore, m.ConfidenceScore, m.AllowedFraction, m.CapitalOverride,
			m.QuarantinePct, m.TicksTotal, m.TickDuration, m.TrustStates,
			m.ScalingStates, m.FreezesTotal, m.QuarantinesTotal, m.ThreatsTotal,
			m.OverridesTotal, m.AuditWriteErrors,
		)
	}

	return m
}
