package threat

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// degenerateStdDev is the floor below which a baseline is treated as
// constant: no z-score is meaningful against it, so the metric is skipped
// rather than flagged.
const degenerateStdDev = 1e-10

// DetectorConfig contains the statistical thresholds for anomaly detection
type DetectorConfig struct {
	// Minimum observations before a baseline participates in detection
	MinSamplesForBaseline int64 `yaml:"min_samples_for_baseline"` // ≥100 samples

	// Absolute z-score beyond which an observation is anomalous
	ZScoreThreshold float64 `yaml:"z_score_threshold"` // |z| > 3.0

	// Simultaneous anomalies that alone constitute a threat
	MinAnomaliesForThreat int `yaml:"min_anomalies_for_threat"` // ≥2 signals

	// Joint probability below which even a single anomaly is a threat
	JointProbabilityThreshold float64 `yaml:"joint_probability_threshold"` // <0.001

	// Allowed drift between expected and observed pairwise correlation
	CorrelationBreakThreshold float64 `yaml:"correlation_break_threshold"` // |Δ| > 0.5
}

// DefaultDetectorConfig returns production-ready detection thresholds
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinSamplesForBaseline:     100,
		ZScoreThreshold:           3.0,
		MinAnomaliesForThreat:     2,
		JointProbabilityThreshold: 0.001,
		CorrelationBreakThreshold: 0.5,
	}
}

// UnknownThreatSignal describes a single anomalous metric observation
type UnknownThreatSignal struct {
	Metric       string  `json:"metric"`
	Value        float64 `json:"value"`
	BaselineMean float64 `json:"baseline_mean"`
	BaselineStd  float64 `json:"baseline_std"`
	ZScore       float64 `json:"z_score"`
	Description  string  `json:"description"`
}

// ThreatAssessment is the immutable per-tick output of the detector
type ThreatAssessment struct {
	Timestamp         time.Time             `json:"timestamp"`
	Signals           []UnknownThreatSignal `json:"signals"`
	ThreatCount       int                   `json:"threat_count"`
	MaxAbsZScore      float64               `json:"max_abs_z_score"`
	JointProbability  float64               `json:"joint_probability"`
	HasUnknownThreats bool                  `json:"has_unknown_threats"`
}

// Detector flags statistically anomalous metric observations against
// lazily-built per-metric baselines. It holds the only mutable state in
// the threat package; one control loop per instance, no internal locking.
type Detector struct {
	config    *DetectorConfig
	baselines *BaselineTracker

	// expected pairwise correlations, keyed by ordered metric pair.
	// Registered explicitly by the operator; never estimated.
	expectedCorrelations map[string]float64
}

// NewDetector creates an unknown-threat detector
func NewDetector(config *DetectorConfig) *Detector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &Detector{
		config:               config,
		baselines:            NewBaselineTracker(),
		expectedCorrelations: make(map[string]float64),
	}
}

// UpdateMetric records one observation without evaluating it.
// Used to warm baselines from history before detection goes live.
func (d *Detector) UpdateMetric(name string, value float64) {
	d.baselines.Update(name, value)
}

// Baselines exposes the tracker for status reporting and restore.
func (d *Detector) Baselines() *BaselineTracker {
	return d.baselines
}

// Evaluate scores every observation against its baseline and returns an
// assessment. Observations are folded into the baselines after scoring,
// so an anomaly never contaminates the baseline it is judged against.
// Metrics without a mature baseline (<MinSamplesForBaseline) or with a
// degenerate (constant) baseline are skipped, never flagged.
func (d *Detector) Evaluate(observations map[string]float64, now time.Time) *ThreatAssessment {
	assessment := &ThreatAssessment{
		Timestamp:        now,
		Signals:          []UnknownThreatSignal{},
		JointProbability: 1.0,
	}

	// Sorted order keeps the signal list deterministic for replay.
	names := make([]string, 0, len(observations))
	for name := range observations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := observations[name]
		baseline := d.baselines.Get(name)

		if baseline == nil || baseline.Count < d.config.MinSamplesForBaseline {
			d.baselines.Update(name, value)
			continue
		}

		std := baseline.StdDev()
		if std <= degenerateStdDev {
			d.baselines.Update(name, value)
			continue
		}

		z := (value - baseline.Mean) / std
		if math.Abs(z) > d.config.ZScoreThreshold {
			assessment.Signals = append(assessment.Signals, UnknownThreatSignal{
				Metric:       name,
				Value:        value,
				BaselineMean: baseline.Mean,
				BaselineStd:  std,
				ZScore:       z,
				Description: fmt.Sprintf("%s=%.4f deviates %.2fσ from baseline %.4f±%.4f",
					name, value, z, baseline.Mean, std),
			})
		}

		d.baselines.Update(name, value)
	}

	for _, signal := range assessment.Signals {
		absZ := math.Abs(signal.ZScore)
		if absZ > assessment.MaxAbsZScore {
			assessment.MaxAbsZScore = absZ
		}
		// Two-tailed tail probability under the independence assumption.
		// Correlated metrics make this product over-confident, which
		// biases toward declaring a threat, which is the conservative direction.
		assessment.JointProbability *= twoTailedProbability(absZ)
	}

	assessment.ThreatCount = len(assessment.Signals)
	assessment.HasUnknownThreats = assessment.ThreatCount >= d.config.MinAnomaliesForThreat ||
		(assessment.ThreatCount > 0 && assessment.JointProbability < d.config.JointProbabilityThreshold)

	return assessment
}

// SetExpectedCorrelation registers the operator-expected correlation for a
// metric pair. Order of the pair does not matter.
func (d *Detector) SetExpectedCorrelation(m1, m2 string, corr float64) {
	d.expectedCorrelations[pairKey(m1, m2)] = corr
}

// CheckCorrelationBreakdown compares an observed pairwise correlation
// against its registered expectation. Returns a signal when the drift
// exceeds the breakdown threshold, or nil when within tolerance or when
// no expectation was registered.
func (d *Detector) CheckCorrelationBreakdown(m1, m2 string, observed float64) *UnknownThreatSignal {
	expected, exists := d.expectedCorrelations[pairKey(m1, m2)]
	if !exists {
		return nil
	}

	delta := math.Abs(observed - expected)
	if delta <= d.config.CorrelationBreakThreshold {
		return nil
	}

	return &UnknownThreatSignal{
		Metric: fmt.Sprintf("corr(%s,%s)", m1, m2),
		Value:  observed,
		ZScore: delta / d.config.CorrelationBreakThreshold,
		Description: fmt.Sprintf("correlation %s/%s broke down: observed %.2f vs expected %.2f (Δ%.2f > %.2f)",
			m1, m2, observed, expected, delta, d.config.CorrelationBreakThreshold),
	}
}

func pairKey(m1, m2 string) string {
	if m1 > m2 {
		m1, m2 = m2, m1
	}
	return m1 + "|" + m2
}

// twoTailedProbability returns P(|Z| > z) for a standard normal variable.
func twoTailedProbability(z float64) float64 {
	return 2.0 * (1.0 - normalCDF(z))
}

// normalCDF approximates the standard normal CDF using the
// Abramowitz–Stegun polynomial approximation (formula 26.2.17,
// |error| < 7.5e-8).
func normalCDF(x float64) float64 {
	if x < 0 {
		return 1.0 - normalCDF(-x)
	}

	const (
		b0 = 0.2316419
		b1 = 0.319381530
		b2 = -0.356563782
		b3 = 1.781477937
		b4 = -1.821255978
		b5 = 1.330274429
	)

	t := 1.0 / (1.0 + b0*x)
	pdf := math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
	poly := t * (b1 + t*(b2+t*(b3+t*(b4+t*b5))))
	return 1.0 - pdf*poly
}

// RestoreState replaces the detector's baselines from a snapshot.
func (d *Detector) RestoreState(baselines map[string]BaselineSnapshot) {
	d.baselines.ResetAll()
	for name, snap := range baselines {
		d.baselines.baselines[name] = &MetricBaseline{
			Name:  name,
			Count: snap.Count,
			Mean:  snap.Mean,
			Min:   snap.Min,
			Max:   snap.Max,
			m2:    snap.M2,
		}
	}
}

// SnapshotState exports the baselines for persistence.
func (d *Detector) SnapshotState() map[string]BaselineSnapshot {
	out := make(map[string]BaselineSnapshot, len(d.baselines.baselines))
	for name, b := range d.baselines.baselines {
		out[name] = BaselineSnapshot{
			Count: b.Count,
			Mean:  b.Mean,
			Min:   b.Min,
			Max:   b.Max,
			M2:    b.m2,
		}
	}
	return out
}

// BaselineSnapshot is the serializable form of one metric baseline.
type BaselineSnapshot struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	M2    float64 `json:"m2"`
}
