package threat

import (
	"math"
)

// MetricBaseline holds the running statistics for one named metric,
// maintained with Welford's online algorithm so mean and variance stay
// numerically stable across millions of updates.
type MetricBaseline struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`

	// m2 is the running sum of squared deviations from the mean.
	m2 float64
}

// Update folds one observation into the baseline. O(1) per update.
func (mb *MetricBaseline) Update(value float64) {
	mb.Count++
	if mb.Count == 1 {
		mb.Mean = value
		mb.Min = value
		mb.Max = value
		mb.m2 = 0
		return
	}

	delta := value - mb.Mean
	mb.Mean += delta / float64(mb.Count)
	delta2 := value - mb.Mean
	mb.m2 += delta * delta2

	if value < mb.Min {
		mb.Min = value
	}
	if value > mb.Max {
		mb.Max = value
	}
}

// Variance returns the sample variance (n-1 denominator).
// Returns 0 until at least two observations exist.
func (mb *MetricBaseline) Variance() float64 {
	if mb.Count < 2 {
		return 0
	}
	return mb.m2 / float64(mb.Count-1)
}

// StdDev returns the sample standard deviation.
func (mb *MetricBaseline) StdDev() float64 {
	return math.Sqrt(mb.Variance())
}

// BaselineTracker maintains per-metric running baselines. Baselines are
// created lazily on first observation and never destroyed implicitly;
// only an explicit Reset removes one.
type BaselineTracker struct {
	baselines map[string]*MetricBaseline
}

// NewBaselineTracker creates an empty tracker.
func NewBaselineTracker() *BaselineTracker {
	return &BaselineTracker{
		baselines: make(map[string]*MetricBaseline),
	}
}

// Update records one observation for the named metric, creating the
// baseline if this is the first time the metric has been seen.
func (bt *BaselineTracker) Update(name string, value float64) {
	baseline, exists := bt.baselines[name]
	if !exists {
		baseline = &MetricBaseline{Name: name}
		bt.baselines[name] = baseline
	}
	baseline.Update(value)
}

// Get returns the baseline for a metric, or nil if never observed.
func (bt *BaselineTracker) Get(name string) *MetricBaseline {
	return bt.baselines[name]
}

// Reset removes a single metric's baseline.
func (bt *BaselineTracker) Reset(name string) {
	delete(bt.baselines, name)
}

// ResetAll removes every baseline.
func (bt *BaselineTracker) ResetAll() {
	bt.baselines = make(map[string]*MetricBaseline)
}

// Size returns the number of tracked metrics.
func (bt *BaselineTracker) Size() int {
	return len(bt.baselines)
}
