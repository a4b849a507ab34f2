package observability

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Metrics is the recording surface used by the engine, the intake consumer
// and the outbox processor. PrometheusMetrics is the production sink.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Histogram(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is one metric label.
type Tag struct {
	Key   string
	Value string
}

// T is shorthand for Tag{Key: key, Value: value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Histogram(string, float64, ...Tag)    {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every sample in memory so tests can assert on what
// was recorded. Series are keyed by name plus tags sorted by key.
type InMemoryMetrics struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
	timings    map[string][]time.Duration
}

func NewInMemoryMetrics() *InMemoryMetrics {
	m := &InMemoryMetrics{}
	m.Reset()
	return m
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	m.counters[seriesKey(name, tags)] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	m.gauges[seriesKey(name, tags)] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.histograms[key] = append(m.histograms[key], value)
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[seriesKey(name, tags)]
}

// GetHistogram returns a copy of the observed values.
func (m *InMemoryMetrics) GetHistogram(name string, tags ...Tag) []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.histograms[seriesKey(name, tags)])
}

// GetTimings returns a copy of the observed durations.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.timings[seriesKey(name, tags)])
}

// Reset drops all recorded series.
func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = map[string]int64{}
	m.gauges = map[string]float64{}
	m.histograms = map[string][]float64{}
	m.timings = map[string][]time.Duration{}
}

func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := slices.Clone(tags)
	slices.SortStableFunc(sorted, func(a, b Tag) int { return strings.Compare(a.Key, b.Key) })

	var sb strings.Builder
	sb.WriteString(name)
	for _, t := range sorted {
		sb.WriteString("{" + t.Key + "=" + t.Value + "}")
	}
	return sb.String()
}

// Standard metric names used throughout the prioritization services.
const (
	// Operation metrics
	MetricOperationTotal    = "prioritiai.operation.total"
	MetricOperationDuration = "prioritiai.operation.duration"
	MetricOperationErrors   = "prioritiai.operation.errors"

	// Scoring metrics
	MetricScoringTotal      = "prioritiai.scoring.total"
	MetricScoringDuration   = "prioritiai.scoring.duration"
	MetricScoringFinalScore = "prioritiai.scoring.final_score"
	MetricScoringRejected   = "prioritiai.scoring.rejected"
	MetricEscalations       = "prioritiai.scoring.escalations"

	// Privacy metrics
	MetricSensitiveDetected = "prioritiai.privacy.sensitive_detected"

	// Refiner metrics
	MetricRefinerCalls    = "prioritiai.refiner.calls"
	MetricRefinerDuration = "prioritiai.refiner.duration"

	// Cache metrics
	MetricCacheHits   = "prioritiai.cache.hits"
	MetricCacheMisses = "prioritiai.cache.misses"

	// Task lifecycle metrics
	MetricTasksRecalculated  = "prioritiai.tasks.recalculated"
	MetricTasksSkippedLocked = "prioritiai.tasks.skipped_locked"
	MetricTasksLocked        = "prioritiai.tasks.locked"

	// Intake metrics
	MetricIntakeMessages = "prioritiai.intake.messages"

	// Outbox metrics
	MetricOutboxPending = "prioritiai.outbox.pending"
	MetricOutboxDead    = "prioritiai.outbox.dead"

	// Event bus metrics
	MetricEventsPublished = "prioritiai.events.published"
	MetricEventsConsumed  = "prioritiai.events.consumed"
)
