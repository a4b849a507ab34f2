package observability

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements Metrics on top of a Prometheus registry.
// Collectors are created on first use, keyed by metric name and label set.
type PrometheusMetrics struct {
	registry   *prometheus.Registry
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a collector backed by its own registry with
// the Go runtime and process collectors attached.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &PrometheusMetrics{
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry exposes the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	labels, values := splitTags(tags)
	key := collectorKey(name, labels)

	m.mu.Lock()
	vec, ok := m.counters[key]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: promName(name),
			Help: "Counter " + name,
		}, labels)
		vec = registerOrExisting(m.registry, vec)
		m.counters[key] = vec
	}
	m.mu.Unlock()

	if vec != nil {
		vec.WithLabelValues(values...).Add(float64(value))
	}
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	labels, values := splitTags(tags)
	key := collectorKey(name, labels)

	m.mu.Lock()
	vec, ok := m.gauges[key]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: promName(name),
			Help: "Gauge " + name,
		}, labels)
		vec = registerOrExisting(m.registry, vec)
		m.gauges[key] = vec
	}
	m.mu.Unlock()

	if vec != nil {
		vec.WithLabelValues(values...).Set(value)
	}
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.observe(name, value, prometheus.LinearBuckets(0, 1, 11), tags)
}

func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.observe(name+".seconds", duration.Seconds(), prometheus.DefBuckets, tags)
}

func (m *PrometheusMetrics) observe(name string, value float64, buckets []float64, tags []Tag) {
	labels, values := splitTags(tags)
	key := collectorKey(name, labels)

	m.mu.Lock()
	vec, ok := m.histograms[key]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    promName(name),
			Help:    "Histogram " + name,
			Buckets: buckets,
		}, labels)
		vec = registerOrExisting(m.registry, vec)
		m.histograms[key] = vec
	}
	m.mu.Unlock()

	if vec != nil {
		vec.WithLabelValues(values...).Observe(value)
	}
}

// registerOrExisting registers c, returning the already registered collector
// on a duplicate and nil when the name clashes with a different label set.
func registerOrExisting[C prometheus.Collector](registry *prometheus.Registry, c C) C {
	err := registry.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	var zero C
	return zero
}

func splitTags(tags []Tag) ([]string, []string) {
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	labels := make([]string, len(sorted))
	values := make([]string, len(sorted))
	for i, t := range sorted {
		labels[i] = promName(t.Key)
		values[i] = t.Value
	}
	return labels, values
}

func collectorKey(name string, labels []string) string {
	return name + "|" + strings.Join(labels, ",")
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}
