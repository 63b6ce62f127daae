// Package metrics defines the Prometheus instruments exported by the daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds pipeline, watcher and cleanup instruments.
type Metrics struct {
	registry *prometheus.Registry

	FilesClassified  *prometheus.CounterVec
	ClassifyDuration prometheus.Histogram
	TMDBLookups      *prometheus.CounterVec
	BytesMoved       prometheus.Counter
	WatchEvents      prometheus.Counter
	Rescans          prometheus.Counter
	WatchActive      prometheus.Gauge
	CleanupRunning   prometheus.Gauge
}

// New creates a registry with process and Go collectors plus the filearr
// instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		registry: reg,
		FilesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filearr",
			Subsystem: "pipeline",
			Name:      "files_total",
			Help:      "Files classified, by outcome status and producer.",
		}, []string{"status", "source"}),
		ClassifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "filearr",
			Subsystem: "pipeline",
			Name:      "classify_duration_seconds",
			Help:      "Duration of a single file classification.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
		TMDBLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filearr",
			Subsystem: "tmdb",
			Name:      "matches_total",
			Help:      "Metadata resolutions, by result (identified or fallback).",
		}, []string{"result"}),
		BytesMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filearr",
			Subsystem: "organizer",
			Name:      "moved_bytes_total",
			Help:      "Bytes moved into the library.",
		}),
		WatchEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filearr",
			Subsystem: "watcher",
			Name:      "events_total",
			Help:      "Filesystem create events received for candidate files.",
		}),
		Rescans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filearr",
			Subsystem: "watcher",
			Name:      "rescans_total",
			Help:      "Completed full rescans of the input directory.",
		}),
		WatchActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filearr",
			Subsystem: "watcher",
			Name:      "active",
			Help:      "1 while the watcher is running.",
		}),
		CleanupRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filearr",
			Subsystem: "cleanup",
			Name:      "running",
			Help:      "1 while a cleanup job is running.",
		}),
	}
	reg.MustRegister(
		m.FilesClassified,
		m.ClassifyDuration,
		m.TMDBLookups,
		m.BytesMoved,
		m.WatchEvents,
		m.Rescans,
		m.WatchActive,
		m.CleanupRunning,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveClassification records one finished classification. Nil receivers
// are allowed so callers can run without metrics.
func (m *Metrics) ObserveClassification(status, source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FilesClassified.WithLabelValues(status, source).Inc()
	m.ClassifyDuration.Observe(elapsed.Seconds())
}

// ObserveMatch records a metadata resolution.
func (m *Metrics) ObserveMatch(identified bool) {
	if m == nil {
		return
	}
	result := "fallback"
	if identified {
		result = "identified"
	}
	m.TMDBLookups.WithLabelValues(result).Inc()
}

// AddMovedBytes records a successful move of size bytes.
func (m *Metrics) AddMovedBytes(size int64) {
	if m == nil || size <= 0 {
		return
	}
	m.BytesMoved.Add(float64(size))
}

// WatchEvent counts one live event.
func (m *Metrics) WatchEvent() {
	if m == nil {
		return
	}
	m.WatchEvents.Inc()
}

// RescanCompleted counts one full rescan.
func (m *Metrics) RescanCompleted() {
	if m == nil {
		return
	}
	m.Rescans.Inc()
}

// SetWatchActive flips the watcher gauge.
func (m *Metrics) SetWatchActive(active bool) {
	if m == nil {
		return
	}
	m.WatchActive.Set(boolValue(active))
}

// SetCleanupRunning flips the cleanup gauge.
func (m *Metrics) SetCleanupRunning(running bool) {
	if m == nil {
		return
	}
	m.CleanupRunning.Set(boolValue(running))
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
