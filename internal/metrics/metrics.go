package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the collectors for a single process run. Each Recorder owns
// its registry so tests and repeated runs never collide on registration.
type Recorder struct {
	registry *prometheus.Registry

	Items        *prometheus.CounterVec
	Warnings     *prometheus.CounterVec
	PurgeRemoved *prometheus.CounterVec
	ProbeSeconds prometheus.Histogram
	RunSeconds   *prometheus.GaugeVec
	LastRun      *prometheus.GaugeVec
}

// New registers the mediadex collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		Items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediadex_items_total",
				Help: "Files processed by outcome and record kind",
			},
			[]string{"outcome", "kind"},
		),
		Warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediadex_warnings_total",
				Help: "Recoverable per-item problems by error kind",
			},
			[]string{"type"},
		),
		PurgeRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediadex_purge_removed_total",
				Help: "Stale index entries removed by partition",
			},
			[]string{"kind"},
		),
		ProbeSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mediadex_probe_duration_seconds",
				Help:    "Duration of ffprobe invocations",
				Buckets: prometheus.DefBuckets,
			},
		),
		RunSeconds: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mediadex_run_duration_seconds",
				Help: "Wall time of the last run by command",
			},
			[]string{"command"},
		),
		LastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mediadex_last_run_timestamp_seconds",
				Help: "Unix time the last run finished by command",
			},
			[]string{"command"},
		),
	}
}

// RecordItem counts one processed file.
func (r *Recorder) RecordItem(outcome, kind string) {
	if r == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	r.Items.WithLabelValues(outcome, kind).Inc()
}

// RecordWarning counts one recoverable problem.
func (r *Recorder) RecordWarning(kind string) {
	if r == nil {
		return
	}
	r.Warnings.WithLabelValues(kind).Inc()
}

// RecordPurge adds removals for a partition.
func (r *Recorder) RecordPurge(kind string, removed int) {
	if r == nil {
		return
	}
	r.PurgeRemoved.WithLabelValues(kind).Add(float64(removed))
}

// ObserveProbe records one probe duration.
func (r *Recorder) ObserveProbe(d time.Duration) {
	if r == nil {
		return
	}
	r.ProbeSeconds.Observe(d.Seconds())
}

// FinishRun stamps the run duration and completion time for command.
func (r *Recorder) FinishRun(command string, started, finished time.Time) {
	if r == nil {
		return
	}
	r.RunSeconds.WithLabelValues(command).Set(finished.Sub(started).Seconds())
	r.LastRun.WithLabelValues(command).Set(float64(finished.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values to path atomically. An empty path
// is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
