// Package metrics records pipeline counters and writes them in the
// Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "praxis"

// Recorder holds the run's metrics. A nil *Recorder discards everything.
type Recorder struct {
	registry  *prometheus.Registry
	geocodes  *prometheus.CounterVec
	tables    prometheus.Gauge
	extracted prometheus.Gauge
	mapped    prometheus.Gauge
	failed    prometheus.Gauge
	duration  *prometheus.GaugeVec
	lastRun   *prometheus.GaugeVec
}

// New returns a Recorder backed by its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		geocodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocode lookups by provider status.",
		}, []string{"status"}),
		tables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tables_extracted",
			Help:      "Tables detected in the source PDF.",
		}),
		extracted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_extracted",
			Help:      "Records written to the CSV.",
		}),
		mapped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_mapped",
			Help:      "Records placed on the map.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_unmapped",
			Help:      "Records dropped because geocoding failed.",
		}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of the last stage run.",
		}, []string{"stage"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful stage run.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.geocodes, r.tables, r.extracted, r.mapped, r.failed, r.duration, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveGeocode counts one lookup outcome. Transport failures use "error".
func (r *Recorder) ObserveGeocode(status string) {
	if r == nil {
		return
	}
	if status == "" {
		status = "error"
	}
	r.geocodes.WithLabelValues(status).Inc()
}

// SetExtracted records the outcome of the extract stage.
func (r *Recorder) SetExtracted(tables, records int) {
	if r == nil {
		return
	}
	r.tables.Set(float64(tables))
	r.extracted.Set(float64(records))
}

// SetMapped records the outcome of the map stage.
func (r *Recorder) SetMapped(mapped, failed int) {
	if r == nil {
		return
	}
	r.mapped.Set(float64(mapped))
	r.failed.Set(float64(failed))
}

// StageDone records a successful stage with its duration.
func (r *Recorder) StageDone(stage string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(stage).Set(elapsed.Seconds())
	r.lastRun.WithLabelValues(stage).SetToCurrentTime()
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return eris.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}
