package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes backup, restore and retention activity to Prometheus.
// Each Recorder owns its registry so several instances can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	backupsTotal      *prometheus.CounterVec
	backupDuration    prometheus.Histogram
	lastBackupSize    prometheus.Gauge
	lastBackupSuccess prometheus.Gauge

	restoresTotal   *prometheus.CounterVec
	restoreDuration prometheus.Histogram

	retentionDeleted prometheus.Counter
}

// dump and restore runs take seconds to hours
var durationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600, 7200}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		backupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlvault_backups_total",
				Help: "Total number of backup attempts by outcome",
			},
			[]string{"status"},
		),
		backupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sqlvault_backup_duration_seconds",
				Help:    "Duration of dump and verification in seconds",
				Buckets: durationBuckets,
			},
		),
		lastBackupSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sqlvault_last_backup_size_bytes",
				Help: "Size of the most recent successful snapshot",
			},
		),
		lastBackupSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sqlvault_last_backup_success_timestamp_seconds",
				Help: "Unix time of the most recent successful snapshot",
			},
		),

		restoresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlvault_restores_total",
				Help: "Total number of restore attempts by outcome",
			},
			[]string{"status"},
		),
		restoreDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sqlvault_restore_duration_seconds",
				Help:    "Duration of restore runs in seconds",
				Buckets: durationBuckets,
			},
		),

		retentionDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sqlvault_retention_deleted_total",
				Help: "Total number of local snapshots removed by retention",
			},
		),
	}
}

func (r *Recorder) BackupFinished(status string, duration time.Duration, size int64) {
	r.backupsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		r.backupDuration.Observe(duration.Seconds())
	}
	if status == "success" {
		r.lastBackupSize.Set(float64(size))
		r.lastBackupSuccess.SetToCurrentTime()
	}
}

func (r *Recorder) RestoreFinished(status string, duration time.Duration) {
	r.restoresTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		r.restoreDuration.Observe(duration.Seconds())
	}
}

func (r *Recorder) RetentionDeleted(count int) {
	if count > 0 {
		r.retentionDeleted.Add(float64(count))
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
