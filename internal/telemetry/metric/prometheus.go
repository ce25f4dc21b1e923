package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all backup metrics.
	Namespace = "bestelldesk_backup"

	LabelOperation = "operation"
	LabelResult    = "result"
	LabelKind      = "kind"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// BackupMetrics holds the metrics of backup operations. A nil *BackupMetrics
// is valid and records nothing.
type BackupMetrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	FailuresTotal     *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	RecordsTotal      *prometheus.CounterVec
	LastSuccess       *prometheus.GaugeVec
}

// NewBackupMetrics creates backup metrics on a private registry.
func NewBackupMetrics() *BackupMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &BackupMetrics{
		registry: reg,
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of backup operations by operation and result",
			},
			[]string{LabelOperation, LabelResult},
		),
		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "failures_total",
				Help:      "Total number of failed backup operations by operation and error kind",
			},
			[]string{LabelOperation, LabelKind},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of backup operations in seconds, key derivation included",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{LabelOperation},
		),
		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "records_total",
				Help:      "Total number of records exported or restored",
			},
			[]string{LabelOperation},
		),
		LastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful operation",
			},
			[]string{LabelOperation},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *BackupMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSuccess records a completed operation.
func (m *BackupMetrics) RecordSuccess(operation string, records int, elapsed time.Duration, now time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, ResultSuccess).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	m.RecordsTotal.WithLabelValues(operation).Add(float64(records))
	m.LastSuccess.WithLabelValues(operation).Set(float64(now.Unix()))
}

// RecordFailure records a failed operation with its error kind.
func (m *BackupMetrics) RecordFailure(operation, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, ResultFailure).Inc()
	m.FailuresTotal.WithLabelValues(operation, kind).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// WriteTextfile writes all metrics to path in the node_exporter textfile
// format. The write goes through a temporary file and a rename.
func (m *BackupMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
