package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trainerhq/dexd/pkg/dex"
)

// storeMetrics is the Prometheus implementation of the dex.StoreMetrics
// interface from pkg/dex/metrics.go.
type storeMetrics struct {
	storeType         string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	trainerCount      prometheus.Gauge
}

// NewStoreMetrics creates a new Prometheus-backed collector for trainer
// roster operations.
//
// Parameters:
//   - storeType: Backing of the trainer arena (e.g., "file", "memory").
//     Used as a label to distinguish metrics from different backings.
//
// Returns nil if metrics are not enabled (InitRegistry not called); the
// roster falls back to its own no-op collector.
func NewStoreMetrics(storeType string) dex.StoreMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &storeMetrics{
		storeType: storeType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexd_store_operations_total",
				Help: "Total number of trainer roster operations by backing, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dexd_store_operation_duration_seconds",
				Help: "Duration of trainer roster operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
				},
			},
			[]string{"store_type", "operation"},
		),
		trainerCount: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dexd_store_trainers",
				Help: "Current number of stored trainer records",
				ConstLabels: prometheus.Labels{
					"store_type": storeType,
				},
			},
		),
	}
}

// RecordOperation implements dex.StoreMetrics.RecordOperation.
func (m *storeMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(m.storeType, operation, status).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

// SetTrainerCount implements dex.StoreMetrics.SetTrainerCount.
func (m *storeMetrics) SetTrainerCount(count int) {
	m.trainerCount.Set(float64(count))
}
