package prometheus

import (
	"time"

	"user-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics
	AuthErrorsCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// User metrics
	UserOperationsCounter *prometheus.CounterVec

	// Import metrics
	ImportRowsCounter    *prometheus.CounterVec
	ImportBatchSizeHisto prometheus.Histogram
)

// Collectors exist before InitMetrics so packages can record unconditionally;
// until then they are not registered anywhere.
func init() {
	build(promauto.With(nil), "user")
}

// InitMetrics recreates the service metrics with the configured prefix and
// registers them with the default registry
func InitMetrics(config *config.Config) {
	build(promauto.With(prometheus.DefaultRegisterer), config.Metrics.Prefix)
}

func build(factory promauto.Factory, prefix string) {
	AuthErrorsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by reason",
		},
		[]string{"reason"},
	)

	DbOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	UserOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of user operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ImportRowsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_import_rows_total",
			Help: "Rows processed by CSV imports",
		},
		[]string{"outcome"},
	)

	ImportBatchSizeHisto = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_import_batch_rows",
			Help:    "Number of rows per CSV import",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordUserOperation counts a user operation and whether it succeeded
func RecordUserOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	UserOperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordImport records the counts of one import batch
func RecordImport(success, failed int) {
	ImportRowsCounter.WithLabelValues("success").Add(float64(success))
	ImportRowsCounter.WithLabelValues("failed").Add(float64(failed))
	ImportBatchSizeHisto.Observe(float64(success + failed))
}

// RecordAuthError increments the auth error counter for reason
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}
