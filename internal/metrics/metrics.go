// Package metrics provides the centralized Prometheus metrics registry for
// the edge engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	EvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_line",
		Name:      "evaluations_total",
		Help:      "Total number of edge evaluations performed",
	})
	EvaluationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_line",
		Name:      "evaluation_failures_total",
		Help:      "Total number of edge evaluations rejected with errors",
	})
	EdgesByTierTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharp_line",
		Name:      "edges_by_tier_total",
		Help:      "Edge records produced, labeled by classification tier",
	}, []string{"tier"})
	ValidationRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_line",
		Name:      "validation_rejections_total",
		Help:      "Total number of inbound records rejected at validation",
	})
	WriteConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_line",
		Name:      "write_conflicts_total",
		Help:      "Total number of duplicate prediction/outcome writes rejected",
	})
	OutcomesRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_line",
		Name:      "outcomes_recorded_total",
		Help:      "Total number of outcomes accepted",
	})
)

// Gauge metrics
var (
	OpenExposure = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharp_line",
		Name:      "open_exposure_fraction",
		Help:      "Sum of currently open recommended stake fractions",
	})
	OpenPositions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharp_line",
		Name:      "open_positions",
		Help:      "Number of currently open stake recommendations",
	})
	SourceAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sharp_line",
		Name:      "source_accuracy",
		Help:      "Rolling accuracy score per data source",
	}, []string{"source_id"})
)

// Histogram metrics
var (
	EvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharp_line",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of single-subject edge evaluations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ReportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharp_line",
		Name:      "report_duration_seconds",
		Help:      "Duration of calibration report generation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(EvaluationsTotal)
		registry.MustRegister(EvaluationFailuresTotal)
		registry.MustRegister(EdgesByTierTotal)
		registry.MustRegister(ValidationRejectionsTotal)
		registry.MustRegister(WriteConflictsTotal)
		registry.MustRegister(OutcomesRecordedTotal)

		registry.MustRegister(OpenExposure)
		registry.MustRegister(OpenPositions)
		registry.MustRegister(SourceAccuracy)

		registry.MustRegister(EvaluationDuration)
		registry.MustRegister(ReportDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordEvaluation records one completed edge evaluation.
func RecordEvaluation(tier string, durationSeconds float64) {
	EvaluationsTotal.Inc()
	EdgesByTierTotal.WithLabelValues(tier).Inc()
	EvaluationDuration.Observe(durationSeconds)
}

// RecordEvaluationFailure records a rejected evaluation.
func RecordEvaluationFailure() {
	EvaluationFailuresTotal.Inc()
}

// RecordValidationRejection records an input rejected at the boundary.
func RecordValidationRejection() {
	ValidationRejectionsTotal.Inc()
}

// RecordWriteConflict records a rejected duplicate write.
func RecordWriteConflict() {
	WriteConflictsTotal.Inc()
}

// RecordOutcome records an accepted outcome.
func RecordOutcome() {
	OutcomesRecordedTotal.Inc()
}

// UpdateExposure updates the open exposure gauges.
func UpdateExposure(fraction float64, positions int) {
	OpenExposure.Set(fraction)
	OpenPositions.Set(float64(positions))
}

// UpdateSourceAccuracy updates a source's accuracy gauge.
func UpdateSourceAccuracy(sourceID string, accuracy float64) {
	SourceAccuracy.WithLabelValues(sourceID).Set(accuracy)
}

// RecordReportDuration records calibration report generation time.
func RecordReportDuration(durationSeconds float64) {
	ReportDuration.Observe(durationSeconds)
}
