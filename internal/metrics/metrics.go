package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the verification pipeline.
var (
	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_verdicts_total",
			Help: "Total number of persisted verification verdicts",
		},
		[]string{"valid", "rating"},
	)

	CheckErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_check_errors_total",
			Help: "Total number of check components that resolved to ERROR",
		},
		[]string{"check"},
	)

	PipelineFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "verification_pipeline_failures_total",
			Help: "Total number of pipeline-level failures producing error verdicts",
		},
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "verification_pipeline_duration_seconds",
			Help:    "Duration of complete verification pipeline runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	RiskScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "verification_risk_score",
			Help:    "Distribution of final risk scores",
			Buckets: []float64{10, 15, 25, 40, 55, 70, 85, 99},
		},
	)
)

// Register registers all pipeline metrics with the default registry.
func Register() {
	prometheus.MustRegister(
		VerdictsTotal,
		CheckErrorsTotal,
		PipelineFailuresTotal,
		PipelineDuration,
		RiskScores,
	)
}
