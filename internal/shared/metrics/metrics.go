package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RiskScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_scores_total",
			Help: "Total risk assessments produced, by decision",
		},
		[]string{"decision"},
	)

	RiskCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_cache_lookups_total",
			Help: "Risk score cache lookups, by result",
		},
		[]string{"result"},
	)

	RiskInferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_inference_duration_seconds",
			Help:    "Duration of tabular model inference in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	IngestionStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_ingestion_stage_duration_seconds",
			Help:    "Duration of each document ingestion stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	IngestionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_ingestion_failures_total",
			Help: "Document ingestion failures, by stage",
		},
		[]string{"stage"},
	)

	ApplicationTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_application_status_transitions_total",
			Help: "Loan application status transitions",
		},
		[]string{"from", "to"},
	)

	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "LLM provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM provider call latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider"},
	)

	HTTPPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Handler panics recovered by route",
		},
		[]string{"route"},
	)
)

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
