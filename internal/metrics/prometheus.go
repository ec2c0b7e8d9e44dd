package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IndexBuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evidence_index_builds_total",
			Help: "Total segment index builds",
		},
	)

	SegmentsPerBuild = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evidence_segments_per_build",
			Help:    "Segments extracted per index build",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		},
	)

	SelectionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_selection_total",
			Help: "Selection match operations by outcome",
		},
		[]string{"outcome"},
	)

	SelectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evidence_selection_duration_seconds",
			Help:    "Selection match duration including highlight rewrite",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	ResponsesRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evidence_responses_registered_total",
			Help: "Bot responses registered with the evidence service",
		},
	)

	PanelsPerResponse = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evidence_panels_per_response",
			Help:    "Evidence panels attached per registered response",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	SessionValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_session_validations_total",
			Help: "SIPADU token validations by result",
		},
		[]string{"result"},
	)

	SessionCacheClears = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evidence_session_cache_clears_total",
			Help: "Session cache clears from token changes and logouts",
		},
	)

	SnapshotCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_snapshot_cache_hits_total",
			Help: "Response snapshot lookups by source",
		},
		[]string{"source"},
	)
)

func Init() {
	prometheus.MustRegister(IndexBuilds)
	prometheus.MustRegister(SegmentsPerBuild)
	prometheus.MustRegister(SelectionTotal)
	prometheus.MustRegister(SelectionDuration)
	prometheus.MustRegister(ResponsesRegistered)
	prometheus.MustRegister(PanelsPerResponse)
	prometheus.MustRegister(SessionValidations)
	prometheus.MustRegister(SessionCacheClears)
	prometheus.MustRegister(SnapshotCacheHits)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
