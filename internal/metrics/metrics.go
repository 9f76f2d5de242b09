// Package metrics provides the centralized Prometheus registry for the
// prediction service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsServedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabiscore",
		Name:      "predictions_served_total",
		Help:      "Total number of predictions served, by league",
	}, []string{"league"})
	PredictionErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabiscore",
		Name:      "prediction_errors_total",
		Help:      "Total number of failed prediction requests, by error kind",
	}, []string{"kind"})
	ValueBetCandidatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabiscore",
		Name:      "value_bet_candidates_total",
		Help:      "Total number of value bet candidates emitted, by league",
	}, []string{"league"})
	ResultsIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabiscore",
		Name:      "results_ingested_total",
		Help:      "Total number of live results ingested, by league",
	}, []string{"league"})
	RecalibrationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabiscore",
		Name:      "recalibration_runs_total",
		Help:      "Total number of completed recalibration fits, by league",
	}, []string{"league"})
	RecalibrationSkipsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabiscore",
		Name:      "recalibration_skips_total",
		Help:      "Total number of recalibration ticks skipped for lack of samples, by league",
	}, []string{"league"})
	RecalibrationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabiscore",
		Name:      "recalibration_failures_total",
		Help:      "Total number of recalibration failures, by league",
	}, []string{"league"})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sabiscore",
		Name:      "prediction_cache_hit_ratio",
		Help:      "Prediction cache hit ratio since start",
	})
	ResultBufferDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sabiscore",
		Name:      "result_buffer_depth",
		Help:      "Current rolling result buffer depth, by league",
	}, []string{"league"})
	TrainedModels = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sabiscore",
		Name:      "trained_models",
		Help:      "Number of leagues with a trained ensemble",
	})
)

// Histogram metrics
var (
	PredictionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sabiscore",
		Name:      "prediction_latency_seconds",
		Help:      "End-to-end prediction latency",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"league"})
	RecalibrationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sabiscore",
		Name:      "recalibration_duration_seconds",
		Help:      "Duration of one recalibration tick",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5},
	})
)

// Init registers all collectors with the service registry. Safe to call
// more than once.
func Init() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			PredictionsServedTotal,
			PredictionErrorsTotal,
			ValueBetCandidatesTotal,
			ResultsIngestedTotal,
			RecalibrationRunsTotal,
			RecalibrationSkipsTotal,
			RecalibrationFailuresTotal,
			CacheHitRatio,
			ResultBufferDepth,
			TrainedModels,
			PredictionLatency,
			RecalibrationDuration,
		)
	})
	return registry
}

// Handler returns the HTTP handler serving the registry
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
