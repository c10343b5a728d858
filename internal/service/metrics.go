package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentirec",
			Subsystem: "service",
			Name:      "predictions_total",
			Help:      "Sentiment predictions served, by label",
		},
		[]string{"label"},
	)

	recommendationResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sentirec",
			Subsystem: "service",
			Name:      "recommendation_results",
			Help:      "Number of products returned per recommendation query",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	dependencyUnavailableTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentirec",
			Subsystem: "service",
			Name:      "dependency_unavailable_total",
			Help:      "Requests rejected because a dependency was unavailable",
		},
		[]string{"component"},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sentirec",
			Subsystem: "service",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, recommendationResults, dependencyUnavailableTotal, breakerState)
}
