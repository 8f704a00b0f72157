// Package metrics exposes the Prometheus instruments the server records into.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration observes HTTP request latency per route and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "familyplan_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	// Registrations counts completed registrations by enrollment outcome.
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familyplan_registrations_total",
		Help: "Completed registrations.",
	}, []string{"outcome"})

	// GenerationRequests counts calls to the generation service by result.
	GenerationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familyplan_generation_requests_total",
		Help: "Activity generation requests.",
	}, []string{"result"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
