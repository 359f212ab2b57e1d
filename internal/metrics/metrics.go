// Package metrics holds the Prometheus collectors shared by the API, the
// services and the background worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kanso"

var (
	// HTTPRequests counts served requests.
	// Labels: method, route (gin full path), status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration measures request latency.
	// Labels: method, route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthFailures counts rejected requests on protected routes.
	// Labels: reason (missing, malformed, invalid, unknown_user)
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "auth_failures_total",
		Help:      "Requests rejected by the bearer token check",
	}, []string{"reason"})

	// RateLimited counts requests refused by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests refused with 429 by the rate limiter",
	})

	// CompletionToggles counts completion writes.
	// Labels: outcome (completed, uncompleted)
	CompletionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "completions",
		Name:      "toggles_total",
		Help:      "Total completion toggles by resulting state",
	}, []string{"outcome"})

	// AgendaItems observes how many habits and tasks were evaluated per agenda day.
	AgendaItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "agenda",
		Name:      "items_evaluated",
		Help:      "Habits and tasks evaluated per agenda day",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
	})

	// AgendaFallbacks counts items whose recurrence was invalid and which were
	// scheduled on their nominal date instead.
	AgendaFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agenda",
		Name:      "pattern_fallbacks_total",
		Help:      "Agenda items evaluated on their nominal date because their pattern is invalid",
	})

	// WorkerJobs counts progress worker jobs.
	// Labels: result (processed, unchanged, failed, dropped)
	WorkerJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "progress_jobs_total",
		Help:      "Progress recomputation jobs by result",
	}, []string{"result"})
)
