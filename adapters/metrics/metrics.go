// Package metrics provides Prometheus metrics collection for WordCoach.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the billing core.
type Collector struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec

	// Reconciliation metrics
	DuplicateSubscriptions      prometheus.Counter
	DefaultSubscriptionsCreated prometheus.Counter
	CustomerRecoveries          prometheus.Counter

	// Plan change metrics
	PlanChanges *prometheus.CounterVec
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wordcoach",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wordcoach",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		ProviderRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wordcoach",
				Name:      "provider_requests_total",
				Help:      "Total payment provider calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		DuplicateSubscriptions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wordcoach",
				Name:      "duplicate_subscriptions_total",
				Help:      "Times more than one active subscription was found for a customer",
			},
		),
		DefaultSubscriptionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wordcoach",
				Name:      "default_subscriptions_created_total",
				Help:      "Free-tier subscriptions created for users with none",
			},
		),
		CustomerRecoveries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wordcoach",
				Name:      "customer_recoveries_total",
				Help:      "Stale customer references healed by lookup or re-creation",
			},
		),
		PlanChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wordcoach",
				Name:      "plan_changes_total",
				Help:      "Plan changes executed by type and outcome",
			},
			[]string{"type", "outcome"},
		),
	}
}
