package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "wallet_service"

var (
	creditRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "credit_requests_total",
			Help:      "Credit requests by outcome.",
		},
		[]string{"outcome"},
	)

	creditReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "credit_reviews_total",
			Help:      "Credit request reviews by decision and outcome.",
		},
		[]string{"decision", "outcome"},
	)

	spendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spends_total",
			Help:      "Spend attempts by outcome.",
		},
		[]string{"outcome"},
	)

	balanceDriftTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "balance_drift_total",
			Help:      "Reconciliations where the reported balance did not match the ledger.",
		},
	)

	balanceClampedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "balance_clamped_total",
			Help:      "Balance computations that folded to a negative value and were clamped to zero.",
		},
	)
)

const (
	outcomeCommitted = "committed"
	outcomeReplayed  = "replayed"
	outcomeRejected  = "rejected"
	outcomeNoFunds   = "insufficient_funds"
	outcomeError     = "error"
)
