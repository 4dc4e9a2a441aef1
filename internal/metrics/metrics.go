// Package metrics holds the Prometheus collectors of the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

var (
	// EventsApplied counts events committed to the store, by event name.
	EventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_applied_total",
		Help:      "Total number of events applied to the ledger",
	}, []string{"event"})

	// EventsSkipped counts events already covered by the cursor.
	EventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_skipped_total",
		Help:      "Total number of events skipped because they were already applied",
	})

	EventFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_failures_total",
		Help:      "Total number of events whose application failed",
	}, []string{"event"})

	LastAppliedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_applied_block",
		Help:      "Block number of the most recently applied event",
	})

	// NextBlock is the first block not yet scanned.
	NextBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "next_block",
		Help:      "First block the indexer has not scanned yet",
	})

	// NegativeBalances counts balances observed below zero after a debit.
	NegativeBalances = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "negative_balances_total",
		Help:      "Total number of balances observed below zero",
	}, []string{"ledger"})

	RunFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "run_failures_total",
		Help:      "Total number of indexer runs that stopped on an error",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Indexer run duration in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})
)

// RecordApplied counts one applied event at block.
func RecordApplied(name string, block uint64) {
	EventsApplied.WithLabelValues(name).Inc()
	LastAppliedBlock.Set(float64(block))
}

// RecordNegativeBalance counts one negative balance in the given ledger
// ("token" or "savior").
func RecordNegativeBalance(ledger string) {
	NegativeBalances.WithLabelValues(ledger).Inc()
}
