package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Pipeline metrics
	TransactionsProcessed *prometheus.CounterVec
	TransactionsRejected  *prometheus.CounterVec
	RowsSkipped           prometheus.Counter
	RunDuration           prometheus.Histogram

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Counter
}

// New creates all metrics on the default Prometheus registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all metrics on reg. Tests pass a
// fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Pipeline metrics
		TransactionsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_engine_transactions_processed_total",
				Help: "Total number of transactions applied, by kind",
			},
			[]string{"kind"},
		),
		TransactionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_engine_transactions_rejected_total",
				Help: "Total number of transactions rejected, by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "payment_engine_rows_skipped_total",
			Help: "Total number of malformed input rows skipped",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payment_engine_run_duration_seconds",
			Help:    "Duration of complete engine runs",
			Buckets: prometheus.DefBuckets,
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "payment_engine_accounts_created_total",
			Help: "Total number of client accounts created",
		}),
		AccountsLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "payment_engine_accounts_locked_total",
			Help: "Total number of accounts frozen by a chargeback",
		}),
	}
}
