package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type ledgerMetrics struct {
	operations  *prometheus.CounterVec
	valueMoved  *prometheus.CounterVec
	feesAccrued prometheus.Counter
	feesPaidOut prometheus.Counter
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *ledgerMetrics
)

// Ledger returns the lazily-initialised metrics registry tracking ledger and
// credit operations.
func Ledger() *ledgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &ledgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "creditledger",
				Subsystem: "ops",
				Name:      "requests_total",
				Help:      "Total ledger operations segmented by module, method, and outcome.",
			}, []string{"module", "method", "outcome"}),
			valueMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "creditledger",
				Subsystem: "ledger",
				Name:      "value_moved_total",
				Help:      "Count of value-moving operations segmented by kind.",
			}, []string{"kind"}),
			feesAccrued: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "creditledger",
				Subsystem: "credit",
				Name:      "fees_collected_total",
				Help:      "Count of successful fee collections.",
			}),
			feesPaidOut: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "creditledger",
				Subsystem: "credit",
				Name:      "fee_distributions_total",
				Help:      "Count of successful fee distribution batches.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.valueMoved,
			ledgerRegistry.feesAccrued,
			ledgerRegistry.feesPaidOut,
		)
	})
	return ledgerRegistry
}

// RecordOperation increments the operation counter for a module method.
func (m *ledgerMetrics) RecordOperation(module, method, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(normalize(module), normalize(method), normalize(outcome)).Inc()
}

// RecordValueMove increments the value-move counter for the supplied kind
// (transfer, deposit, withdraw).
func (m *ledgerMetrics) RecordValueMove(kind string) {
	if m == nil {
		return
	}
	m.valueMoved.WithLabelValues(normalize(kind)).Inc()
}

// RecordFeeCollection counts one successful fee collection.
func (m *ledgerMetrics) RecordFeeCollection() {
	if m == nil {
		return
	}
	m.feesAccrued.Inc()
}

// RecordFeeDistribution counts one successful distribution batch.
func (m *ledgerMetrics) RecordFeeDistribution() {
	if m == nil {
		return
	}
	m.feesPaidOut.Inc()
}

func normalize(v string) string {
	normalized := strings.TrimSpace(strings.ToLower(v))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
