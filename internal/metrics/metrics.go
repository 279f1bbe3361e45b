package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Metrics records synchronizer activity. A nil *Metrics is a no-op.
type Metrics struct {
	cartMutations   *prometheus.CounterVec
	cartRefetches   prometheus.Counter
	stockLookups    *prometheus.CounterVec
	discarded       *prometheus.CounterVec
	settingsFetches *prometheus.CounterVec
	remoteRequests  *prometheus.CounterVec
	breakerOpen     *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		cartRefetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_reconciling_refetches_total",
			Help:      "Authoritative cart re-fetches triggered by a failed mutation.",
		}),
		stockLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_lookups_total",
			Help:      "Per-product stock lookups during reconciliation.",
		}, []string{"outcome"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "late_responses_discarded_total",
			Help:      "Responses dropped because their session or view went away.",
		}, []string{"component"}),
		settingsFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_reads_total",
			Help:      "Settings reads by the layer that served them.",
		}, []string{"source"}),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Requests to the store API by outcome.",
		}, []string{"method", "outcome"}),
		breakerOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_breaker_open",
			Help:      "1 while the store API circuit breaker is open.",
		}, []string{"name"}),
	}
	reg.MustRegister(
		m.cartMutations,
		m.cartRefetches,
		m.stockLookups,
		m.discarded,
		m.settingsFetches,
		m.remoteRequests,
		m.breakerOpen,
	)
	return m
}

func (m *Metrics) CartMutation(op, outcome string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) CartRefetch() {
	if m == nil {
		return
	}
	m.cartRefetches.Inc()
}

func (m *Metrics) StockLookup(outcome string) {
	if m == nil {
		return
	}
	m.stockLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Discarded(component string) {
	if m == nil {
		return
	}
	m.discarded.WithLabelValues(component).Inc()
}

func (m *Metrics) SettingsRead(source string) {
	if m == nil {
		return
	}
	m.settingsFetches.WithLabelValues(source).Inc()
}

func (m *Metrics) RemoteRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) BreakerOpen(name string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.breakerOpen.WithLabelValues(name).Set(v)
}
