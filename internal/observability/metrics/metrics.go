package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters for the dialogue/booking engine.
type EngineMetrics struct {
	inboundTotal  *prometheus.CounterVec
	repliesTotal  *prometheus.CounterVec
	bookingsTotal *prometheus.CounterVec
	handoffsTotal prometheus.Counter
	optOutsTotal  prometheus.Counter
	slotSearch    prometheus.Histogram
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediflow",
			Subsystem: "engine",
			Name:      "inbound_messages_total",
			Help:      "Total inbound patient messages",
		}, []string{"channel"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediflow",
			Subsystem: "engine",
			Name:      "replies_total",
			Help:      "Total outbound replies by kind",
		}, []string{"kind"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediflow",
			Subsystem: "engine",
			Name:      "bookings_total",
			Help:      "Total booking commit attempts by status",
		}, []string{"status"}),
		handoffsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mediflow",
			Subsystem: "engine",
			Name:      "handoffs_total",
			Help:      "Total conversations escalated to human handling",
		}),
		optOutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mediflow",
			Subsystem: "engine",
			Name:      "opt_outs_total",
			Help:      "Total permanent STOP opt-outs",
		}),
		slotSearch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mediflow",
			Subsystem: "engine",
			Name:      "slot_search_seconds",
			Help:      "Latency of availability reconciliation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.bookingsTotal,
		m.handoffsTotal, m.optOutsTotal, m.slotSearch)
	return m
}

func (m *EngineMetrics) ObserveInbound(channel string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(channel).Inc()
}

func (m *EngineMetrics) ObserveReply(kind string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(kind).Inc()
}

func (m *EngineMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *EngineMetrics) ObserveHandoff() {
	if m == nil {
		return
	}
	m.handoffsTotal.Inc()
}

func (m *EngineMetrics) ObserveOptOut() {
	if m == nil {
		return
	}
	m.optOutsTotal.Inc()
}

func (m *EngineMetrics) ObserveSlotSearch(seconds float64) {
	if m == nil {
		return
	}
	m.slotSearch.Observe(seconds)
}
