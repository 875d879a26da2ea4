package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulingMetrics exposes counters/histograms for booking and dashboard flows.
type SchedulingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	conflictsTotal *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
	viewLatency    *prometheus.HistogramVec
	httpLatency    *prometheus.HistogramVec
	reportsTotal   *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking",
			Name:      "writes_total",
			Help:      "Appointment writes by operation and outcome",
		}, []string{"operation", "outcome"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking",
			Name:      "conflict_checks_total",
			Help:      "Conflict checks by verdict reason (none when bookable)",
		}, []string{"reason"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "dashboard",
			Name:      "cache_lookups_total",
			Help:      "Dashboard cache lookups by view and result",
		}, []string{"view", "result"}),
		viewLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "dashboard",
			Name:      "view_duration_seconds",
			Help:      "Time to load and compute a dashboard view",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "archive",
			Name:      "reports_total",
			Help:      "Finance reports archived by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictsTotal, m.cacheTotal, m.viewLatency, m.httpLatency, m.reportsTotal)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveConflictCheck(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.conflictsTotal.WithLabelValues(reason).Inc()
}

// ObserveCache satisfies cache.Recorder.
func (m *SchedulingMetrics) ObserveCache(view, result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(view, result).Inc()
}

func (m *SchedulingMetrics) ObserveView(view string, seconds float64) {
	if m == nil {
		return
	}
	m.viewLatency.WithLabelValues(view).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveHTTP(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, strconv.Itoa(status)).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveReport(status string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(status).Inc()
}
