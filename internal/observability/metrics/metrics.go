package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the booking and
// reminder flows.
type SchedulingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	conflictsTotal prometheus.Counter
	remindersTotal *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicops",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking requests by origin and resulting status",
		}, []string{"origin", "status"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicops",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Total bookings rejected by the conflict detector",
		}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicops",
			Subsystem: "reminders",
			Name:      "dispatched_total",
			Help:      "Total reminder dispatch attempts by category and outcome",
		}, []string{"category", "status"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicops",
			Subsystem: "reminders",
			Name:      "scan_duration_seconds",
			Help:      "Duration of daily reminder scans",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictsTotal, m.remindersTotal, m.scanDuration)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(origin, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(origin, status).Inc()
}

func (m *SchedulingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *SchedulingMetrics) ObserveReminder(category, status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(category, status).Inc()
}

func (m *SchedulingMetrics) ObserveScan(category string, seconds float64) {
	if m == nil {
		return
	}
	m.scanDuration.WithLabelValues(category).Observe(seconds)
}
