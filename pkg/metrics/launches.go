package metrics

import "github.com/prometheus/client_golang/prometheus"

// LaunchMetrics tracks launch scheduling outcomes.
type LaunchMetrics struct {
	scheduled    *prometheus.CounterVec
	manualReview *prometheus.CounterVec
	attempts     prometheus.Histogram
	promoted     prometheus.Counter
}

// NewLaunchMetrics registers the launch scheduling metrics on the provided registerer.
func NewLaunchMetrics(reg prometheus.Registerer) *LaunchMetrics {
	if reg == nil {
		return &LaunchMetrics{}
	}
	scheduled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "launch_scheduled_total",
		Help:      "Products scheduled for a launch slot.",
	}, []string{"plan"})
	manualReview := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "launch_manual_review_total",
		Help:      "Fulfilled orders that could not be scheduled automatically.",
	}, []string{"reason"})
	attempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "launch_slot_search_attempts",
		Help:      "Candidate days inspected before a launch slot was booked.",
		Buckets:   []float64{1, 2, 4, 8, 16, 52, 104, 365},
	})
	promoted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "launch_promoted_total",
		Help:      "Scheduled products promoted to launched.",
	})
	reg.MustRegister(scheduled, manualReview, attempts, promoted)
	return &LaunchMetrics{
		scheduled:    scheduled,
		manualReview: manualReview,
		attempts:     attempts,
		promoted:     promoted,
	}
}

// IncScheduled counts a booked launch for the plan.
func (m *LaunchMetrics) IncScheduled(plan string) {
	if m == nil || m.scheduled == nil {
		return
	}
	m.scheduled.WithLabelValues(normalizeLabel(plan)).Inc()
}

// IncManualReview counts an order parked for manual handling.
func (m *LaunchMetrics) IncManualReview(reason string) {
	if m == nil || m.manualReview == nil {
		return
	}
	m.manualReview.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveAttempts records how many candidate days a search inspected.
func (m *LaunchMetrics) ObserveAttempts(n int) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.Observe(float64(n))
}

// AddPromoted counts products moved to launched.
func (m *LaunchMetrics) AddPromoted(n int64) {
	if m == nil || m.promoted == nil || n <= 0 {
		return
	}
	m.promoted.Add(float64(n))
}
