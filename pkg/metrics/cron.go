package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace     = "launchboard"
	cronSubsystem = "cron"
)

// Winner window outcomes reported by the winner detection job.
const (
	WindowFlagged = "flagged"
	WindowCleared = "cleared"
	WindowFailed  = "failed"
)

// CronJobMetrics records cron runs plus what the winner and archive jobs produced.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	windows  *prometheus.CounterVec
	archived *prometheus.GaugeVec
}

// NewCronJobMetrics registers the cron metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: cronSubsystem,
		Name:      "job_duration_seconds",
		Help:      "Wall time of one cron job run.",
		Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300},
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: cronSubsystem,
		Name:      "job_runs_total",
		Help:      "Cron job runs by result.",
	}, []string{"job", "result"})
	windows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: cronSubsystem,
		Name:      "winner_windows_total",
		Help:      "Winner window recomputations by window and outcome.",
	}, []string{"window", "outcome"})
	archived := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: cronSubsystem,
		Name:      "archived_entries",
		Help:      "Entries stored per period by the last yearly archive run.",
	}, []string{"period"})
	reg.MustRegister(duration, runs, windows, archived)
	return &CronJobMetrics{
		duration: duration,
		runs:     runs,
		windows:  windows,
		archived: archived,
	}
}

// ObserveDuration records how long the named job ran.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess counts a run that returned nil.
func (c *CronJobMetrics) IncSuccess(job string) {
	c.incRun(job, "success")
}

// IncFailure counts a run that errored or panicked.
func (c *CronJobMetrics) IncFailure(job string) {
	c.incRun(job, "failure")
}

func (c *CronJobMetrics) incRun(job, result string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), result).Inc()
}

// ObserveWindow counts one winner window result (WindowFlagged, WindowCleared or WindowFailed).
func (c *CronJobMetrics) ObserveWindow(window, outcome string) {
	if c == nil || c.windows == nil {
		return
	}
	c.windows.WithLabelValues(normalizeLabel(window), normalizeLabel(outcome)).Inc()
}

// SetArchivedEntries records how many entries the last archive run stored for a period.
func (c *CronJobMetrics) SetArchivedEntries(period string, entries int) {
	if c == nil || c.archived == nil {
		return
	}
	c.archived.WithLabelValues(normalizeLabel(period)).Set(float64(entries))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
