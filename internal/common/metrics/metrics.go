// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_transitions_total",
			Help: "Total number of application stage transitions applied",
		},
		[]string{"to_stage"},
	)

	PipelineTransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_transitions_rejected_total",
			Help: "Total number of application stage transitions rejected",
		},
		[]string{"to_stage", "reason"},
	)

	InterviewTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_transitions_total",
			Help: "Total number of interview transitions applied",
		},
		[]string{"action"},
	)

	InterviewTransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_transitions_rejected_total",
			Help: "Total number of interview transitions rejected",
		},
		[]string{"action", "reason"},
	)

	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "transition_duration_seconds",
			Help: "Duration of transition processing in seconds",
		},
		[]string{"entity"},
	)

	ReportCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Total number of analytics reports served from cache",
		},
		[]string{"kind"},
	)

	ReportCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_misses_total",
			Help: "Total number of analytics reports computed from the database",
		},
		[]string{"kind"},
	)
)

// ObserveTransitionDuration records one transition's elapsed time.
// Meant to be deferred at the top of an operation:
//
//	defer metrics.ObserveTransitionDuration("application", time.Now())
func ObserveTransitionDuration(entity string, start time.Time) {
	TransitionDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
}
