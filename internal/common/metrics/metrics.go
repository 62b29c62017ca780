// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_admissions_total",
			Help: "Total number of booking requests admitted",
		},
		[]string{"venue_id"},
	)

	BookingsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_denials_total",
			Help: "Total number of booking requests denied, by reason",
		},
		[]string{"reason"},
	)

	BookingConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_conflict_retries_total",
			Help: "Write-time races absorbed by the controller's single re-evaluation",
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
