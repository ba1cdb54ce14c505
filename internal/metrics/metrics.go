// Package metrics registers the interviewer's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_http_requests_total",
			Help: "Total number of interview API requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "interview_http_request_duration_seconds",
			Help: "Duration of interview API requests",
		},
		[]string{"method", "route"},
	)
	StageTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_stage_transitions_total",
			Help: "Total number of session stage transitions, by destination stage",
		},
		[]string{"stage"},
	)
	ExternalCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_external_calls_total",
			Help: "Total number of calls to external collaborators, by outcome",
		},
		[]string{"collaborator", "outcome"},
	)
	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_reports_total",
			Help: "Total number of stage reports, by status",
		},
		[]string{"status"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "interview_active_sessions",
			Help: "Number of sessions whose state machine has not reached end",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(StageTransitionsTotal)
	prometheus.MustRegister(ExternalCallsTotal)
	prometheus.MustRegister(ReportsTotal)
	prometheus.MustRegister(ActiveSessions)
}
