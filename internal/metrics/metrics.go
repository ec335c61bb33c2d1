package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// Session metrics
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_token_refresh_total",
			Help: "Access token refresh calls sent to the backend, by outcome",
		},
		[]string{"outcome"},
	)

	TokenRefreshShared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_token_refresh_shared_total",
			Help: "Refresh callers that joined an already in-flight refresh",
		},
	)

	ScheduledRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_scheduled_refresh_total",
			Help: "Proactive refresh timers that fired for a current token",
		},
	)

	SessionClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_session_cleared_total",
			Help: "Times the session state was cleared",
		},
	)

	// HTTP client metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_api_requests_total",
			Help: "Requests dispatched to the REST backend",
		},
		[]string{"method", "status"},
	)

	APIRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_api_retries_total",
			Help: "Requests redispatched after a coordinated token refresh",
		},
	)

	// Navigation metrics
	NavigationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_navigation_decisions_total",
			Help: "Navigation guard decisions, by kind",
		},
		[]string{"decision"},
	)
)
