package server

// Route path constants for the endpoints served outside the navigation table.
const (
	// Session
	RouteAuthLogin      = "/auth/login"
	RouteAuthLogout     = "/auth/logout"
	RouteChangePassword = "/account/password"

	// Resource actions
	RouteProjectUpdate  = "/projects/{id}"
	RouteTagCreate      = "/tags"
	RouteTagDelete      = "/tags/{id}/delete"
	RouteAdminSyncStars = "/admin/sync-stars"
	RouteAdminAISweep   = "/admin/ai/sweep"
	RouteAdminAIEnqueue = "/admin/ai/enqueue"
	RouteAdminRunMaint  = "/admin/maintenance/run"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
