package server

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// Every dashboard screen goes through the navigation guard
	s.RegisterRouteHandler("GET /", ChainMiddleware(s.PageHandler(), s.HTMLMiddleWare()...))

	// SESSION
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.HTMLMiddleWare(s.RequirePage("/account/profile"))...))

	// Resource actions, guarded as the screen they belong to
	s.RegisterRouteHandler("POST "+RouteProjectUpdate, ChainMiddleware(s.ProjectUpdateHandler(), s.HTMLMiddleWare(s.RequirePage(""))...))
	s.RegisterRouteHandler("POST "+RouteTagCreate, ChainMiddleware(s.TagCreateHandler(), s.HTMLMiddleWare(s.RequirePage("/tags"))...))
	s.RegisterRouteHandler("POST "+RouteTagDelete, ChainMiddleware(s.TagDeleteHandler(), s.HTMLMiddleWare(s.RequirePage("/tags"))...))
	s.RegisterRouteHandler("POST "+RouteAdminSyncStars, ChainMiddleware(s.SyncStarsHandler(), s.HTMLMiddleWare(s.RequirePage("/admin/sync-stars"))...))
	s.RegisterRouteHandler("POST "+RouteAdminAISweep, ChainMiddleware(s.AISweepHandler(), s.HTMLMiddleWare(s.RequirePage("/admin/ai"))...))
	s.RegisterRouteHandler("POST "+RouteAdminAIEnqueue, ChainMiddleware(s.AIEnqueueHandler(), s.HTMLMiddleWare(s.RequirePage("/admin/ai"))...))
	s.RegisterRouteHandler("POST "+RouteAdminRunMaint, ChainMiddleware(s.RunMaintenanceHandler(), s.HTMLMiddleWare(s.RequirePage("/admin/maintenance"))...))

	// Operations
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			logError(r.Method, filePath, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}

func logError(method, path string, err error) {
	log.Err(err).Msgf("[%-19s] %s", colourMethod(method), path)
}
