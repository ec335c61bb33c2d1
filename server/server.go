package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/jrsteele09/star-console/admin"
	"github.com/jrsteele09/star-console/internal/config"
	"github.com/jrsteele09/star-console/navigation"
	"github.com/jrsteele09/star-console/notify"
	"github.com/jrsteele09/star-console/projects"
	"github.com/jrsteele09/star-console/sessions"
	"github.com/jrsteele09/star-console/tags"
	"github.com/jrsteele09/star-console/users"
	"github.com/rs/zerolog/log"
)

// Session is the part of the session controller the dashboard drives.
type Session interface {
	navigation.SessionView
	State() sessions.State
	Login(ctx context.Context, creds sessions.Credentials) (*users.User, error)
	Logout(ctx context.Context, opts sessions.LogoutOptions)
	ChangePassword(ctx context.Context, req sessions.ChangePasswordRequest) error
	Subscribe(fn func(sessions.State)) (unsubscribe func())
}

// Deps are the collaborators of the dashboard. Feed and Indicator are shared with the rest of the
// process so messages raised by the request pipeline reach the next rendered page.
type Deps struct {
	Session   Session
	Feed      *notify.Feed
	Indicator *notify.Indicator
	Projects  *projects.Client
	Tags      *tags.Client
	Admin     *admin.Client
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string

	session   Session
	feed      *notify.Feed
	indicator *notify.Indicator
	router    *navigation.Router
	guard     *navigation.Guard
	projects  *projects.Client
	tags      *tags.Client
	admin     *admin.Client

	signedIn    atomic.Bool
	unsubscribe func()

	pages   map[string]*template.Template
	loaders map[string]pageLoader
}

func New(cfg config.EnvConfig, deps Deps) (*Server, error) {
	if deps.Session == nil {
		return nil, fmt.Errorf("[Server New] a session is required")
	}
	if deps.Feed == nil {
		deps.Feed = notify.NewFeed(0)
	}
	if deps.Indicator == nil {
		deps.Indicator = &notify.Indicator{}
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		session:   deps.Session,
		feed:      deps.Feed,
		indicator: deps.Indicator,
		router:    navigation.NewRouter(navigation.DefaultRoutes()),
		guard:     navigation.NewGuard(deps.Session, deps.Feed, deps.Indicator),
		projects:  deps.Projects,
		tags:      deps.Tags,
		admin:     deps.Admin,
	}

	pages, err := parsePages(s.templateFuncs())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse page templates: %w", err)
	}
	s.pages = pages
	s.loaders = s.pageLoaders()

	s.initRoutes()
	s.logRoutes()
	s.watchSession()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}
