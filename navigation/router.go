package navigation

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Match is a resolved navigation target.
type Match struct {
	Route    Route
	Path     string
	FullPath string // path plus query
	Params   map[string]string
}

func (m Match) Param(key string) string {
	return m.Params[key]
}

// Router resolves locations against the route table using chi's pattern matching.
type Router struct {
	mux       *chi.Mux
	byName    map[string]Route
	byPattern map[string]Route
	notFound  Route
}

// NewRouter builds a Router. A route without a pattern is the fallback for unknown locations.
func NewRouter(routes []Route) *Router {
	r := &Router{
		mux:       chi.NewRouter(),
		byName:    make(map[string]Route, len(routes)),
		byPattern: make(map[string]Route, len(routes)),
		notFound:  Route{Name: RouteNotFound},
	}

	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, route := range routes {
		r.byName[route.Name] = route
		if route.Pattern == "" {
			r.notFound = route
			continue
		}
		r.byPattern[route.Pattern] = route
		r.mux.Get(route.Pattern, noop)
	}
	return r
}

// Resolve matches target (a path with an optional query) and follows route redirects.
// Unknown locations resolve to the fallback route and ok is false.
func (r *Router) Resolve(target string) (match Match, ok bool) {
	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		u = &url.URL{Path: "/"}
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, u.Path) {
		return Match{Route: r.notFound, Path: u.Path, FullPath: fullPath(u.Path, u.RawQuery)}, false
	}

	route, found := r.byPattern[rctx.RoutePattern()]
	if !found {
		return Match{Route: r.notFound, Path: u.Path, FullPath: fullPath(u.Path, u.RawQuery)}, false
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}

	for seen := 0; route.RedirectTo != "" && seen < len(r.byName); seen++ {
		next, exists := r.byName[route.RedirectTo]
		if !exists {
			break
		}
		route = next
		u.Path = r.PathFor(next.Name, params)
	}

	return Match{Route: route, Path: u.Path, FullPath: fullPath(u.Path, u.RawQuery), Params: params}, true
}

// Route returns the route registered under name.
func (r *Router) Route(name string) (Route, bool) {
	route, ok := r.byName[name]
	return route, ok
}

// PathFor expands the pattern of the named route with params. Unknown names yield "/".
func (r *Router) PathFor(name string, params map[string]string) string {
	route, ok := r.byName[name]
	if !ok || route.Pattern == "" {
		return "/"
	}
	path := route.Pattern
	for key, value := range params {
		path = strings.ReplaceAll(path, "{"+key+"}", url.PathEscape(value))
	}
	return path
}

func fullPath(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
