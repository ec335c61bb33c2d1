package server

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/star-console/admin"
	"github.com/jrsteele09/star-console/apiclient"
	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/navigation"
	"github.com/jrsteele09/star-console/notify"
	"github.com/jrsteele09/star-console/projects"
	"github.com/jrsteele09/star-console/tags"
	"github.com/jrsteele09/star-console/users"
	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

// PageData is what every page template receives.
type PageData struct {
	AppName   string
	Title     string
	Route     string
	Path      string
	FullPath  string
	User      *users.User
	Menu      []navigation.MenuItem
	AdminMenu []navigation.MenuItem
	Flash     []notify.Message
	Error     string
	Data      any

	// NavigationFailed mirrors the loading indicator of this navigation.
	NavigationFailed bool
}

// pageLoader fetches the data a page renders.
type pageLoader func(ctx context.Context, match navigation.Match, query url.Values) (any, error)

// PageHandler serves every dashboard screen: resolve, guard, load, render.
func (s *Server) PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match, found := s.router.Resolve(r.URL.RequestURI())

		decision := s.guard.BeforeEach(match)
		if !decision.Allowed() {
			redirectSuccess(w, r, decision.Redirect)
			return
		}
		if match.Path != r.URL.Path {
			// Route level redirect, e.g. / to /projects
			s.guard.AfterEach(match)
			redirectSuccess(w, r, match.FullPath)
			return
		}

		status := http.StatusOK
		if !found {
			status = http.StatusNotFound
		}

		var data any
		var loadErr error
		if load, ok := s.loaders[match.Route.Name]; ok {
			data, loadErr = load(r.Context(), match, r.URL.Query())
		}
		if loadErr != nil {
			if s.sessionLost(loadErr) {
				// The pipeline already cleared the session, send the user back here after signing in
				redirectSuccess(w, r, navigation.LoginRedirect(match.FullPath))
				return
			}
			s.guard.OnError(loadErr)
			status = statusFor(loadErr)
		}

		title := s.guard.AfterEach(match)
		s.render(w, status, match.Route.Name, s.pageData(match, title, data, loadErr))
	}
}

func (s *Server) pageData(match navigation.Match, title string, data any, loadErr error) PageData {
	user := s.session.User()
	pd := PageData{
		AppName:   navigation.AppTitle,
		Title:     title,
		Route:     match.Route.Name,
		Path:      match.Path,
		FullPath:  match.FullPath,
		User:      user,
		Menu:      navigation.VisibleItems(navigation.PrimaryMenu, user),
		AdminMenu: navigation.VisibleItems(navigation.AdminMenu, user),
		Flash:     s.feed.Drain(),
		Data:      data,
	}
	if loadErr != nil {
		pd.Error = errorText(loadErr)
	}
	_, pd.NavigationFailed = s.indicator.State()
	return pd
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := s.pages[page]
	if !ok {
		tmpl = s.pages[navigation.RouteNotFound]
		status = http.StatusNotFound
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		log.Err(err).Str("page", page).Msg("Failed to render page")
		s.guard.OnError(err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// sessionLost reports whether err ended the session: an unrecoverable 401, an invalidated
// session or a session that was cleared while the page loaded.
func (s *Server) sessionLost(err error) bool {
	return consoleerrors.Is(err, consoleerrors.ErrUnauthorized) ||
		consoleerrors.Is(err, consoleerrors.ErrSessionInvalid) ||
		!s.session.IsAuthenticated()
}

func statusFor(err error) int {
	switch {
	case consoleerrors.Is(err, consoleerrors.ErrNotFound):
		return http.StatusNotFound
	case consoleerrors.Is(err, consoleerrors.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorText(err error) string {
	switch {
	case consoleerrors.Is(err, consoleerrors.ErrNotFound):
		return "Not found"
	case consoleerrors.Is(err, consoleerrors.ErrNetwork):
		return "The backend could not be reached"
	}
	return "Failed to load this page"
}

func (s *Server) pageLoaders() map[string]pageLoader {
	return map[string]pageLoader{
		navigation.RouteLogin:              s.loadLogin,
		navigation.RouteProjects:           s.loadProjects,
		navigation.RouteProjectDetail:      s.loadProject,
		navigation.RouteTags:               s.loadTags,
		navigation.RouteTagDetail:          s.loadTag,
		navigation.RouteAccountProfile:     s.loadProfile,
		navigation.RouteAdminQueues:        s.loadQueues,
		navigation.RouteAdminSyncStars:     s.loadSyncState,
		navigation.RouteAdminAIBatches:     s.loadAIBatches,
		navigation.RouteAdminAIBatchDetail: s.loadAIBatch,
		navigation.RouteAdminArchive:       s.loadArchive,
		navigation.RouteAdminArchiveDetail: s.loadArchivedProject,
	}
}

type LoginForm struct {
	Redirect string
	Email    string
}

func (s *Server) loadLogin(_ context.Context, _ navigation.Match, q url.Values) (any, error) {
	return LoginForm{Redirect: navigation.SafeRedirect(q.Get(navigation.RedirectParam)), Email: q.Get("email")}, nil
}

type ProjectsPage struct {
	Query     projects.ListQuery
	Result    apiclient.Page[projects.Project]
	Languages []string
	Prev      string
	Next      string
}

func (s *Server) loadProjects(ctx context.Context, match navigation.Match, q url.Values) (any, error) {
	query := projects.ListQuery{
		Page:      intParam(q, "page", 1),
		PageSize:  intParam(q, "pageSize", 20),
		Keyword:   q.Get("keyword"),
		Language:  q.Get("language"),
		Languages: q["languages"],
		Favorite:  boolParam(q, "favorite"),
		Pinned:    boolParam(q, "pinned"),
		Archived:  boolParam(q, "archived"),
		TagNames:  q["tagNames"],
		Sort:      q.Get("sort"),
	}
	result, err := s.projects.List(ctx, query)
	if err != nil {
		return nil, err
	}
	languages, err := s.projects.Languages(ctx)
	if err != nil {
		return nil, err
	}
	prev, next := pageLinks(match.Path, q, result.Page, result.PageSize, result.Total)
	return ProjectsPage{Query: query, Result: result, Languages: languages, Prev: prev, Next: next}, nil
}

func (s *Server) loadProject(ctx context.Context, match navigation.Match, _ url.Values) (any, error) {
	return s.projects.Get(ctx, match.Param("id"))
}

type TagsPage struct {
	Query  tags.ListQuery
	Result apiclient.Page[tags.Tag]
	Prev   string
	Next   string
}

func (s *Server) loadTags(ctx context.Context, match navigation.Match, q url.Values) (any, error) {
	query := tags.ListQuery{
		Page:     intParam(q, "page", 1),
		PageSize: intParam(q, "pageSize", 20),
		Archived: boolParam(q, "archived"),
		Keyword:  q.Get("keyword"),
		Sort:     q.Get("sort"),
	}
	result, err := s.tags.List(ctx, query)
	if err != nil {
		return nil, err
	}
	prev, next := pageLinks(match.Path, q, result.Page, result.PageSize, result.Total)
	return TagsPage{Query: query, Result: result, Prev: prev, Next: next}, nil
}

func (s *Server) loadTag(ctx context.Context, match navigation.Match, q url.Values) (any, error) {
	return s.tags.Get(ctx, match.Param("id"), tags.DetailQuery{
		ProjectsPage:     intParam(q, "projectsPage", 0),
		ProjectsPageSize: intParam(q, "projectsPageSize", 0),
	})
}

func (s *Server) loadProfile(context.Context, navigation.Match, url.Values) (any, error) {
	return s.session.User(), nil
}

func (s *Server) loadQueues(ctx context.Context, _ navigation.Match, _ url.Values) (any, error) {
	return s.admin.QueuesStatus(ctx)
}

func (s *Server) loadSyncState(ctx context.Context, _ navigation.Match, _ url.Values) (any, error) {
	return s.admin.SyncState(ctx)
}

func (s *Server) loadAIBatches(ctx context.Context, _ navigation.Match, q url.Values) (any, error) {
	return s.admin.AIBatches(ctx, admin.BatchQuery{
		Page:      intParam(q, "page", 1),
		PageSize:  intParam(q, "pageSize", 20),
		SortField: q.Get("sortField"),
		SortOrder: q.Get("sortOrder"),
	})
}

func (s *Server) loadAIBatch(ctx context.Context, match navigation.Match, _ url.Values) (any, error) {
	return s.admin.AIBatch(ctx, match.Param("id"))
}

func (s *Server) loadArchive(ctx context.Context, _ navigation.Match, q url.Values) (any, error) {
	return s.admin.ArchivedProjects(ctx, admin.ArchivedQuery{
		Page:     intParam(q, "page", 1),
		PageSize: intParam(q, "pageSize", 20),
		Reason:   admin.ArchiveReason(q.Get("reason")),
	})
}

func (s *Server) loadArchivedProject(ctx context.Context, match navigation.Match, _ url.Values) (any, error) {
	return s.admin.ArchivedProject(ctx, match.Param("id"))
}

func intParam(q url.Values, key string, fallback int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func boolParam(q url.Values, key string) *bool {
	b, err := strconv.ParseBool(q.Get(key))
	if err != nil {
		return nil
	}
	return &b
}

// pageLinks returns the previous and next page locations, empty at either end.
func pageLinks(path string, q url.Values, page, pageSize, total int) (prev, next string) {
	link := func(p int) string {
		c := url.Values{}
		for k, v := range q {
			c[k] = append([]string(nil), v...)
		}
		c.Set("page", strconv.Itoa(p))
		return path + "?" + c.Encode()
	}
	if page > 1 {
		prev = link(page - 1)
	}
	if pageSize > 0 && page*pageSize < total {
		next = link(page + 1)
	}
	return prev, next
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
