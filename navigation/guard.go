package navigation

import (
	"net/url"

	"github.com/jrsteele09/star-console/internal/metrics"
	"github.com/jrsteele09/star-console/notify"
	"github.com/jrsteele09/star-console/users"
	"github.com/rs/zerolog/log"
)

const MsgPermissionDenied = "Permission denied"

// SessionView is what the guard needs to know about the session.
type SessionView interface {
	IsAuthenticated() bool
	User() *users.User
}

type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonAlreadySignedIn Reason = "already_signed_in"
	ReasonLoginRequired   Reason = "login_required"
	ReasonForbidden       Reason = "forbidden"
)

// Decision is the outcome of a navigation check. An empty Redirect means the navigation proceeds.
type Decision struct {
	Reason   Reason
	Redirect string
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Guard decides whether a navigation may proceed.
type Guard struct {
	session    SessionView
	notifier   notify.Notifier
	loadingBar notify.LoadingBar
}

func NewGuard(session SessionView, notifier notify.Notifier, loadingBar notify.LoadingBar) *Guard {
	return &Guard{session: session, notifier: notifier, loadingBar: loadingBar}
}

// BeforeEach runs before a navigation to `to` and starts the loading bar, finishing it again when the
// decision is a redirect. The first rule that applies wins:
// the login page redirects signed in users to projects, protected routes send anonymous users to the
// login page with the requested location preserved, and a role mismatch is reported and redirected to projects.
func (g *Guard) BeforeEach(to Match) Decision {
	if g.loadingBar != nil {
		g.loadingBar.Start()
	}

	authenticated := g.session.IsAuthenticated()
	decision := Decision{Reason: ReasonAllowed}

	switch {
	case to.Route.Name == RouteLogin && authenticated:
		decision = Decision{Reason: ReasonAlreadySignedIn, Redirect: PathProjects}

	case to.Route.RequiresAuth() && !authenticated:
		decision = Decision{Reason: ReasonLoginRequired, Redirect: LoginRedirect(to.FullPath)}

	case !g.session.User().HasAnyRole(to.Route.Roles...):
		if g.notifier != nil {
			g.notifier.Error(MsgPermissionDenied)
		}
		decision = Decision{Reason: ReasonForbidden, Redirect: PathProjects}
	}

	metrics.NavigationDecisionsTotal.WithLabelValues(string(decision.Reason)).Inc()
	if !decision.Allowed() {
		// The redirect ends this navigation
		if g.loadingBar != nil {
			g.loadingBar.Finish()
		}
		log.Debug().Str("to", to.FullPath).Str("reason", string(decision.Reason)).Str("redirect", decision.Redirect).Msg("Navigation redirected")
	}
	return decision
}

// AfterEach completes a navigation and returns the document title for it.
func (g *Guard) AfterEach(to Match) string {
	if g.loadingBar != nil {
		g.loadingBar.Finish()
	}
	return DocumentTitle(to.Route.Title)
}

// OnError marks a navigation that failed while rendering.
func (g *Guard) OnError(err error) {
	log.Err(err).Msg("Navigation failed")
	if g.loadingBar != nil {
		g.loadingBar.Error()
	}
}

func DocumentTitle(title string) string {
	if title == "" {
		return AppTitle
	}
	return title + " · " + AppTitle
}

// LoginRedirect is the login location that returns to fullPath once signed in.
func LoginRedirect(fullPath string) string {
	return PathLogin + "?" + url.Values{RedirectParam: []string{fullPath}}.Encode()
}

// SafeRedirect returns target when it is a local path, otherwise the projects page.
func SafeRedirect(target string) string {
	if target == "" || target[0] != '/' || len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return PathProjects
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return PathProjects
	}
	return target
}
