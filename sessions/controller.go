// Package sessions owns the single authenticated session of the console: the access token,
// the signed in user and the renewal machinery around them.
package sessions

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/star-console/apiclient"
	"github.com/jrsteele09/star-console/authapi"
	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/internal/metrics"
	"github.com/jrsteele09/star-console/notify"
	"github.com/jrsteele09/star-console/token"
	"github.com/jrsteele09/star-console/token/refresh"
	"github.com/jrsteele09/star-console/users"
	"github.com/rs/zerolog/log"
)

const (
	MsgSignedIn             = "Signed in"
	MsgSignInFailed         = "Sign-in failed, check your email and password"
	MsgSignOutFailed        = "Sign-out failed, please retry"
	MsgSignedOut            = "Signed out"
	MsgChangePasswordFailed = "Failed to change password"
)

type Credentials = authapi.Credentials

type ChangePasswordRequest = authapi.ChangePasswordRequest

type LogoutOptions struct {
	// Silent suppresses both the failure and the success notification.
	Silent bool
}

// State is a snapshot of the session.
type State struct {
	User    *users.User
	Token   string
	Loading bool
	Ready   bool
}

// Controller is the single source of truth for whether a user is signed in. It implements
// apiclient.Authenticator so the request pipeline can renew and invalidate the session.
type Controller struct {
	store       *token.Store
	api         authapi.API
	notifier    notify.Notifier
	scheduler   *refresh.Scheduler
	coordinator *refresh.Coordinator

	clock          refresh.Clock
	margin         time.Duration
	minLead        time.Duration
	refreshTimeout time.Duration

	mu      sync.RWMutex
	user    *users.User
	loading bool
	ready   bool

	initMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSub     int
}

var _ apiclient.Authenticator = (*Controller)(nil)

type Option func(*Controller)

// WithClock replaces the clock driving proactive renewal. A nil clock disables it.
func WithClock(clock refresh.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithRefreshMargin(d time.Duration) Option {
	return func(c *Controller) {
		c.margin = d
	}
}

func WithMinimumRefreshLead(d time.Duration) Option {
	return func(c *Controller) {
		c.minLead = d
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.refreshTimeout = d
	}
}

// NewController wires the token store, the proactive scheduler and the refresh coordinator
// together. Every store change rearms the scheduler.
func NewController(store *token.Store, api authapi.API, notifier notify.Notifier, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		api:         api,
		notifier:    notifier,
		clock:       refresh.SystemClock,
		margin:      refresh.DefaultMargin,
		minLead:     refresh.DefaultMinimumLead,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.coordinator = refresh.NewCoordinator(
		api.Refresh,
		c.setToken,
		c.ClearAuthState,
		refresh.WithTimeout(c.refreshTimeout),
	)
	c.scheduler = refresh.NewScheduler(
		c.clock,
		func(ctx context.Context) error {
			_, err := c.RefreshAccessToken(ctx)
			return err
		},
		refresh.WithMargin(c.margin),
		refresh.WithMinimumLead(c.minLead),
	)
	store.OnChange(c.scheduler.Rearm)
	return c
}

// Initialize validates a stored token by fetching the profile. It runs at most once; later
// calls return immediately. Any failure clears the session. Ready is set in every case.
func (c *Controller) Initialize(ctx context.Context) {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.State().Ready {
		return
	}
	defer func() {
		c.mu.Lock()
		c.ready = true
		c.mu.Unlock()
		c.publish()
	}()

	current := c.store.Get()
	if current == "" {
		return
	}
	c.scheduler.Rearm(current)
	if _, err := c.FetchMe(ctx); err != nil {
		log.Info().Err(err).Msg("Stored session could not be restored")
		c.ClearAuthState()
	}
}

// Login exchanges credentials for a token, loads the profile and reports the outcome.
func (c *Controller) Login(ctx context.Context, creds Credentials) (*users.User, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	tok, err := c.api.Login(ctx, creds)
	if err != nil {
		c.fail(MsgSignInFailed)
		if apiclient.StatusOf(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", consoleerrors.ErrInvalidCredentials, err)
		}
		return nil, err
	}
	c.setToken(tok)

	user, err := c.FetchMe(ctx)
	if err != nil {
		c.fail(MsgSignInFailed)
		return nil, err
	}

	log.Info().Str("sub", user.Sub).Msg("Signed in")
	c.succeed(MsgSignedIn)
	return user, nil
}

// Logout tells the backend, then clears the local session whatever the backend said.
func (c *Controller) Logout(ctx context.Context, opts LogoutOptions) {
	if err := c.api.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("Backend logout failed")
		if !opts.Silent {
			c.fail(MsgSignOutFailed)
		}
	}
	c.ClearAuthState()
	if !opts.Silent {
		c.succeed(MsgSignedOut)
	}
}

// ChangePassword rotates the password and then signs out silently, since the backend revokes
// the current session. The caller reports success.
func (c *Controller) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	msg, err := c.api.ChangePassword(ctx, req)
	if err != nil {
		c.fail(errorMessage(err, MsgChangePasswordFailed))
		return err
	}
	log.Info().Str("message", msg).Msg("Password changed")
	c.Logout(ctx, LogoutOptions{Silent: true})
	return nil
}

// FetchMe loads the profile of the current token's user.
func (c *Controller) FetchMe(ctx context.Context) (*users.User, error) {
	user, err := c.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	c.publish()
	return user, nil
}

// RefreshAccessToken renews the token, sharing any refresh already in flight.
func (c *Controller) RefreshAccessToken(ctx context.Context) (string, error) {
	return c.coordinator.Refresh(ctx)
}

// ClearAuthState drops the token (memory and storage), the user and the armed renewal.
func (c *Controller) ClearAuthState() {
	c.mu.Lock()
	changed := c.user != nil || c.store.Get() != ""
	c.user = nil
	c.mu.Unlock()

	c.store.Set("")

	if changed {
		metrics.SessionClearedTotal.Inc()
		log.Info().Msg("Session cleared")
		c.publish()
	}
}

// HandleAuthFailure is the pipeline's invalidation hook.
func (c *Controller) HandleAuthFailure(context.Context) {
	c.ClearAuthState()
}

func (c *Controller) AccessToken() string {
	return c.store.Get()
}

func (c *Controller) IsAuthenticated() bool {
	return c.store.Get() != ""
}

func (c *Controller) User() *users.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		User:    c.user,
		Token:   c.store.Get(),
		Loading: c.loading,
		Ready:   c.ready,
	}
}

// Subscribe registers fn to receive the state after every change.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subscribers, id)
	}
}

// Close stops proactive renewal.
func (c *Controller) Close() {
	c.scheduler.Stop()
}

func (c *Controller) setToken(tok string) {
	c.store.Set(tok)
	c.publish()
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) publish() {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	state := c.State()
	for _, fn := range fns {
		fn(state)
	}
}

func (c *Controller) succeed(msg string) {
	if c.notifier != nil {
		c.notifier.Success(msg)
	}
}

func (c *Controller) fail(msg string) {
	if c.notifier != nil {
		c.notifier.Error(msg)
	}
}

// errorMessage prefers the backend's own explanation.
func errorMessage(err error, fallback string) string {
	var httpErr *apiclient.HTTPError
	if consoleerrors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}
