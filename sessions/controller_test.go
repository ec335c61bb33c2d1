package sessions_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/star-console/apiclient"
	"github.com/jrsteele09/star-console/authapi"
	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/notify"
	"github.com/jrsteele09/star-console/sessions"
	"github.com/jrsteele09/star-console/token"
	tokenrepofake "github.com/jrsteele09/star-console/token/repofake"
	"github.com/jrsteele09/star-console/token/refresh/clockfake"
	"github.com/jrsteele09/star-console/token/tokentest"
	"github.com/jrsteele09/star-console/users"
	"github.com/stretchr/testify/require"
)

type fakeAuthAPI struct {
	mu sync.Mutex

	loginToken string
	loginErr   error

	refreshToken string
	refreshErr   error
	refreshCalls int

	me      *users.User
	meErr   error
	meCalls int

	logoutErr   error
	logoutCalls int

	changeErr error
}

var _ authapi.API = (*fakeAuthAPI)(nil)

func (f *fakeAuthAPI) Login(context.Context, authapi.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginToken, f.loginErr
}

func (f *fakeAuthAPI) Refresh(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return f.refreshToken, f.refreshErr
}

func (f *fakeAuthAPI) Me(context.Context) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.me, f.meErr
}

func (f *fakeAuthAPI) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAuthAPI) ChangePassword(context.Context, authapi.ChangePasswordRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.changeErr != nil {
		return "", f.changeErr
	}
	return "Password updated", nil
}

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	api       *fakeAuthAPI
	persister *tokenrepofake.FakePersister
	store     *token.Store
	clock     *clockfake.Clock
	feed      *notify.Feed
	ctrl      *sessions.Controller
}

func newFixture(t *testing.T, stored string) *fixture {
	f := &fixture{
		api:       &fakeAuthAPI{me: &users.User{Sub: "1", Role: users.RoleUser, Email: "u@x.io"}},
		persister: tokenrepofake.NewFakePersister(),
		clock:     clockfake.New(epoch),
		feed:      notify.NewFeed(0),
	}
	if stored != "" {
		require.NoError(t, f.persister.Save(token.DefaultStorageKey, stored))
	}
	f.store = token.NewStore(f.persister, token.DefaultStorageKey)
	f.ctrl = sessions.NewController(f.store, f.api, f.feed, sessions.WithClock(f.clock))
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *fixture) requireCleared(t *testing.T) {
	t.Helper()
	require.Empty(t, f.ctrl.AccessToken())
	require.Nil(t, f.ctrl.User())
	require.False(t, f.ctrl.IsAuthenticated())
	require.False(t, f.persister.Has(token.DefaultStorageKey))
	require.Empty(t, f.clock.Pending())
}

func texts(msgs []notify.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func TestInitialize(t *testing.T) {
	t.Run("no stored token", func(t *testing.T) {
		f := newFixture(t, "")
		f.ctrl.Initialize(context.Background())

		state := f.ctrl.State()
		require.True(t, state.Ready)
		require.Nil(t, state.User)
		require.Zero(t, f.api.meCalls)
	})

	t.Run("runs the bootstrap fetch once", func(t *testing.T) {
		stored := tokentest.WithExpiry(epoch.Add(10*time.Minute), "1")
		f := newFixture(t, stored)

		f.ctrl.Initialize(context.Background())
		f.ctrl.Initialize(context.Background())

		require.Equal(t, 1, f.api.meCalls)
		state := f.ctrl.State()
		require.True(t, state.Ready)
		require.Equal(t, stored, state.Token)
		require.Equal(t, "1", state.User.Sub)
		require.Equal(t, []time.Duration{9 * time.Minute}, f.clock.Pending())
	})

	t.Run("invalid stored token clears the session", func(t *testing.T) {
		f := newFixture(t, tokentest.WithExpiry(epoch.Add(-time.Minute), "1"))
		f.api.meErr = &apiclient.HTTPError{Status: http.StatusUnauthorized}

		f.ctrl.Initialize(context.Background())

		require.True(t, f.ctrl.State().Ready)
		f.requireCleared(t)
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t, "")
		issued := tokentest.WithExpiry(epoch.Add(2*time.Minute), "1")
		f.api.loginToken = issued

		var loadingSeen bool
		unsubscribe := f.ctrl.Subscribe(func(s sessions.State) {
			if s.Loading {
				loadingSeen = true
			}
		})
		defer unsubscribe()

		user, err := f.ctrl.Login(context.Background(), sessions.Credentials{Email: "u@x.io", Password: "pw"})
		require.NoError(t, err)
		require.Equal(t, "1", user.Sub)
		require.True(t, loadingSeen)
		require.False(t, f.ctrl.State().Loading)
		require.True(t, f.ctrl.IsAuthenticated())

		stored, err := f.persister.Load(token.DefaultStorageKey)
		require.NoError(t, err)
		require.Equal(t, issued, stored)
		require.Equal(t, []time.Duration{time.Minute}, f.clock.Pending())
		require.Equal(t, []string{sessions.MsgSignedIn}, texts(f.feed.Drain()))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		f := newFixture(t, "")
		f.api.loginErr = &apiclient.HTTPError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}

		user, err := f.ctrl.Login(context.Background(), sessions.Credentials{Email: "u@x.io", Password: "bad"})
		require.Nil(t, user)
		require.ErrorIs(t, err, consoleerrors.ErrInvalidCredentials)
		require.ErrorIs(t, err, consoleerrors.ErrUnauthorized)
		require.False(t, f.ctrl.State().Loading)
		require.False(t, f.ctrl.IsAuthenticated())
		require.Equal(t, []string{sessions.MsgSignInFailed}, texts(f.feed.Drain()))
	})

	t.Run("profile fetch failure is a sign-in failure", func(t *testing.T) {
		f := newFixture(t, "")
		f.api.loginToken = "opaque"
		f.api.meErr = errors.New("boom")

		_, err := f.ctrl.Login(context.Background(), sessions.Credentials{})
		require.Error(t, err)
		require.Equal(t, []string{sessions.MsgSignInFailed}, texts(f.feed.Drain()))
	})
}

func TestProactiveRefresh(t *testing.T) {
	f := newFixture(t, "")
	f.api.loginToken = tokentest.WithExpiry(epoch.Add(2*time.Minute), "1")
	renewed := tokentest.WithExpiry(epoch.Add(time.Hour), "1")
	f.api.refreshToken = renewed

	_, err := f.ctrl.Login(context.Background(), sessions.Credentials{})
	require.NoError(t, err)
	f.feed.Drain()

	f.clock.Advance(59 * time.Second)
	require.Zero(t, f.api.refreshCalls)

	f.clock.Advance(time.Second)
	require.Equal(t, 1, f.api.refreshCalls)
	require.Equal(t, renewed, f.ctrl.AccessToken())
	require.Equal(t, []time.Duration{58 * time.Minute}, f.clock.Pending())
	require.Empty(t, f.feed.Messages())
}

func TestProactiveRefreshFailureClearsQuietly(t *testing.T) {
	f := newFixture(t, "")
	f.api.loginToken = tokentest.WithExpiry(epoch.Add(2*time.Minute), "1")
	f.api.refreshErr = &apiclient.HTTPError{Status: http.StatusUnauthorized}

	_, err := f.ctrl.Login(context.Background(), sessions.Credentials{})
	require.NoError(t, err)
	f.feed.Drain()

	f.clock.Advance(time.Minute)
	require.Equal(t, 1, f.api.refreshCalls)
	f.requireCleared(t)
	require.Empty(t, f.feed.Messages())
}

func TestRefreshFailureClearsEverything(t *testing.T) {
	f := newFixture(t, tokentest.WithExpiry(epoch.Add(10*time.Minute), "1"))
	f.ctrl.Initialize(context.Background())
	require.NotNil(t, f.ctrl.User())

	f.api.refreshErr = &apiclient.HTTPError{Status: http.StatusUnauthorized}
	_, err := f.ctrl.RefreshAccessToken(context.Background())
	require.ErrorIs(t, err, consoleerrors.ErrUnauthorized)
	f.requireCleared(t)
}

func TestClearAuthStatePublishesOnlyOnChange(t *testing.T) {
	f := newFixture(t, "opaque")

	var cleared int
	f.ctrl.Subscribe(func(s sessions.State) {
		if s.Token == "" {
			cleared++
		}
	})

	f.ctrl.ClearAuthState()
	f.ctrl.HandleAuthFailure(context.Background())
	require.Equal(t, 1, cleared)
	f.requireCleared(t)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	f := newFixture(t, "")
	var calls int
	unsubscribe := f.ctrl.Subscribe(func(sessions.State) { calls++ })

	f.ctrl.Initialize(context.Background())
	require.Equal(t, 1, calls)

	unsubscribe()
	f.api.loginToken = "opaque"
	_, err := f.ctrl.Login(context.Background(), sessions.Credentials{})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestLogout(t *testing.T) {
	t.Run("backend failure still clears", func(t *testing.T) {
		f := newFixture(t, "opaque")
		f.api.logoutErr = &apiclient.NetworkError{Method: http.MethodPost, Path: authapi.PathLogout, Err: errors.New("refused")}

		f.ctrl.Logout(context.Background(), sessions.LogoutOptions{})

		f.requireCleared(t)
		require.Equal(t, []string{sessions.MsgSignOutFailed, sessions.MsgSignedOut}, texts(f.feed.Drain()))
	})

	t.Run("silent", func(t *testing.T) {
		f := newFixture(t, "opaque")
		f.api.logoutErr = errors.New("refused")

		f.ctrl.Logout(context.Background(), sessions.LogoutOptions{Silent: true})

		f.requireCleared(t)
		require.Empty(t, f.feed.Messages())
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("success signs out silently", func(t *testing.T) {
		f := newFixture(t, "opaque")

		err := f.ctrl.ChangePassword(context.Background(), sessions.ChangePasswordRequest{OldPassword: "a", NewPassword: "b"})
		require.NoError(t, err)
		require.Equal(t, 1, f.api.logoutCalls)
		f.requireCleared(t)
		require.Empty(t, f.feed.Messages())
	})

	t.Run("failure reports the backend message", func(t *testing.T) {
		f := newFixture(t, "opaque")
		f.api.changeErr = &apiclient.HTTPError{Status: http.StatusUnprocessableEntity, Message: "Old password is incorrect"}

		err := f.ctrl.ChangePassword(context.Background(), sessions.ChangePasswordRequest{})
		require.Error(t, err)
		require.Zero(t, f.api.logoutCalls)
		require.True(t, f.ctrl.IsAuthenticated())
		require.Equal(t, []string{"Old password is incorrect"}, texts(f.feed.Drain()))
	})

	t.Run("failure without message uses the fallback", func(t *testing.T) {
		f := newFixture(t, "opaque")
		f.api.changeErr = errors.New("refused")

		require.Error(t, f.ctrl.ChangePassword(context.Background(), sessions.ChangePasswordRequest{}))
		require.Equal(t, []string{sessions.MsgChangePasswordFailed}, texts(f.feed.Drain()))
	})
}
