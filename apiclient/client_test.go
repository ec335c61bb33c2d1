package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/star-console/apiclient"
	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/notify"
	"github.com/jrsteele09/star-console/token/refresh"
	"github.com/stretchr/testify/require"
)

// testSession is a minimal Authenticator built from the real refresh coordinator.
type testSession struct {
	mu       sync.Mutex
	token    string
	failures atomic.Int32
	coord    *refresh.Coordinator
}

func newTestSession(client *apiclient.Client, token string) *testSession {
	s := &testSession{token: token}
	s.coord = refresh.NewCoordinator(
		func(ctx context.Context) (string, error) {
			env, err := apiclient.DoJSON[apiclient.Envelope[struct {
				AccessToken string `json:"accessToken"`
			}]](ctx, client, apiclient.Post(apiclient.PathRefresh, nil).Quiet())
			if err != nil {
				return "", err
			}
			return env.Data.AccessToken, nil
		},
		func(tok string) { s.set(tok) },
		func() { s.set("") },
	)
	client.SetupAuth(s)
	return s
}

func (s *testSession) set(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
}

func (s *testSession) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *testSession) RefreshAccessToken(ctx context.Context) (string, error) {
	return s.coord.Refresh(ctx)
}

func (s *testSession) HandleAuthFailure(context.Context) {
	s.failures.Add(1)
	s.set("")
}

type backend struct {
	*httptest.Server
	mu            sync.Mutex
	authHeaders   map[string][]string
	refreshCalls  atomic.Int32
	refreshHeader atomic.Value
}

func newBackend(t *testing.T, mux *http.ServeMux) *backend {
	b := &backend{authHeaders: make(map[string][]string)}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.authHeaders[r.URL.Path] = append(b.authHeaders[r.URL.Path], r.Header.Get("Authorization"))
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) headers(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authHeaders[path]...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func tokenPayload(tok string) map[string]any {
	return map[string]any{"message": "ok", "data": map[string]string{"accessToken": tok}}
}

// requireBearer answers 401 unless the request carries "Bearer want".
func requireBearer(want string, ok http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}
		ok(w, r)
	}
}

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	mux := http.NewServeMux()
	var requestID string
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get(apiclient.RequestIDHeader)
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "data": []string{}})
	})
	srv := newBackend(t, mux)

	c := apiclient.New(srv.URL)
	newTestSession(c, "current-token")

	_, err := c.Do(context.Background(), apiclient.Get("/projects"))
	require.NoError(t, err)
	require.Equal(t, []string{"Bearer current-token"}, srv.headers("/projects"))
	require.NotEmpty(t, requestID)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /public", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	srv := newBackend(t, mux)

	c := apiclient.New(srv.URL)
	_, err := c.Do(context.Background(), apiclient.Get("/public"))
	require.NoError(t, err)

	newTestSession(c, "")
	_, err = c.Do(context.Background(), apiclient.Get("/public"))
	require.NoError(t, err)
	require.Equal(t, []string{"", ""}, srv.headers("/public"))
}

func TestClient_RefreshRequestIsNeverDecorated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh expired"})
	})
	srv := newBackend(t, mux)

	feed := notify.NewFeed(0)
	c := apiclient.New(srv.URL, apiclient.WithNotifier(feed))
	s := newTestSession(c, "current-token")

	_, err := c.Do(context.Background(), apiclient.Post(apiclient.PathRefresh, nil))
	require.ErrorIs(t, err, consoleerrors.ErrUnauthorized)

	// One call only: a 401 from the refresh endpoint never starts another refresh.
	require.Equal(t, []string{""}, srv.headers("/auth/refresh"))
	require.EqualValues(t, 1, s.failures.Load())
	require.Empty(t, feed.Messages())
}

func TestClient_RetriesOnceAfterRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tokenPayload("fresh-token"))
	})
	mux.HandleFunc("GET /tags", requireBearer("fresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "data": []string{"go"}})
	}))
	srv := newBackend(t, mux)

	c := apiclient.New(srv.URL)
	s := newTestSession(c, "expired-token")

	env, err := apiclient.DoJSON[apiclient.Envelope[[]string]](context.Background(), c, apiclient.Get("/tags"))
	require.NoError(t, err)
	require.Equal(t, []string{"go"}, env.Data)

	require.Equal(t, []string{"Bearer expired-token", "Bearer fresh-token"}, srv.headers("/tags"))
	require.Equal(t, []string{""}, srv.headers("/auth/refresh"))
	require.Equal(t, "fresh-token", s.AccessToken())
	require.Zero(t, s.failures.Load())
}

func TestClient_SecondUnauthorizedIsNotRetried(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tokenPayload("fresh-token"))
	})
	mux.HandleFunc("GET /tags", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "nope"})
	})
	srv := newBackend(t, mux)

	c := apiclient.New(srv.URL)
	s := newTestSession(c, "expired-token")

	_, err := c.Do(context.Background(), apiclient.Get("/tags"))
	require.ErrorIs(t, err, consoleerrors.ErrUnauthorized)
	require.Len(t, srv.headers("/tags"), 2)
	require.Len(t, srv.headers("/auth/refresh"), 1)
	require.EqualValues(t, 1, s.failures.Load())
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	var expired sync.WaitGroup
	expired.Add(2)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		// Hold the refresh until both requests have been rejected and had time to join it.
		expired.Wait()
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, tokenPayload("fresh-token"))
	})
	handler := requireBearer("fresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	var rejected atomic.Int32
	mux.HandleFunc("GET /projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-token" && rejected.Add(1) <= 2 {
			defer expired.Done()
		}
		handler(w, r)
	})
	srv := newBackend(t, mux)

	c := apiclient.New(srv.URL)
	newTestSession(c, "expired-token")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, path := range []string{"/projects/1", "/projects/2"} {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), apiclient.Get(path))
		}(i, path)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Len(t, srv.headers("/auth/refresh"), 1)
	require.Equal(t, []string{"Bearer expired-token", "Bearer fresh-token"}, srv.headers("/projects/1"))
	require.Equal(t, []string{"Bearer expired-token", "Bearer fresh-token"}, srv.headers("/projects/2"))
}

func TestClient_RefreshFailureRejectsAllWaiters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh expired"})
	})
	mux.HandleFunc("GET /admin/queues", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
	})
	srv := newBackend(t, mux)

	feed := notify.NewFeed(0)
	c := apiclient.New(srv.URL, apiclient.WithNotifier(feed))
	s := newTestSession(c, "expired-token")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), apiclient.Get("/admin/queues"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, consoleerrors.ErrUnauthorized)
	}
	require.Empty(t, s.AccessToken())
	require.LessOrEqual(t, len(srv.headers("/auth/refresh")), 2)
	require.Empty(t, feed.Messages())
}

func TestClient_BadRequestInvalidatesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "session revoked"})
	})
	srv := newBackend(t, mux)

	feed := notify.NewFeed(0)
	c := apiclient.New(srv.URL, apiclient.WithNotifier(feed))
	s := newTestSession(c, "token")

	_, err := c.Do(context.Background(), apiclient.Put("/projects/9", map[string]bool{"favorite": true}))
	require.ErrorIs(t, err, consoleerrors.ErrSessionInvalid)
	require.Equal(t, http.StatusBadRequest, apiclient.StatusOf(err))
	require.EqualValues(t, 1, s.failures.Load())
	require.Empty(t, s.AccessToken())
	require.Empty(t, feed.Messages())
	require.Len(t, srv.headers("/projects/9"), 1)
}

func TestClient_BusinessErrorNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Project not found"})
	})
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := newBackend(t, mux)

	feed := notify.NewFeed(0)
	c := apiclient.New(srv.URL, apiclient.WithNotifier(feed))
	s := newTestSession(c, "token")

	_, err := c.Do(context.Background(), apiclient.Get("/projects/404"))
	require.ErrorIs(t, err, consoleerrors.ErrNotFound)

	_, err = c.Do(context.Background(), apiclient.Get("/broken"))
	require.Error(t, err)

	_, err = c.Do(context.Background(), apiclient.Get("/projects/405").Quiet())
	require.Error(t, err)

	msgs := feed.Drain()
	require.Len(t, msgs, 2)
	require.Equal(t, "Project not found", msgs[0].Text)
	require.Equal(t, "Request failed", msgs[1].Text)
	require.Zero(t, s.failures.Load())
	require.Equal(t, "token", s.AccessToken())
}

func TestClient_NetworkErrorNotifiesOnce(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	feed := notify.NewFeed(0)
	c := apiclient.New(url, apiclient.WithNotifier(feed))
	s := newTestSession(c, "token")

	_, err := c.Do(context.Background(), apiclient.Get("/projects"))
	require.ErrorIs(t, err, consoleerrors.ErrNetwork)

	var netErr *apiclient.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Len(t, feed.Messages(), 1)
	require.Equal(t, "Network error", feed.Messages()[0].Text)
	require.Zero(t, s.failures.Load())

	// Quiet only mutes status errors
	_, err = c.Do(context.Background(), apiclient.Post("/auth/login", nil).Quiet())
	require.ErrorIs(t, err, consoleerrors.ErrNetwork)
	require.Len(t, feed.Messages(), 2)
	require.Equal(t, "Network error", feed.Messages()[1].Text)
}

func TestClient_CancelledWaiterLeavesSessionToRefresh(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	t.Cleanup(func() { releaseOnce.Do(func() { close(release) }) })

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeJSON(w, http.StatusOK, tokenPayload("fresh-token"))
	})
	mux.HandleFunc("GET /projects", requireBearer("fresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))
	srv := newBackend(t, mux)

	feed := notify.NewFeed(0)
	c := apiclient.New(srv.URL, apiclient.WithNotifier(feed))
	s := newTestSession(c, "expired-token")

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := c.Do(ctx, apiclient.Get("/projects"))
		errs <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-errs, context.Canceled)
	require.Zero(t, s.failures.Load())
	require.Equal(t, "expired-token", s.AccessToken())

	releaseOnce.Do(func() { close(release) })
	require.Eventually(t, func() bool {
		return s.AccessToken() == "fresh-token"
	}, 2*time.Second, 10*time.Millisecond)
	require.Zero(t, s.failures.Load())
	require.Empty(t, feed.Messages())
}

func TestRequest_CloneDoesNotAlias(t *testing.T) {
	base := apiclient.Get("/projects")
	base.Header = http.Header{"X-Trace": []string{"a"}}

	quiet := base.Quiet()
	quiet.Header.Set("X-Trace", "b")

	require.Equal(t, "a", base.Header.Get("X-Trace"))
	require.False(t, base.SuppressGlobalMessage)
	require.True(t, quiet.SuppressGlobalMessage)
	require.False(t, quiet.Retried())
}
