package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/star-console/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const flightKey = "access-token"

// FetchFunc performs the refresh network call and returns the new access token.
type FetchFunc func(ctx context.Context) (string, error)

// Coordinator collapses concurrent refresh requests into one network call whose outcome every caller shares.
type Coordinator struct {
	fetch     FetchFunc
	onSuccess func(token string)
	onFailure func()
	timeout   time.Duration

	group   singleflight.Group
	waiting atomic.Int32
}

type CoordinatorOption func(*Coordinator)

// WithTimeout bounds the shared refresh call.
func WithTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// NewCoordinator creates a Coordinator. onSuccess receives the renewed token and onFailure clears the
// session; each runs once per network call, not once per caller.
func NewCoordinator(fetch FetchFunc, onSuccess func(token string), onFailure func(), opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		fetch:     fetch,
		onSuccess: onSuccess,
		onFailure: onFailure,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh returns the renewed token. If a refresh is already in flight the caller waits for it
// instead of starting another. An error means the session is no longer valid.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	// The shared call must not be cancelled by whichever caller happened to start it.
	flightCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.run(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.TokenRefreshShared.Inc()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Waiting reports how many callers are currently inside Refresh.
func (c *Coordinator) Waiting() int {
	return int(c.waiting.Load())
}

func (c *Coordinator) run(ctx context.Context) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tok, err := c.fetch(ctx)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		log.Warn().Err(err).Msg("Access token refresh failed, clearing session")
		if c.onFailure != nil {
			c.onFailure()
		}
		return "", err
	}

	metrics.TokenRefreshTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	if c.onSuccess != nil {
		c.onSuccess(tok)
	}
	return tok, nil
}
