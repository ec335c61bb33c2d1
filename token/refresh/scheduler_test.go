package refresh_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/star-console/token/refresh"
	"github.com/jrsteele09/star-console/token/refresh/clockfake"
	"github.com/jrsteele09/star-console/token/tokentest"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1_700_000_000, 0)

func countingTrigger(calls *atomic.Int32, err error) refresh.TriggerFunc {
	return func(context.Context) error {
		calls.Add(1)
		return err
	}
}

func TestDelay(t *testing.T) {
	margin := 60 * time.Second
	minLead := time.Second

	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{name: "expired", ttl: -time.Second, want: 0},
		{name: "exactly expired", ttl: 0, want: 0},
		{name: "five seconds uses half", ttl: 5 * time.Second, want: 2500 * time.Millisecond},
		{name: "ninety seconds uses half", ttl: 90 * time.Second, want: 45 * time.Second},
		{name: "long lived uses margin", ttl: time.Hour, want: time.Hour - margin},
		{name: "short lived floors lead", ttl: 1500 * time.Millisecond, want: 500 * time.Millisecond},
		{name: "lead floor exceeds ttl", ttl: 800 * time.Millisecond, want: 0},
		{name: "two seconds boundary", ttl: 2 * time.Second, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, refresh.Delay(tt.ttl, margin, minLead))
		})
	}
}

func TestScheduler_ArmsBeforeExpiry(t *testing.T) {
	clock := clockfake.New(epoch)
	var calls atomic.Int32
	s := refresh.NewScheduler(clock, countingTrigger(&calls, nil))

	s.Rearm(tokentest.WithExpiry(epoch.Add(5*time.Second), "u"))
	require.Equal(t, []time.Duration{2500 * time.Millisecond}, clock.Pending())

	clock.Advance(2499 * time.Millisecond)
	require.Zero(t, calls.Load())

	clock.Advance(time.Millisecond)
	require.EqualValues(t, 1, calls.Load())
	require.False(t, s.Armed())
}

func TestScheduler_ExpiredTokenFiresImmediately(t *testing.T) {
	clock := clockfake.New(epoch)
	var calls atomic.Int32
	s := refresh.NewScheduler(clock, countingTrigger(&calls, nil))

	s.Rearm(tokentest.WithExpiry(epoch.Add(-time.Minute), "u"))
	require.Equal(t, []time.Duration{0}, clock.Pending())

	clock.Advance(0)
	require.EqualValues(t, 1, calls.Load())
}

func TestScheduler_NothingToArm(t *testing.T) {
	var calls atomic.Int32

	t.Run("empty token", func(t *testing.T) {
		clock := clockfake.New(epoch)
		s := refresh.NewScheduler(clock, countingTrigger(&calls, nil))
		s.Rearm("")
		require.Empty(t, clock.Pending())
		require.False(t, s.Armed())
	})

	t.Run("undecodable token", func(t *testing.T) {
		clock := clockfake.New(epoch)
		s := refresh.NewScheduler(clock, countingTrigger(&calls, nil))
		s.Rearm("opaque")
		require.Empty(t, clock.Pending())
	})

	t.Run("no clock", func(t *testing.T) {
		s := refresh.NewScheduler(nil, countingTrigger(&calls, nil))
		s.Rearm(tokentest.WithExpiry(epoch.Add(time.Hour), "u"))
		require.False(t, s.Armed())
	})

	require.Zero(t, calls.Load())
}

func TestScheduler_RearmSupersedesPreviousTimer(t *testing.T) {
	clock := clockfake.New(epoch)
	var calls atomic.Int32
	s := refresh.NewScheduler(clock, countingTrigger(&calls, nil))

	s.Rearm(tokentest.WithExpiry(epoch.Add(5*time.Second), "first"))
	s.Rearm(tokentest.WithExpiry(epoch.Add(time.Hour), "second"))
	require.Equal(t, []time.Duration{time.Hour - refresh.DefaultMargin}, clock.Pending())

	clock.Advance(10 * time.Second)
	require.Zero(t, calls.Load())

	s.Rearm("")
	require.Empty(t, clock.Pending())
	clock.Advance(2 * time.Hour)
	require.Zero(t, calls.Load())
}

func TestScheduler_StaleTimerHasNoEffect(t *testing.T) {
	clock := clockfake.New(epoch)
	var calls atomic.Int32
	var s *refresh.Scheduler

	// Fire the first callback by hand after the token changed, as if its timer had already started
	// running when Rearm stopped it.
	staleFire := make(chan func(), 1)
	wrapped := &capturingClock{Clock: clock, capture: staleFire}
	s = refresh.NewScheduler(wrapped, countingTrigger(&calls, nil))

	s.Rearm(tokentest.WithExpiry(epoch.Add(5*time.Second), "first"))
	fireFirst := <-staleFire

	s.Rearm(tokentest.WithExpiry(epoch.Add(time.Hour), "second"))
	<-staleFire

	fireFirst()
	require.Zero(t, calls.Load())
	require.True(t, s.Armed())
}

func TestScheduler_TriggerErrorIsSwallowed(t *testing.T) {
	clock := clockfake.New(epoch)
	var calls atomic.Int32
	s := refresh.NewScheduler(clock, countingTrigger(&calls, errors.New("refresh rejected")))

	s.Rearm(tokentest.WithExpiry(epoch.Add(5*time.Second), "u"))
	require.NotPanics(t, func() { clock.Advance(5 * time.Second) })
	require.EqualValues(t, 1, calls.Load())
}

func TestScheduler_Options(t *testing.T) {
	clock := clockfake.New(epoch)
	var calls atomic.Int32
	s := refresh.NewScheduler(clock, countingTrigger(&calls, nil),
		refresh.WithMargin(10*time.Second),
		refresh.WithMinimumLead(2*time.Second),
	)

	s.Rearm(tokentest.WithExpiry(epoch.Add(time.Minute), "u"))
	require.Equal(t, []time.Duration{50 * time.Second}, clock.Pending())

	s.Stop()
	require.Empty(t, clock.Pending())
}

// capturingClock hands each armed callback to the test instead of scheduling it.
type capturingClock struct {
	*clockfake.Clock
	capture chan func()
}

func (c *capturingClock) AfterFunc(d time.Duration, f func()) refresh.Timer {
	c.capture <- f
	return c.Clock.AfterFunc(d, func() {})
}
