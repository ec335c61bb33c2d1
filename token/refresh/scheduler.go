package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/star-console/internal/metrics"
	"github.com/jrsteele09/star-console/token"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMargin      = 60 * time.Second
	DefaultMinimumLead = time.Second
)

// TriggerFunc starts a renewal. The Scheduler ignores its error.
type TriggerFunc func(ctx context.Context) error

// Scheduler arms a single timer that renews the access token shortly before it expires.
type Scheduler struct {
	clock   Clock
	trigger TriggerFunc
	margin  time.Duration
	minLead time.Duration

	mu         sync.Mutex
	timer      Timer
	generation uint64
}

type SchedulerOption func(*Scheduler)

// WithMargin sets the widest advance window before expiry.
func WithMargin(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.margin = d
	}
}

// WithMinimumLead sets the floor applied to half the remaining lifetime.
func WithMinimumLead(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.minLead = d
	}
}

// NewScheduler creates a Scheduler. A nil clock disables proactive renewal entirely.
func NewScheduler(clock Clock, trigger TriggerFunc, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:   clock,
		trigger: trigger,
		margin:  DefaultMargin,
		minLead: DefaultMinimumLead,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns how long to wait before renewing a token with ttl left to live:
// ttl - min(margin, max(ttl/2, minLead)), never negative. An expired token renews immediately.
func Delay(ttl, margin, minLead time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	lead := ttl / 2
	if lead < minLead {
		lead = minLead
	}
	if lead > margin {
		lead = margin
	}
	return max(ttl-lead, 0)
}

// Rearm cancels any armed timer and, when raw carries a decodable expiry, arms a new one for it.
func (s *Scheduler) Rearm(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	if raw == "" || s.clock == nil {
		return
	}
	expiresAt, ok := token.ExpiresAt(raw)
	if !ok {
		log.Debug().Msg("Access token has no readable expiry, proactive refresh disabled")
		return
	}

	delay := Delay(expiresAt.Sub(s.clock.Now()), s.margin, s.minLead)
	generation := s.generation
	s.timer = s.clock.AfterFunc(delay, func() { s.fire(generation) })
	log.Debug().Dur("delay", delay).Time("expires_at", expiresAt).Msg("Proactive token refresh armed")
}

// Stop cancels the armed timer, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Armed reports whether a timer is currently armed.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// stopLocked also bumps the generation so a timer that already started firing becomes a no-op.
func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

func (s *Scheduler) fire(generation uint64) {
	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	metrics.ScheduledRefreshTotal.Inc()
	if err := s.trigger(context.Background()); err != nil {
		log.Debug().Err(err).Msg("Proactive token refresh failed")
	}
}
