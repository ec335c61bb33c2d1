// Package redisstore persists the access token in Redis so several console processes can share it.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/token"
	"github.com/redis/go-redis/v9"
)

var _ token.Persister = (*Store)(nil)

const defaultOpTimeout = 3 * time.Second

type Store struct {
	client    redis.UniversalClient
	opTimeout time.Duration
}

type Option func(*Store)

// WithOpTimeout bounds every Redis round trip.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.opTimeout = d
	}
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, opTimeout: defaultOpTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to addr and checks the connection with a PING.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping %s: %w", consoleerrors.ErrStorage, addr, err)
	}
	return New(client, opts...), nil
}

func (s *Store) Load(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	return value, nil
}

// Save stores the token without a TTL; expiry is decided by the backend, not by storage.
func (s *Store) Save(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %w", consoleerrors.ErrStorage, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
