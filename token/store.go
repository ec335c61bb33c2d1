package token

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store holds the current access token in memory and mirrors every change to a Persister.
// An empty token means unauthenticated.
type Store struct {
	persister Persister
	key       string

	mu      sync.RWMutex
	current string

	// writeMu serialises Set so persistence and change notifications follow write order.
	writeMu   sync.Mutex
	listeners []func(token string)
}

// NewStore creates a Store seeded from persister. The stored value may already be expired;
// validity is settled by the first authenticated request. persister may be nil for a memory-only store.
func NewStore(persister Persister, key string) *Store {
	if key == "" {
		key = DefaultStorageKey
	}
	s := &Store{persister: persister, key: key}
	if persister == nil {
		return s
	}

	stored, err := persister.Load(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read stored access token")
		return s
	}
	s.current = stored
	return s
}

func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the current token, persists it (or removes the key for an empty token)
// and notifies every OnChange listener with the new value.
func (s *Store) Set(token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current = token
	s.mu.Unlock()

	s.persist(token)

	for _, fn := range s.listeners {
		fn(token)
	}
}

// OnChange registers fn to run after every Set. Listeners run while Set holds its write lock,
// so they must not call Set themselves.
func (s *Store) OnChange(fn func(token string)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) persist(token string) {
	if s.persister == nil {
		return
	}

	var err error
	if token != "" {
		err = s.persister.Save(s.key, token)
	} else {
		err = s.persister.Delete(s.key)
	}
	if err != nil {
		log.Err(err).Str("key", s.key).Msg("Failed to persist access token")
	}
}
