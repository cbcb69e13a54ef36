// Package session keeps the latest decoding result per session key.
//
// Each session holds at most one value. Set replaces it, Clear removes it, and
// nothing written under one key is visible under another. Values may expire
// after a TTL; a zero TTL keeps them until they are replaced or cleared.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrEmptyID is returned when a value is stored under an empty session key.
var ErrEmptyID = errors.New("session id is empty")

// NewID returns a fresh random session key.
func NewID() string {
	return uuid.NewString()
}

// Store is a concurrency-safe map from session key to one value of type V.
type Store[V any] struct {
	items *cache.Cache
	ttl   time.Duration
}

// NewStore creates a store whose entries expire after ttl. A ttl of zero or
// less disables expiry and starts no background janitor.
func NewStore[V any](ttl time.Duration) *Store[V] {
	if ttl <= 0 {
		return &Store[V]{items: cache.New(cache.NoExpiration, 0)}
	}
	return &Store[V]{items: cache.New(ttl, ttl*2), ttl: ttl}
}

// TTL returns the configured expiry, zero when entries never expire.
func (s *Store[V]) TTL() time.Duration { return s.ttl }

// Get returns the value held for id.
func (s *Store[V]) Get(id string) (V, bool) {
	var zero V
	if id == "" {
		return zero, false
	}
	raw, ok := s.items.Get(id)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set replaces the value held for id.
func (s *Store[V]) Set(id string, v V) error {
	if id == "" {
		return ErrEmptyID
	}
	s.items.Set(id, v, cache.DefaultExpiration)
	return nil
}

// Clear drops the value held for id. Clearing an unknown id is a no-op.
func (s *Store[V]) Clear(id string) {
	s.items.Delete(id)
}

// Available reports whether id currently holds a value.
func (s *Store[V]) Available(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store[V]) Len() int {
	return s.items.ItemCount()
}

// Flush drops every session.
func (s *Store[V]) Flush() {
	s.items.Flush()
}
