package memory

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SessionStore keeps browser sessions in a bounded LRU. The least recently
// used session is evicted once capacity is reached; nothing is persisted.
type SessionStore[V any] struct {
	cache *lru.Cache[string, V]
}

func NewSessionStore[V any](capacity int, onEvict func(id string, v V)) (*SessionStore[V], error) {
	var (
		cache *lru.Cache[string, V]
		err   error
	)
	if onEvict != nil {
		cache, err = lru.NewWithEvict[string, V](capacity, onEvict)
	} else {
		cache, err = lru.New[string, V](capacity)
	}
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	return &SessionStore[V]{cache: cache}, nil
}

func (s *SessionStore[V]) Get(id string) (V, bool) {
	return s.cache.Get(id)
}

func (s *SessionStore[V]) Add(id string, v V) {
	s.cache.Add(id, v)
}

func (s *SessionStore[V]) Len() int {
	return s.cache.Len()
}
