// Package session stores the per-browser photo state, in memory or in Redis.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/phenrril/tryon/internal/domain"
)

type entry struct {
	s       domain.Session
	expires time.Time
}

// MemoryStore is the default store. Entries expire ttl after their last save.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]entry
	now func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, m: map[string]entry{}, now: time.Now}
}

func (st *MemoryStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.m[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if st.ttl > 0 && st.now().After(e.expires) {
		delete(st.m, id)
		return nil, domain.ErrNotFound
	}
	s := e.s
	return &s, nil
}

func (st *MemoryStore) Save(ctx context.Context, s *domain.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.m[s.ID] = entry{s: *s, expires: st.now().Add(st.ttl)}
	st.sweep()
	return nil
}

func (st *MemoryStore) Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.m[id]
	if !ok || (st.ttl > 0 && st.now().After(e.expires)) {
		delete(st.m, id)
		return nil, domain.ErrNotFound
	}
	s := e.s
	if err := fn(&s); err != nil {
		return nil, err
	}
	st.m[id] = entry{s: s, expires: st.now().Add(st.ttl)}
	out := s
	return &out, nil
}

func (st *MemoryStore) Delete(ctx context.Context, id string) error {
	st.mu.Lock()
	delete(st.m, id)
	st.mu.Unlock()
	return nil
}

// sweep drops expired entries; callers hold mu.
func (st *MemoryStore) sweep() {
	if st.ttl <= 0 {
		return
	}
	now := st.now()
	for id, e := range st.m {
		if now.After(e.expires) {
			delete(st.m, id)
		}
	}
}
