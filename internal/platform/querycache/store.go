// Package querycache is the session-scoped cache behind the contact queries.
//
// Entries are keyed by hierarchical keys ("contacts/list",
// "contacts/detail/<id>") and expire after a per-read staleness window.
// Concurrent fetches of one key share a single call. Invalidation drops
// entries by key prefix and fences off fetches that were already in flight:
// their results still reach their waiters but are never written back.
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	clockport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/clock"
)

// Key identifies a cache entry. Segments are separated by "/".
type Key string

func KeyOf(parts ...string) Key {
	return Key(strings.Join(parts, "/"))
}

// Under reports whether k equals prefix or is nested below it.
func (k Key) Under(prefix Key) bool {
	return k == prefix || strings.HasPrefix(string(k), string(prefix)+"/")
}

type entry struct {
	value     any
	fetchedAt time.Time
}

// Store holds cached query results for one session. Create one per session
// and Clear it on logout/reset. It is safe for concurrent use.
type Store struct {
	clk clockport.Clock
	log *zap.Logger

	mu       sync.Mutex
	entries  map[Key]entry
	gens     map[Key]uint64
	inflight map[Key]int

	group singleflight.Group
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func NewStore(clk clockport.Clock, opts ...Option) *Store {
	s := &Store{
		clk:      clk,
		log:      zap.NewNop(),
		entries:  make(map[Key]entry),
		gens:     make(map[Key]uint64),
		inflight: make(map[Key]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the value cached under key if it was fetched less than
// staleTime ago. Otherwise it calls fn, sharing the call with any concurrent
// Fetch of the same key, and caches the result unless key was invalidated
// while fn ran. Errors are returned as-is and never cached.
//
// The shared call runs detached from ctx cancellation; a caller that gives up
// returns ctx.Err() while the fetch completes for the remaining waiters.
func Fetch[T any](ctx context.Context, s *Store, key Key, staleTime time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := s.lookup(key, staleTime); ok {
		if typed, ok := v.(T); ok {
			s.log.Debug("cache hit", zap.String("key", string(key)))
			return typed, nil
		}
	}
	s.log.Debug("cache miss", zap.String("key", string(key)))

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(string(key), func() (any, error) {
		gen := s.begin(key)
		v, err := fn(fetchCtx)
		s.finish(key, gen, v, err)
		if err != nil {
			return nil, err
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, _ := res.Val.(T)
		return typed, nil
	}
}

// Invalidate drops every entry at or below prefix. Fetches for those keys
// that are still in flight will not write their results back, and the next
// Fetch starts a fresh call instead of joining them.
func (s *Store) Invalidate(prefix Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.entries {
		if k.Under(prefix) {
			delete(s.entries, k)
			s.gens[k]++
			n++
		}
	}
	for k := range s.inflight {
		if k.Under(prefix) {
			s.gens[k]++
			s.group.Forget(string(k))
		}
	}
	s.log.Debug("cache invalidate", zap.String("prefix", string(prefix)), zap.Int("dropped", n))
}

// Clear drops everything, as at the end of a session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.entries {
		s.gens[k]++
	}
	for k := range s.inflight {
		s.gens[k]++
		s.group.Forget(string(k))
	}
	s.entries = make(map[Key]entry)
	s.log.Debug("cache cleared")
}

// Cached reports whether a value is held for key, fresh or not.
func (s *Store) Cached(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// FetchedAt returns when the value under key was stored.
func (s *Store) FetchedAt(key Key) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e.fetchedAt, ok
}

func (s *Store) lookup(key Key, staleTime time.Duration) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || staleTime <= 0 {
		return nil, false
	}
	if s.clk.Now().Sub(e.fetchedAt) >= staleTime {
		return nil, false
	}
	return e.value, true
}

func (s *Store) begin(key Key) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[key]++
	return s.gens[key]
}

func (s *Store) finish(key Key, gen uint64, v any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[key]--; s.inflight[key] <= 0 {
		delete(s.inflight, key)
	}
	if err != nil {
		return
	}
	if s.gens[key] != gen {
		s.log.Debug("discarding superseded fetch", zap.String("key", string(key)))
		return
	}
	s.entries[key] = entry{value: v, fetchedAt: s.clk.Now()}
}
