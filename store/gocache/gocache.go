// Package gocache adapts patrickmn/go-cache to store.Store.
//
// go-cache expires entries on its own clock; the adapter additionally keeps the
// deadline next to the value so reads agree with the injected clock, and
// re-arms go-cache's expiration whenever a sliding entry is read.
package gocache

import (
	"context"
	"sync/atomic"
	"time"

	gc "github.com/patrickmn/go-cache"

	"github.com/cerberix-net/util-nuget-cacher/internal/keys"
	"github.com/cerberix-net/util-nuget-cacher/internal/stripe"
	"github.com/cerberix-net/util-nuget-cacher/store"
)

type Config struct {
	SweepInterval time.Duration    // 0 => 1m; < 0 disables go-cache's janitor
	Now           func() time.Time // nil => time.Now
}

// item is immutable once stored; touches replace it.
type item struct {
	value    []byte
	window   time.Duration
	deadline time.Time
}

type Store struct {
	c      *gc.Cache
	locks  *stripe.Locks
	now    func() time.Time
	closed atomic.Bool
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) *Store {
	sweep := cfg.SweepInterval
	switch {
	case sweep == 0:
		sweep = time.Minute
	case sweep < 0:
		sweep = 0
	}
	s := &Store{
		c:     gc.New(gc.NoExpiration, sweep),
		locks: stripe.New(0),
		now:   cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NewWithCache wraps an existing go-cache instance.
func NewWithCache(c *gc.Cache) *Store {
	return &Store{c: c, locks: stripe.New(0), now: time.Now}
}

func (s *Store) load(ek string, now time.Time) *item {
	v, ok := s.c.Get(ek)
	if !ok {
		return nil
	}
	it, _ := v.(*item)
	if it == nil || store.Expired(it.deadline, now) {
		s.c.Delete(ek)
		return nil
	}
	return it
}

// put stores it, or drops ek when it is already past its deadline.
func (s *Store) put(ek string, it *item, now time.Time) {
	ttl := it.deadline.Sub(now)
	if ttl <= 0 {
		s.c.Delete(ek)
		return
	}
	// go-cache stores time.Now().Add(ttl) as unix nanos; past 2262 that wraps,
	// so leave far deadlines to the item itself.
	if !time.Now().Add(ttl).Before(store.MaxDeadline) {
		ttl = gc.NoExpiration
	}
	s.c.Set(ek, it, ttl)
}

func newItem(value []byte, exp store.Expiration, now time.Time) *item {
	v := make([]byte, len(value))
	copy(v, value)
	return &item{value: v, window: exp.Window, deadline: exp.Deadline(now)}
}

func (s *Store) Get(_ context.Context, k store.Key) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()

	now := s.now()
	it := s.load(ek, now)
	if it == nil {
		return nil, false, nil
	}
	if it.window > 0 {
		s.put(ek, &item{value: it.value, window: it.window, deadline: now.Add(it.window)}, now)
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, true, nil
}

func (s *Store) Has(_ context.Context, k store.Key) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()
	return s.load(ek, s.now()) != nil, nil
}

func (s *Store) Set(_ context.Context, k store.Key, value []byte, exp store.Expiration) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()

	now := s.now()
	s.put(ek, newItem(value, exp, now), now)
	return nil
}

func (s *Store) Add(_ context.Context, k store.Key, value []byte, exp store.Expiration) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()

	now := s.now()
	if s.load(ek, now) != nil {
		return false, nil
	}
	s.put(ek, newItem(value, exp, now), now)
	return true, nil
}

func (s *Store) Del(_ context.Context, k store.Key) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()

	if s.load(ek, s.now()) == nil {
		return false, nil
	}
	s.c.Delete(ek)
	return true, nil
}

func (s *Store) Keys(_ context.Context, region string) ([]string, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	now := s.now()
	out := make([]string, 0)
	for ek, entry := range s.c.Items() {
		name, ok := keys.Strip(ek, region)
		if !ok {
			continue
		}
		if it, _ := entry.Object.(*item); it != nil && !store.Expired(it.deadline, now) {
			out = append(out, name)
		}
	}
	return out, nil
}

// Close marks the store closed and drops its entries. go-cache stops its
// janitor once the cache is garbage collected.
func (s *Store) Close(_ context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	s.c.Flush()
	return nil
}
