// Package bigcache adapts allegro/bigcache to store.Store.
//
// BigCache only knows one global LifeWindow, so every value is wrapped in a
// wire envelope carrying its own deadline and sliding window. Deadlines are
// enforced on read; LifeWindow is the hard upper bound on how long any entry
// may live and must exceed the longest keep-alive in use.
package bigcache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/cerberix-net/util-nuget-cacher/internal/keys"
	"github.com/cerberix-net/util-nuget-cacher/internal/stripe"
	"github.com/cerberix-net/util-nuget-cacher/internal/wire"
	"github.com/cerberix-net/util-nuget-cacher/store"
)

type Config struct {
	LifeWindow   time.Duration    // 0 => 24h
	CleanWindow  time.Duration    // 0 => 1m
	Shards       int              // power of two; 0 => bigcache default
	MaxEntrySize int              // initial entry size hint in bytes
	Now          func() time.Time // nil => time.Now
}

type Store struct {
	c      *bc.BigCache
	locks  *stripe.Locks
	now    func() time.Time
	closed atomic.Bool
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = 24 * time.Hour
	}
	conf := bc.DefaultConfig(life)
	conf.CleanWindow = time.Minute
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	conf.Verbose = false

	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	s := &Store{c: c, locks: stripe.New(0), now: cfg.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// load returns the decoded live entry under ek. Corrupt and expired entries
// are deleted. Caller holds the stripe lock for ek.
func (s *Store) load(ek string, now time.Time) (wire.Entry, []byte, bool, error) {
	raw, err := s.c.Get(ek)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return wire.Entry{}, nil, false, nil
	}
	if err != nil {
		return wire.Entry{}, nil, false, err
	}
	e, err := wire.Decode(raw)
	if err != nil {
		// foreign or damaged bytes can never be served; self-heal
		_ = s.c.Delete(ek)
		return wire.Entry{}, nil, false, nil
	}
	if store.Expired(e.Deadline, now) {
		_ = s.c.Delete(ek)
		return wire.Entry{}, nil, false, nil
	}
	return e, raw, true, nil
}

func (s *Store) put(ek string, value []byte, exp store.Expiration, now time.Time) error {
	return s.c.Set(ek, wire.Encode(wire.Entry{
		Deadline: exp.Deadline(now),
		Window:   exp.Window,
		Payload:  value,
	}))
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
	e, raw, ok, err := s.load(ek, now)
	if err != nil || !ok {
		return nil, false, err
	}
	if e.Window > 0 {
		if err := s.c.Set(ek, wire.Touch(raw, now.Add(e.Window))); err != nil {
			return nil, false, err
		}
	}
	return e.Payload, true, nil
}

func (s *Store) Has(_ context.Context, k store.Key) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()

	_, _, ok, err := s.load(ek, s.now())
	return ok, err
}

func (s *Store) Set(_ context.Context, k store.Key, value []byte, exp store.Expiration) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()
	return s.put(ek, value, exp, s.now())
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
	_, _, ok, err := s.load(ek, now)
	if err != nil || ok {
		return false, err
	}
	return true, s.put(ek, value, exp, now)
}

func (s *Store) Del(_ context.Context, k store.Key) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	ek := keys.Encode(k)
	mu := s.locks.For(ek)
	mu.Lock()
	defer mu.Unlock()

	_, _, ok, err := s.load(ek, s.now())
	if err != nil || !ok {
		return false, err
	}
	if err := s.c.Delete(ek); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return false, err
	}
	return true, nil
}

func (s *Store) Keys(_ context.Context, region string) ([]string, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	now := s.now()
	out := make([]string, 0)
	it := s.c.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			// entry vanished between SetNext and Value
			continue
		}
		item, ok := keys.Strip(info.Key(), region)
		if !ok {
			continue
		}
		e, err := wire.Decode(info.Value())
		if err != nil || store.Expired(e.Deadline, now) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) Close(_ context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.c.Close()
}
