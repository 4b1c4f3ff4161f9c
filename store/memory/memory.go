// Package memory is the native in-process store. Entries live in a sharded map;
// each shard has its own mutex, which gives per-key atomicity for every
// store.Store method while unrelated keys proceed in parallel.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/cerberix-net/util-nuget-cacher/store"
)

const (
	defaultShards = 64
	defaultSweep  = time.Minute
)

type entry struct {
	value    []byte
	exp      store.Expiration
	deadline time.Time
}

type shard struct {
	mu    sync.Mutex
	items map[store.Key]*entry
}

// Config tunes the memory store. The zero value is usable.
type Config struct {
	Shards        int              // 0 => 64
	SweepInterval time.Duration    // 0 => 1m; < 0 disables the janitor
	Now           func() time.Time // nil => time.Now
}

// Store is an in-process store.Store.
type Store struct {
	shards []*shard
	now    func() time.Time
	closed atomic.Bool

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ store.Store = (*Store)(nil)

// New builds a memory store and starts its janitor.
func New(cfg Config) *Store {
	n := cfg.Shards
	if n <= 0 {
		n = defaultShards
	}
	s := &Store{
		shards: make([]*shard, n),
		now:    cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[store.Key]*entry)}
	}

	sweep := cfg.SweepInterval
	if sweep == 0 {
		sweep = defaultSweep
	}
	if sweep > 0 {
		s.ticker = time.NewTicker(sweep)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.sweepLoop()
	}
	return s
}

func (s *Store) shardFor(k store.Key) *shard {
	d := xxhash.New()
	_, _ = d.WriteString(k.Region)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.Item)
	return s.shards[d.Sum64()%uint64(len(s.shards))]
}

// live returns the entry for k if it has not expired. Expired entries are
// dropped on the way. Caller holds sh.mu.
func (sh *shard) live(k store.Key, now time.Time) *entry {
	e, ok := sh.items[k]
	if !ok {
		return nil
	}
	if store.Expired(e.deadline, now) {
		delete(sh.items, k)
		return nil
	}
	return e
}

func newEntry(value []byte, exp store.Expiration, now time.Time) *entry {
	v := make([]byte, len(value))
	copy(v, value)
	return &entry{value: v, exp: exp, deadline: exp.Deadline(now)}
}

func (s *Store) Get(_ context.Context, k store.Key) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, store.ErrClosed
	}
	now := s.now()
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := sh.live(k, now)
	if e == nil {
		return nil, false, nil
	}
	if e.exp.Sliding() {
		e.deadline = e.exp.Deadline(now)
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (s *Store) Has(_ context.Context, k store.Key) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	now := s.now()
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.live(k, now) != nil, nil
}

func (s *Store) Set(_ context.Context, k store.Key, value []byte, exp store.Expiration) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	e := newEntry(value, exp, s.now())
	sh := s.shardFor(k)
	sh.mu.Lock()
	sh.items[k] = e
	sh.mu.Unlock()
	return nil
}

func (s *Store) Add(_ context.Context, k store.Key, value []byte, exp store.Expiration) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	now := s.now()
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.live(k, now) != nil {
		return false, nil
	}
	sh.items[k] = newEntry(value, exp, now)
	return true, nil
}

func (s *Store) Del(_ context.Context, k store.Key) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	now := s.now()
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.live(k, now) == nil {
		return false, nil
	}
	delete(sh.items, k)
	return true, nil
}

func (s *Store) Keys(_ context.Context, region string) ([]string, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	now := s.now()
	out := make([]string, 0)
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.items {
			if k.Region == region && !store.Expired(e.deadline, now) {
				out = append(out, k.Item)
			}
		}
		sh.mu.Unlock()
	}
	return out, nil
}

// Len returns the number of entries held, expired or not.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.items)
		sh.mu.Unlock()
	}
	return n
}

// Sweep drops every expired entry.
func (s *Store) Sweep() {
	now := s.now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.items {
			if store.Expired(e.deadline, now) {
				delete(sh.items, k)
			}
		}
		sh.mu.Unlock()
	}
}

func (s *Store) sweepLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}
