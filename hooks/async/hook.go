// Package asynchook moves hook delivery off the cache's call path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    DecodeFailedEvery:  10, // sample logs: ~every 10th decode failure
//	    ComputeSharedEvery: 100,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	pkgs, _ := cacher.New[Package](cacher.Options[Package]{
//	    Store:  st,
//	    Region: "packages",
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	cacher "github.com/cerberix-net/util-nuget-cacher"
)

// Hooks queues events for a fixed set of workers. Events are dropped when the
// queue is full or the Hooks are closed.
type Hooks struct {
	inner cacher.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cacher.Hooks = (*Hooks)(nil)

func New(inner cacher.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to be delivered.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) DecodeFailed(r, k string, err error) {
	h.try(func() { h.inner.DecodeFailed(r, k, err) })
}
func (h *Hooks) ComputeShared(r, k string)    { h.try(func() { h.inner.ComputeShared(r, k) }) }
func (h *Hooks) ComputeDiscarded(r, k string) { h.try(func() { h.inner.ComputeDiscarded(r, k) }) }
func (h *Hooks) ClearFailed(r string, failed, total int, err error) {
	h.try(func() { h.inner.ClearFailed(r, failed, total, err) })
}
