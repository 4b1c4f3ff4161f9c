package cacher

import (
	"context"
	"time"

	c "github.com/cerberix-net/util-nuget-cacher/codec"
	"github.com/cerberix-net/util-nuget-cacher/store"
)

// ComputeFunc produces the value GetOrSet stores on a miss.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Cache is the region-scoped facade. V is the caller's value type; facades for
// different value types may share a store and even a region.
//
// Reads take no lock and may race with concurrent writers. Mutations through
// one facade are serialized; mutations through different facades rely on the
// store's per-key atomicity.
type Cache[V any] interface {
	// Region returns the normalized region name.
	Region() string

	// ContainsKey reports whether key is live. It does not slide the deadline.
	ContainsKey(ctx context.Context, key string) (bool, error)

	// Get returns (v, true, nil) on hit and (zero, false, nil) on miss.
	// A hit slides the deadline of sliding entries.
	Get(ctx context.Context, key string) (v V, ok bool, err error)

	// Set writes value under key and echoes it back.
	Set(ctx context.Context, key string, policy Policy, value V) (V, error)

	// GetOrSet returns the stored value, or computes, stores and returns it.
	// Concurrent callers on one facade share a single computation per key.
	GetOrSet(ctx context.Context, key string, policy Policy, fn ComputeFunc[V]) (V, error)

	// Remove deletes key and reports whether a live entry was removed.
	Remove(ctx context.Context, key string) (bool, error)

	// Clear removes every key the region held when Clear started. Keys written
	// concurrently after that snapshot may survive.
	Clear(ctx context.Context) error

	// GetKeys lists the live item keys of the region in no particular order.
	GetKeys(ctx context.Context) ([]string, error)
}

// Options configure a facade. Only Store is required.
type Options[V any] struct {
	// Required
	Store store.Store // shared; the facade never closes it

	Region string           // blank => "Default"; trimmed, case-sensitive
	Codec  c.Codec[V]       // nil => codec.JSON[V]
	Logger Logger           // nil => NopLogger
	Hooks  Hooks            // nil => NopHooks
	Now    func() time.Time // nil => time.Now; clock for absolute deadlines
}

func New[V any](opts Options[V]) (Cache[V], error) {
	cc, err := newCache[V](opts)
	if err != nil {
		return nil, err
	}
	return cc, nil
}
