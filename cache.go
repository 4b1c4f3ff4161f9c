package cacher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/cerberix-net/util-nuget-cacher/codec"
	"github.com/cerberix-net/util-nuget-cacher/internal/keys"
	"github.com/cerberix-net/util-nuget-cacher/store"
)

var errNilCompute = errors.New("cacher: compute func is nil")

type cache[V any] struct {
	region string
	store  store.Store
	codec  c.Codec[V]
	log    Logger
	hooks  Hooks
	now    func() time.Time

	// mu serializes mutations issued through this facade. Other facades over
	// the same store do not take it.
	mu     sync.Mutex
	flight singleflight.Group
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("cacher: store is required")
	}

	cc := &cache[V]{
		region: keys.Region(opts.Region),
		store:  opts.Store,
		now:    opts.Now,
	}

	// defaults
	cc.codec = coalesce[c.Codec[V]](opts.Codec, c.JSON[V]{})
	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if cc.now == nil {
		cc.now = time.Now
	}

	return cc, nil
}

func (cc *cache[V]) Region() string { return cc.region }

func (cc *cache[V]) key(item string) (store.Key, error) {
	return keys.Derive(item, cc.region)
}

func (cc *cache[V]) ContainsKey(ctx context.Context, key string) (bool, error) {
	k, err := cc.key(key)
	if err != nil {
		return false, err
	}
	ok, err := cc.store.Has(ctx, k)
	if err != nil {
		return false, fmt.Errorf("cacher: contains %q: %w", key, err)
	}
	return ok, nil
}

func (cc *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	k, err := cc.key(key)
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := cc.store.Get(ctx, k)
	if err != nil {
		return zero, false, fmt.Errorf("cacher: get %q: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}
	v, err := cc.codec.Decode(raw)
	if err != nil {
		cc.hooks.DecodeFailed(cc.region, key, err)
		cc.log.Warn("decode failed; entry left in place", Fields{"region": cc.region, "key": key, "err": err})
		return zero, false, &SerializationError{Op: "decode", Region: cc.region, Key: key, Err: err}
	}
	return v, true, nil
}

// prepare validates and translates everything a write needs. Nothing here
// touches the store.
func (cc *cache[V]) prepare(key string, policy Policy, value V) (store.Key, []byte, store.Expiration, error) {
	k, err := cc.key(key)
	if err != nil {
		return store.Key{}, nil, store.Expiration{}, err
	}
	if err := policy.validate(); err != nil {
		return store.Key{}, nil, store.Expiration{}, err
	}
	payload, err := cc.codec.Encode(value)
	if err != nil {
		return store.Key{}, nil, store.Expiration{}, &SerializationError{Op: "encode", Region: cc.region, Key: key, Err: err}
	}
	exp, err := policy.expiration(cc.now())
	if err != nil {
		return store.Key{}, nil, store.Expiration{}, err
	}
	return k, payload, exp, nil
}

func (cc *cache[V]) Set(ctx context.Context, key string, policy Policy, value V) (V, error) {
	var zero V
	k, payload, exp, err := cc.prepare(key, policy, value)
	if err != nil {
		return zero, err
	}

	cc.mu.Lock()
	err = cc.store.Set(ctx, k, payload, exp)
	cc.mu.Unlock()
	if err != nil {
		return zero, fmt.Errorf("cacher: set %q: %w", key, err)
	}
	return value, nil
}

func (cc *cache[V]) GetOrSet(ctx context.Context, key string, policy Policy, fn ComputeFunc[V]) (V, error) {
	var zero V
	k, err := cc.key(key)
	if err != nil {
		return zero, err
	}
	if err := policy.validate(); err != nil {
		return zero, err
	}
	if fn == nil {
		return zero, errNilCompute
	}

	if v, ok, err := cc.Get(ctx, key); err != nil || ok {
		return v, err
	}

	res, err, shared := cc.flight.Do(keys.Encode(k), func() (any, error) {
		return cc.computeAndAdd(ctx, k, key, policy, fn)
	})
	if err != nil {
		return zero, err
	}
	if shared {
		cc.hooks.ComputeShared(cc.region, key)
	}
	v, _ := res.(V)
	return v, nil
}

// computeAndAdd runs once per flight. The value is stored insert-if-absent: if
// a writer outside this flight got there first, its value wins.
func (cc *cache[V]) computeAndAdd(ctx context.Context, k store.Key, key string, policy Policy, fn ComputeFunc[V]) (V, error) {
	var zero V

	// a previous flight may have stored the key after our miss
	if v, ok, err := cc.Get(ctx, key); err != nil || ok {
		return v, err
	}

	v, err := fn(ctx)
	if err != nil {
		return zero, err
	}
	_, payload, exp, err := cc.prepare(key, policy, v)
	if err != nil {
		return zero, err
	}

	cc.mu.Lock()
	added, err := cc.store.Add(ctx, k, payload, exp)
	cc.mu.Unlock()
	if err != nil {
		return zero, fmt.Errorf("cacher: add %q: %w", key, err)
	}
	if added {
		return v, nil
	}

	cc.hooks.ComputeDiscarded(cc.region, key)
	cc.log.Debug("computed value discarded; key written concurrently", Fields{"region": cc.region, "key": key})
	stored, ok, err := cc.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if !ok {
		// the winner is already gone again; ours is still the freshest answer
		return v, nil
	}
	return stored, nil
}

func (cc *cache[V]) Remove(ctx context.Context, key string) (bool, error) {
	k, err := cc.key(key)
	if err != nil {
		return false, err
	}

	cc.mu.Lock()
	removed, err := cc.store.Del(ctx, k)
	cc.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("cacher: remove %q: %w", key, err)
	}
	return removed, nil
}

func (cc *cache[V]) Clear(ctx context.Context) error {
	// snapshot first; entries added after this point are not guaranteed to go
	items, err := cc.store.Keys(ctx, cc.region)
	if err != nil {
		return fmt.Errorf("cacher: clear region %q: %w", cc.region, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	var errs []error
	for _, item := range items {
		if _, err := cc.store.Del(ctx, store.Key{Region: cc.region, Item: item}); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", item, err))
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		cc.hooks.ClearFailed(cc.region, len(errs), len(items), err)
		cc.log.Error("clear incomplete", Fields{"region": cc.region, "failed": len(errs), "total": len(items), "err": err})
		return fmt.Errorf("cacher: clear region %q: %w", cc.region, err)
	}

	cc.log.Debug("region cleared", Fields{"region": cc.region, "removed": len(items)})
	return nil
}

func (cc *cache[V]) GetKeys(ctx context.Context) ([]string, error) {
	items, err := cc.store.Keys(ctx, cc.region)
	if err != nil {
		return nil, fmt.Errorf("cacher: keys of region %q: %w", cc.region, err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}
