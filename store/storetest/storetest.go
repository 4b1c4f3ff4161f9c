// Package storetest is a conformance suite every store.Store implementation
// runs from its own tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cerberix-net/util-nuget-cacher/store"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at an arbitrary fixed instant.
func NewClock() *Clock { return &Clock{now: time.Unix(1_700_000_000, 0)} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Factory builds a fresh store reading time from clock.
type Factory func(t *testing.T, clock *Clock) store.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s store.Store, clock *Clock)
	}{
		{"RoundTrip", testRoundTrip},
		{"MissIsNotAnError", testMiss},
		{"SetReplaces", testSetReplaces},
		{"ValueIsCopied", testValueIsCopied},
		{"AbsoluteIgnoresReads", testAbsolute},
		{"SlidingSlidesOnGet", testSliding},
		{"HasDoesNotSlide", testHasDoesNotSlide},
		{"AddInsertsIfAbsent", testAdd},
		{"ConcurrentAddHasOneWinner", testConcurrentAdd},
		{"DelReportsPresence", testDel},
		{"KeysPerRegion", testKeys},
		{"FarDeadlineStaysLive", testFarDeadline},
		{"Close", testClose},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := NewClock()
			s := newStore(t, clock)
			t.Cleanup(func() { _ = s.Close(context.Background()) })
			tc.fn(t, s, clock)
		})
	}
}

func key(region, item string) store.Key { return store.Key{Region: region, Item: item} }

func long(clock *Clock) store.Expiration { return store.AbsoluteAt(clock.Now().Add(time.Hour)) }

func testRoundTrip(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("users", "u:1")
	require.NoError(t, s.Set(ctx, k, []byte("ada"), long(clock)))

	got, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("ada"), got)

	has, err := s.Has(ctx, k)
	require.NoError(t, err)
	require.True(t, has)
}

// Deadlines past the unix-nano range (year 2262) must not wrap into the past.
func testFarDeadline(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	centuries := 250 * 365 * 24 * time.Hour
	abs := key("far", "absolute")
	sld := key("far", "sliding")
	require.NoError(t, s.Set(ctx, abs, []byte("a"), store.AbsoluteAt(clock.Now().Add(centuries))))
	require.NoError(t, s.Set(ctx, sld, []byte("s"), store.SlidingWindow(centuries)))

	clock.Advance(time.Hour)
	for _, k := range []store.Key{abs, sld} {
		has, err := s.Has(ctx, k)
		require.NoError(t, err)
		require.True(t, has, "%s: entry with a far deadline reported absent", k.Item)

		_, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, ok, "%s: entry with a far deadline missed", k.Item)
	}

	ks, err := s.Keys(ctx, "far")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"absolute", "sliding"}, ks)
}

func testMiss(t *testing.T, s store.Store, _ *Clock) {
	ctx := context.Background()
	k := key("users", "nope")

	got, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)

	has, err := s.Has(ctx, k)
	require.NoError(t, err)
	require.False(t, has)

	removed, err := s.Del(ctx, k)
	require.NoError(t, err)
	require.False(t, removed)

	ks, err := s.Keys(ctx, "users")
	require.NoError(t, err)
	require.Empty(t, ks)
}

func testSetReplaces(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "foo")
	require.NoError(t, s.Set(ctx, k, []byte("bar"), long(clock)))
	require.NoError(t, s.Set(ctx, k, []byte("baz"), long(clock)))

	got, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("baz"), got)

	ks, err := s.Keys(ctx, "r")
	require.NoError(t, err)
	require.Equal(t, []string{"foo"}, ks)
}

func testValueIsCopied(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "buf")
	in := []byte("abc")
	require.NoError(t, s.Set(ctx, k, in, long(clock)))
	in[0] = 'X'

	got, _, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)
}

func testAbsolute(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "abs")
	require.NoError(t, s.Set(ctx, k, []byte("v"), store.AbsoluteAt(clock.Now().Add(3*time.Second))))

	for i := 0; i < 2; i++ {
		clock.Advance(time.Second)
		_, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, ok, "read %d before deadline", i)
	}

	clock.Advance(time.Second)
	_, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.False(t, ok, "reads must not extend an absolute deadline")

	has, err := s.Has(ctx, k)
	require.NoError(t, err)
	require.False(t, has)
}

func testSliding(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "slide")
	require.NoError(t, s.Set(ctx, k, []byte("v"), store.SlidingWindow(3*time.Second)))

	clock.Advance(2 * time.Second)
	_, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)

	// deadline moved to t=5s
	clock.Advance(2 * time.Second)
	has, err := s.Has(ctx, k)
	require.NoError(t, err)
	require.True(t, has)

	clock.Advance(time.Second)
	has, err = s.Has(ctx, k)
	require.NoError(t, err)
	require.False(t, has)
}

func testHasDoesNotSlide(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "peek")
	require.NoError(t, s.Set(ctx, k, []byte("v"), store.SlidingWindow(3*time.Second)))

	clock.Advance(2 * time.Second)
	has, err := s.Has(ctx, k)
	require.NoError(t, err)
	require.True(t, has)

	clock.Advance(time.Second)
	has, err = s.Has(ctx, k)
	require.NoError(t, err)
	require.False(t, has)
}

func testAdd(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "once")

	added, err := s.Add(ctx, k, []byte("first"), store.AbsoluteAt(clock.Now().Add(time.Second)))
	require.NoError(t, err)
	require.True(t, added)

	added, err = s.Add(ctx, k, []byte("second"), long(clock))
	require.NoError(t, err)
	require.False(t, added)

	got, _, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), got)

	clock.Advance(time.Second)
	added, err = s.Add(ctx, k, []byte("third"), long(clock))
	require.NoError(t, err)
	require.True(t, added, "an expired entry counts as absent")

	got, _, err = s.Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, []byte("third"), got)
}

func testConcurrentAdd(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "race")
	exp := long(clock)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Add(ctx, k, []byte("v"), exp)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())
}

func testDel(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	k := key("r", "gone")
	require.NoError(t, s.Set(ctx, k, []byte("v"), long(clock)))

	removed, err := s.Del(ctx, k)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = s.Del(ctx, k)
	require.NoError(t, err)
	require.False(t, removed)

	stale := key("r", "stale")
	require.NoError(t, s.Set(ctx, stale, []byte("v"), store.AbsoluteAt(clock.Now().Add(time.Second))))
	clock.Advance(time.Second)
	removed, err = s.Del(ctx, stale)
	require.NoError(t, err)
	require.False(t, removed, "expired entries are not reported as removed")
}

func testKeys(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, key("A", "foo"), []byte("1"), long(clock)))
	require.NoError(t, s.Set(ctx, key("A", "bar"), []byte("2"), long(clock)))
	require.NoError(t, s.Set(ctx, key("a", "foo"), []byte("3"), long(clock)))
	require.NoError(t, s.Set(ctx, key("A|B", "x"), []byte("4"), long(clock)))
	require.NoError(t, s.Set(ctx, key("A", "short"), []byte("5"), store.AbsoluteAt(clock.Now().Add(time.Second))))
	clock.Advance(time.Second)

	ks, err := s.Keys(ctx, "A")
	require.NoError(t, err)
	sort.Strings(ks)
	require.Equal(t, []string{"bar", "foo"}, ks)

	ks, err = s.Keys(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []string{"foo"}, ks)

	ks, err = s.Keys(ctx, "A|B")
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, ks)

	ks, err = s.Keys(ctx, "B")
	require.NoError(t, err)
	require.Empty(t, ks)
}

func testClose(t *testing.T, s store.Store, clock *Clock) {
	ctx := context.Background()
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))

	err := s.Set(ctx, key("r", "k"), []byte("v"), long(clock))
	require.ErrorIs(t, err, store.ErrClosed)
	_, _, err = s.Get(ctx, key("r", "k"))
	require.ErrorIs(t, err, store.ErrClosed)
}
