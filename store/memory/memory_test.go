package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cerberix-net/util-nuget-cacher/store"
	"github.com/cerberix-net/util-nuget-cacher/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(_ *testing.T, clock *storetest.Clock) store.Store {
		return New(Config{Shards: 4, SweepInterval: -1, Now: clock.Now})
	})
}

func TestSweepDropsExpired(t *testing.T) {
	ctx := context.Background()
	clock := storetest.NewClock()
	s := New(Config{SweepInterval: -1, Now: clock.Now})
	t.Cleanup(func() { _ = s.Close(ctx) })

	require.NoError(t, s.Set(ctx, store.Key{Region: "r", Item: "a"}, []byte("1"), store.SlidingWindow(time.Second)))
	require.NoError(t, s.Set(ctx, store.Key{Region: "r", Item: "b"}, []byte("2"), store.AbsoluteAt(clock.Now().Add(time.Hour))))
	require.Equal(t, 2, s.Len())

	clock.Advance(2 * time.Second)
	s.Sweep()
	require.Equal(t, 1, s.Len())
}

func TestJanitorRuns(t *testing.T) {
	ctx := context.Background()
	s := New(Config{SweepInterval: 10 * time.Millisecond})
	t.Cleanup(func() { _ = s.Close(ctx) })

	require.NoError(t, s.Set(ctx, store.Key{Region: "r", Item: "a"}, []byte("1"), store.AbsoluteAt(time.Now().Add(-time.Second))))
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)
}
