package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIncrement_CountsWithinWindow(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		count, err := s.Increment(ctx, "k", time.Minute)
		require.NoError(t, err)
		require.Equal(t, int64(i), count)
	}
}

func TestIncrement_ResetsExpiredWindow(t *testing.T) {
	now := time.Now()
	s := New(withClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := s.Increment(ctx, "k", time.Second)
	require.NoError(t, err)
	_, err = s.Increment(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)

	count, err := s.Increment(ctx, "k", time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestIncrement_IsolatesKeys(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Increment(ctx, "a", time.Minute)
	require.NoError(t, err)
	count, err := s.Increment(ctx, "b", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestBlock_ActiveUntilExpiry(t *testing.T) {
	now := time.Now()
	s := New(withClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, s.SetBlock(ctx, "k", time.Minute))

	blocked, err := s.IsBlocked(ctx, "k")
	require.NoError(t, err)
	require.True(t, blocked)

	now = now.Add(2 * time.Minute)

	blocked, err = s.IsBlocked(ctx, "k")
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestSetBlock_NonPositiveDurationClears(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SetBlock(ctx, "k", time.Minute))
	require.NoError(t, s.SetBlock(ctx, "k", 0))

	blocked, err := s.IsBlocked(ctx, "k")
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestCleanup_RemovesExpiredEntries(t *testing.T) {
	now := time.Now()
	s := New(withClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := s.Increment(ctx, "k", time.Second)
	require.NoError(t, err)
	require.NoError(t, s.SetBlock(ctx, "k", time.Second))

	now = now.Add(2 * time.Second)
	s.Cleanup()

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Empty(t, s.counters)
	require.Empty(t, s.blocks)
}

func TestIncrement_ConcurrentConsumersSeeDistinctCounts(t *testing.T) {
	s := New()

	const n = 100
	var wg sync.WaitGroup
	counts := make(chan int64, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := s.Increment(context.Background(), "k", time.Minute)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			counts <- count
		}()
	}
	wg.Wait()
	close(counts)

	seen := make(map[int64]bool, n)
	for count := range counts {
		require.GreaterOrEqual(t, count, int64(1))
		require.LessOrEqual(t, count, int64(n))
		require.False(t, seen[count], "count %d observed twice", count)
		seen[count] = true
	}
	require.Len(t, seen, n)
}
