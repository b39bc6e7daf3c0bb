package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer/internal/clock"
	"github.com/viant/composer/runtime/execution"
)

func withClock(t *testing.T, start time.Time) *time.Time {
	now := start
	clock.NowFunc = func() time.Time { return now }
	clock.Reset()
	t.Cleanup(func() {
		clock.NowFunc = time.Now
		clock.Reset()
	})
	return &now
}

func TestService_RoundTripAndExpiry(t *testing.T) {
	now := withClock(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store := New()
	result := &execution.ComponentResult{ComponentID: "lei", Status: execution.ComponentPass, ZKProofGenerated: true}
	require.NoError(t, store.Store(ctx, "gleif-Acme", result))

	entry, ok, err := store.Lookup(ctx, "gleif-Acme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result, entry.Result)
	assert.Equal(t, 1, entry.Hits)
	assert.Equal(t, now.Add(24*time.Hour), entry.ExpiresAt)

	entry, ok, _ = store.Lookup(ctx, "gleif-Acme")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Hits)

	*now = now.Add(24*time.Hour + time.Second)
	_, ok, err = store.Lookup(ctx, "gleif-Acme")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len(), "expired entries stay until swept")

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, store.Len())
}

func TestService_StoreOverwritesAndIsolates(t *testing.T) {
	withClock(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	store := New(WithTTL(time.Hour))
	result := &execution.ComponentResult{ComponentID: "a", Status: execution.ComponentPass}
	require.NoError(t, store.Store(ctx, "k", result))
	result.ComponentID = "mutated"

	_, _, _ = store.Lookup(ctx, "k")
	require.NoError(t, store.Store(ctx, "k", &execution.ComponentResult{ComponentID: "b", Status: execution.ComponentPass}))
	entry, ok, _ := store.Lookup(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "b", entry.Result.ComponentID)
	assert.Equal(t, 1, entry.Hits)

	entry.Result.ComponentID = "changed"
	entry, _, _ = store.Lookup(ctx, "k")
	assert.Equal(t, "b", entry.Result.ComponentID)
}

func TestService_Start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := New(WithTTL(time.Millisecond), WithSweepInterval(5*time.Millisecond))
	require.NoError(t, store.Store(ctx, "k", &execution.ComponentResult{Status: execution.ComponentPass}))
	store.Start(ctx)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}
