package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer/internal/idgen"
	"github.com/viant/composer/runtime/execution"
)

func testStore(t *testing.T, ttl time.Duration) *Store {
	addr := os.Getenv("COMPOSER_REDIS_ADDR")
	if addr == "" {
		t.Skip("set COMPOSER_REDIS_ADDR to run redis cache tests")
	}
	store, err := New(&Config{Addr: addr, Prefix: "composer-test:" + idgen.New() + ":", TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew_RequiresAddr(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
	_, err = New(nil)
	assert.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	store := testStore(t, time.Minute)
	ctx := context.Background()

	_, ok, err := store.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	result := &execution.ComponentResult{ComponentID: "lei", ToolName: "gleif", Status: execution.ComponentPass, ZKProofGenerated: true}
	require.NoError(t, store.Store(ctx, "gleif-Acme", result))

	entry, ok, err := store.Lookup(ctx, "gleif-Acme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "lei", entry.Result.ComponentID)
	assert.True(t, entry.Result.ZKProofGenerated)
	assert.Equal(t, 1, entry.Hits)

	entry, _, _ = store.Lookup(ctx, "gleif-Acme")
	assert.Equal(t, 2, entry.Hits)
}

func TestStore_Expiry(t *testing.T) {
	store := testStore(t, 50*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "k", &execution.ComponentResult{Status: execution.ComponentPass}))
	assert.Eventually(t, func() bool {
		_, ok, err := store.Lookup(ctx, "k")
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)
}
