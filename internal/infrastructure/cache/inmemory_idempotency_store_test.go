package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClockedStore returns a store whose clock the test advances by hand
func newClockedStore(t *testing.T) (*InMemoryIdempotencyStore, *time.Time) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newClockedStore(t)

	resp, found, err := store.Lookup(ctx, "tenant-a:key-1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, resp)

	ok, err := store.Reserve(ctx, "tenant-a:key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "tenant-a:key-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation must fail")

	resp, found, err = store.Lookup(ctx, "tenant-a:key-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, resp, "reserved key has no response yet")

	body := []byte(`{"loadNumber":"LD-2026-00001"}`)
	require.NoError(t, store.Complete(ctx, "tenant-a:key-1", Response{Status: 201, ContentType: "application/json", Body: body}, time.Hour))
	body[0] = 'X'

	resp, found, err = store.Lookup(ctx, "tenant-a:key-1")
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, `{"loadNumber":"LD-2026-00001"}`, string(resp.Body), "stored body is a copy")
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, now := newClockedStore(t)

	ok, err := store.Reserve(ctx, "k", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	*now = now.Add(11 * time.Second)

	assert.ErrorIs(t, store.Complete(ctx, "k", Response{Status: 200}, time.Hour), ErrNotReserved)

	_, found, err := store.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = store.Reserve(ctx, "k", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired key can be reserved again")

	*now = now.Add(time.Minute)
	store.cleanup()
	assert.Equal(t, 0, store.Size())
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	ctx := context.Background()
	store, _ := newClockedStore(t)

	_, err := store.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k"))

	ok, err := store.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, store.Complete(ctx, "never-reserved", Response{}, time.Minute), ErrNotReserved)
}

func TestInMemoryIdempotencyStore_ConcurrentReserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Reserve(context.Background(), "same-key", time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
