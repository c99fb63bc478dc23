package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	state := New("whatsapp:+32470000001", "whatsapp")
	state.Name = "Alice Dupont"
	state.Stage = StageService
	at := time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)
	state.PreferredAt = &at
	state.SetOfferedSlots([]time.Time{at, at.Add(time.Hour)})

	require.NoError(t, store.Put(ctx, state))

	loaded, err := store.Get(ctx, "whatsapp:+32470000001")
	require.NoError(t, err)
	assert.Equal(t, "Alice Dupont", loaded.Name)
	assert.Equal(t, StageService, loaded.Stage)
	require.NotNil(t, loaded.PreferredAt)
	assert.True(t, loaded.PreferredAt.Equal(at))
	assert.Len(t, loaded.OfferedSlots, 2)
}

func TestRedisStoreMissing(t *testing.T) {
	store, _ := newRedisStore(t)
	_, err := store.Get(context.Background(), "whatsapp:+32999999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Put(ctx, New("whatsapp:+32470000001", "whatsapp")))
	ttl := mr.TTL("session:whatsapp:+32470000001")
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "whatsapp:+32470000001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreReset(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	require.NoError(t, store.Put(ctx, New("web_demo:abc", "web_demo")))
	require.NoError(t, store.Reset(ctx, "web_demo:abc"))

	_, err := store.Get(ctx, "web_demo:abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	state := New("whatsapp:+32470000001", "whatsapp")
	require.NoError(t, store.Put(ctx, state))

	// Mutating the original after Put must not leak into the store.
	state.Name = "changed"
	loaded, err := store.Get(ctx, "whatsapp:+32470000001")
	require.NoError(t, err)
	assert.Empty(t, loaded.Name)
}
