package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"commerce-agent/internal/domain"
)

type countingStore struct {
	inner *MemoryStore
	loads int
	saves int
}

func newCountingStore() *countingStore {
	return &countingStore{inner: NewMemoryStore()}
}

func (c *countingStore) Load(ctx context.Context, customerID string) (*domain.ConversationSession, error) {
	c.loads++
	return c.inner.Load(ctx, customerID)
}

func (c *countingStore) Save(ctx context.Context, session *domain.ConversationSession) error {
	c.saves++
	return c.inner.Save(ctx, session)
}

func TestSessionCache_ServesWarmReads(t *testing.T) {
	ctx := context.Background()
	durable := newCountingStore()
	cache, err := NewSessionCache(durable, time.Minute)
	require.NoError(t, err)

	session := domain.NewSession("c1", time.Now())
	session.VendorID = "7"
	require.NoError(t, cache.Save(ctx, session))

	for i := 0; i < 3; i++ {
		got, err := cache.Load(ctx, "c1")
		require.NoError(t, err)
		require.Equal(t, "7", got.VendorID)
	}
	require.Zero(t, durable.loads, "warm reads must not hit the durable store")
}

func TestSessionCache_ExpiredEntryFallsThrough(t *testing.T) {
	ctx := context.Background()
	durable := newCountingStore()
	cache, err := NewSessionCache(durable, time.Nanosecond)
	require.NoError(t, err)

	session := domain.NewSession("c1", time.Now())
	require.NoError(t, cache.Save(ctx, session))

	time.Sleep(time.Millisecond)
	_, err = cache.Load(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 1, durable.loads)
}

func TestSessionCache_ConflictEvicts(t *testing.T) {
	ctx := context.Background()
	durable := newCountingStore()
	cache, err := NewSessionCache(durable, time.Minute)
	require.NoError(t, err)

	session := domain.NewSession("c1", time.Now())
	require.NoError(t, cache.Save(ctx, session)) // version 1, cached

	// Another worker commits version 2 behind the cache's back.
	other, err := durable.inner.Load(ctx, "c1")
	require.NoError(t, err)
	other.VendorID = "9"
	require.NoError(t, durable.inner.Save(ctx, other))

	stale, err := cache.Load(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, stale.VendorID, "cached copy is the stale one")

	stale.VendorID = "7"
	require.ErrorIs(t, cache.Save(ctx, stale), domain.ErrVersionConflict)

	// The conflict evicted the entry, so the reload sees the other commit.
	reloaded, err := cache.Load(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "9", reloaded.VendorID)
	require.Equal(t, int64(2), reloaded.Version)
}

func TestSessionCache_LoadMissPopulates(t *testing.T) {
	ctx := context.Background()
	durable := newCountingStore()
	cache, err := NewSessionCache(durable, time.Minute)
	require.NoError(t, err)

	seed := domain.NewSession("c1", time.Now())
	require.NoError(t, durable.inner.Save(ctx, seed))

	_, err = cache.Load(ctx, "c1")
	require.NoError(t, err)
	_, err = cache.Load(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 1, durable.loads)
}

func TestNewSessionCache_NilInner(t *testing.T) {
	_, err := NewSessionCache(nil, time.Minute)
	require.Error(t, err)
}
