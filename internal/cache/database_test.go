package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jinsuh/supplyhub/internal/database/testutil"
)

func TestDatabaseStoreSetGetRoundTrip(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), time.Minute))

	value, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), value)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreSetOverwrites(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("old"), time.Minute))
	require.NoError(t, store.Set(ctx, "k1", []byte("new"), time.Minute))

	value, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), value)
}

func TestDatabaseStoreExpiry(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewDatabaseStore(db, WithDatabaseClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), 10*time.Minute))

	remaining, exists, err := store.TTL(ctx, "k1")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 10*time.Minute, remaining)

	// Past expiry the row lingers but reads as gone / non-positive TTL.
	now = now.Add(11 * time.Minute)

	_, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)

	remaining, exists, err = store.TTL(ctx, "k1")
	require.NoError(t, err)
	require.True(t, exists)
	require.LessOrEqual(t, remaining, time.Duration(0))

	require.NoError(t, store.Delete(ctx, "k1"))
	_, exists, err = store.TTL(ctx, "k1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDatabaseStoreSetOperations(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.SetAdd(ctx, "pending", "room-1", "room-2"))
	// Adding a duplicate member is a no-op.
	require.NoError(t, store.SetAdd(ctx, "pending", "room-1"))

	members, err := store.SetMembers(ctx, "pending")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"room-1", "room-2"}, members)

	require.NoError(t, store.SetRemove(ctx, "pending", "room-1", "room-absent"))
	members, err = store.SetMembers(ctx, "pending")
	require.NoError(t, err)
	require.Equal(t, []string{"room-2"}, members)
}

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	ctx := context.Background()

	count, remaining, err := store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Greater(t, remaining, time.Duration(0))

	count, _, err = store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}
