package chat

import (
	"context"
	"time"

	"github.com/jinsuh/supplyhub/internal/cache"
)

const (
	deletionKeyPrefix  = "chatroom:deletion:"
	deletionPendingKey = "chatroom:deletion:pending"

	// DefaultDeletionTTL is how long an empty room survives before the
	// reconciler may remove it. Rejoining within the window cancels deletion.
	DefaultDeletionTTL = 10 * time.Minute
)

// DeletionQueue tracks rooms scheduled for removal. Each marked room gets a
// TTL key plus membership in a pending set; the reconciler scans the set and
// deletes rooms whose TTL has lapsed.
type DeletionQueue struct {
	store cache.Store
	ttl   time.Duration
}

func NewDeletionQueue(store cache.Store, ttl time.Duration) *DeletionQueue {
	if ttl <= 0 {
		ttl = DefaultDeletionTTL
	}
	return &DeletionQueue{store: store, ttl: ttl}
}

func deletionKey(roomID string) string {
	return deletionKeyPrefix + roomID
}

// Mark schedules a room for deletion. Marking an already-marked room resets
// its TTL.
func (q *DeletionQueue) Mark(ctx context.Context, roomID string) error {
	if err := q.store.Set(ctx, deletionKey(roomID), []byte("1"), q.ttl); err != nil {
		return err
	}
	return q.store.SetAdd(ctx, deletionPendingKey, roomID)
}

// Clear removes a room's deletion marker and its pending-set entry.
func (q *DeletionQueue) Clear(ctx context.Context, roomID string) error {
	if err := q.store.Delete(ctx, deletionKey(roomID)); err != nil {
		return err
	}
	return q.store.SetRemove(ctx, deletionPendingKey, roomID)
}

// Pending lists every room currently scheduled for deletion, expired or not.
func (q *DeletionQueue) Pending(ctx context.Context) ([]string, error) {
	return q.store.SetMembers(ctx, deletionPendingKey)
}

// Expired reports whether the room's deletion window has lapsed. A marker the
// store no longer knows about counts as expired: on a Redis-backed store the
// key auto-expires away, on the database store a non-positive remaining TTL
// signals the same thing.
func (q *DeletionQueue) Expired(ctx context.Context, roomID string) (bool, error) {
	remaining, exists, err := q.store.TTL(ctx, deletionKey(roomID))
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	return remaining <= 0, nil
}
