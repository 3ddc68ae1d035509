package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/cache"
	"github.com/jinsuh/supplyhub/internal/chat"
	"github.com/jinsuh/supplyhub/internal/database/testutil"
	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/internal/services"
)

type fixture struct {
	db    *gorm.DB
	rooms *services.ChatRoomService
	queue *chat.DeletionQueue
	rec   *Reconciler
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	f := &fixture{
		db:  db,
		now: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
	}
	store := cache.NewDatabaseStore(db, cache.WithDatabaseClock(func() time.Time { return f.now }))
	f.queue = chat.NewDeletionQueue(store, 10*time.Minute)
	f.rooms = services.NewChatRoomService(db, f.queue)
	f.rec = NewReconciler(db, f.queue)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) roomExists(t *testing.T, roomID string) bool {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.ChatRoom{}).Where("id = ?", roomID).Count(&count).Error)
	return count > 0
}

func makeEmptyMarkedRoom(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()
	room, err := f.rooms.FindOrCreate(ctx, models.RoomPairwise, "", []string{"user-a", "user-b"})
	require.NoError(t, err)
	require.NoError(t, f.rooms.Leave(ctx, room.ID, "user-a"))
	require.NoError(t, f.rooms.Leave(ctx, room.ID, "user-b"))
	return room.ID
}

func TestCycleBeforeExpiryLeavesRoomAndMarker(t *testing.T) {
	f := newFixture(t)
	roomID := makeEmptyMarkedRoom(t, f)

	f.advance(5 * time.Minute)
	require.NoError(t, f.rec.RunOnce(context.Background()))

	require.True(t, f.roomExists(t, roomID), "room survives inside the grace window")
	pending, err := f.queue.Pending(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{roomID}, pending, "unexpired marker stays pending for the next cycle")
}

func TestCycleDeletesEmptyRoomAfterExpiry(t *testing.T) {
	f := newFixture(t)
	roomID := makeEmptyMarkedRoom(t, f)

	f.advance(11 * time.Minute)
	require.NoError(t, f.rec.RunOnce(context.Background()))

	require.False(t, f.roomExists(t, roomID))
	pending, err := f.queue.Pending(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRejoinDuringGraceWindowSavesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roomID := makeEmptyMarkedRoom(t, f)

	f.advance(5 * time.Minute)
	require.NoError(t, f.rooms.Join(ctx, roomID, "user-a"))

	f.advance(6 * time.Minute)
	require.NoError(t, f.rec.RunOnce(ctx))

	require.True(t, f.roomExists(t, roomID), "rejoined room must not be deleted")
	pending, err := f.queue.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending, "marker is cleared after evaluation either way")
}

func TestCycleDropsMarkerForMissingRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.queue.Mark(ctx, "room-gone"))
	f.advance(11 * time.Minute)

	require.NoError(t, f.rec.RunOnce(ctx))

	pending, err := f.queue.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestDeletedRoomMessagesAreRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.rooms.FindOrCreate(ctx, models.RoomPairwise, "", []string{"user-a", "user-b"})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&models.ChatMessage{
		RoomID:   room.ID,
		SenderID: "user-a",
		Content:  "hello",
		Status:   models.MessageSent,
	}).Error)

	require.NoError(t, f.rooms.Leave(ctx, room.ID, "user-a"))
	require.NoError(t, f.rooms.Leave(ctx, room.ID, "user-b"))

	f.advance(11 * time.Minute)
	require.NoError(t, f.rec.RunOnce(ctx))

	require.False(t, f.roomExists(t, room.ID))
	var count int64
	require.NoError(t, f.db.Model(&models.ChatMessage{}).Where("room_id = ?", room.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestRunOnceWithEmptyPendingSet(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rec.RunOnce(context.Background()))
}

func TestStartAndStopScheduler(t *testing.T) {
	f := newFixture(t)

	rec := NewReconciler(f.db, f.queue, WithSchedule("@every 1h"))
	require.NoError(t, rec.Start())
	<-rec.Stop().Done()
}
