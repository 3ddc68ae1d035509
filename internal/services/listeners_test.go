package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/database/testutil"
	"github.com/jinsuh/supplyhub/internal/events"
	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/internal/notify"
	"github.com/jinsuh/supplyhub/internal/push"
	apperrors "github.com/jinsuh/supplyhub/pkg/errors"
)

func newListenerFixture(t *testing.T) (*events.Dispatcher, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	dispatcher := events.NewDispatcher()
	notifier := notify.NewService(db, notify.NewRegistry(), push.NewRegistry())
	RegisterNotificationListeners(dispatcher, db, notifier)
	return dispatcher, db
}

func notificationsFor(t *testing.T, db *gorm.DB, userID string) []models.Notification {
	t.Helper()
	var records []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Find(&records).Error)
	return records
}

func TestStockShortageFansOutToManagers(t *testing.T) {
	dispatcher, db := newListenerFixture(t)
	ctx := context.Background()

	createUser(t, db, "manager-1", "boss", models.RoleManager)
	createUser(t, db, "manager-2", "chief", models.RoleManager)
	createUser(t, db, "user-1", "alice", models.RoleUser)

	err := dispatcher.Publish(ctx, events.StockShortage{ItemName: "Mouse", Current: 1, Minimum: 5})
	require.NoError(t, err)

	for _, managerID := range []string{"manager-1", "manager-2"} {
		records := notificationsFor(t, db, managerID)
		require.Len(t, records, 1, "manager %s", managerID)
		require.Equal(t, string(notify.CategoryStockShortage), records[0].Category)
		require.Contains(t, records[0].Message, "Mouse")
	}

	// Regular users never see manager-facing categories.
	require.Empty(t, notificationsFor(t, db, "user-1"))
}

func TestApprovalNotifiesOnlyTheRequester(t *testing.T) {
	dispatcher, db := newListenerFixture(t)
	ctx := context.Background()

	createUser(t, db, "manager-1", "boss", models.RoleManager)
	createUser(t, db, "user-1", "alice", models.RoleUser)

	err := dispatcher.Publish(ctx, events.SupplyRequestApproved{UserID: "user-1", ItemName: "Desk", Quantity: 1})
	require.NoError(t, err)

	records := notificationsFor(t, db, "user-1")
	require.Len(t, records, 1)
	require.Equal(t, string(notify.CategorySupplyRequestApproved), records[0].Category)

	require.Empty(t, notificationsFor(t, db, "manager-1"))
}

func TestChatMessageNotifiesTargetMember(t *testing.T) {
	dispatcher, db := newListenerFixture(t)
	ctx := context.Background()

	createUser(t, db, "user-1", "alice", models.RoleUser)
	createUser(t, db, "user-2", "bob", models.RoleUser)

	err := dispatcher.Publish(ctx, events.ChatMessagePosted{
		RoomID:     "room-1",
		SenderID:   "user-1",
		SenderName: "alice",
		TargetID:   "user-2",
	})
	require.NoError(t, err)

	records := notificationsFor(t, db, "user-2")
	require.Len(t, records, 1)
	require.Equal(t, string(notify.CategoryNewChat), records[0].Category)
	require.Contains(t, records[0].Message, "alice")

	require.Empty(t, notificationsFor(t, db, "user-1"), "senders are not notified about their own messages")
}

func TestDueSoonNotifiesBorrower(t *testing.T) {
	dispatcher, db := newListenerFixture(t)
	ctx := context.Background()

	createUser(t, db, "user-1", "alice", models.RoleUser)

	err := dispatcher.Publish(ctx, events.ReturnDueSoon{
		UserID:   "user-1",
		ItemName: "Projector",
		DueAt:    nowPlusDays(2),
	})
	require.NoError(t, err)

	records := notificationsFor(t, db, "user-1")
	require.Len(t, records, 1)
	require.Contains(t, records[0].Message, "Projector")
}

func TestUnknownRecipientSurfacesError(t *testing.T) {
	dispatcher, _ := newListenerFixture(t)

	err := dispatcher.Publish(context.Background(), events.SupplyRequestApproved{UserID: "ghost", ItemName: "Desk", Quantity: 1})
	require.Error(t, err)
}

// mislabeledEvent reuses an existing event type string with a foreign payload.
type mislabeledEvent struct{}

func (mislabeledEvent) EventType() string { return events.TypeSupplyRequestCreated }

func TestMismatchedEventPayloadErrorsInsteadOfPanicking(t *testing.T) {
	dispatcher, db := newListenerFixture(t)

	createUser(t, db, "manager-1", "boss", models.RoleManager)

	err := dispatcher.Publish(context.Background(), mislabeledEvent{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "events.invalid_payload", appErr.Code)

	require.Empty(t, notificationsFor(t, db, "manager-1"))
}
