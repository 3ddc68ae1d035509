package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jinsuh/supplyhub/internal/database/testutil"
	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/internal/push"
	apperrors "github.com/jinsuh/supplyhub/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *push.Registry) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	pusher := push.NewRegistry()
	svc := NewService(db, NewRegistry(), pusher)
	return svc, pusher
}

func TestDispatchPersistsUnreadAndPushes(t *testing.T) {
	svc, pusher := newTestService(t)
	ctx := context.Background()

	manager := Recipient{UserID: "manager-1", Role: models.RoleManager}
	ch := pusher.Subscribe(manager.UserID)
	otherCh := pusher.Subscribe("manager-2")

	shortage := StockShortageContext{ItemName: "Mouse", Current: 1, Minimum: 5}
	require.NoError(t, svc.Dispatch(ctx, CategoryStockShortage, shortage, manager))

	// Exactly one push for the recipient, none for anyone else.
	select {
	case event := <-ch.Events():
		require.Equal(t, PushEventNotification, event.Event)
		require.NotNil(t, event.Notification)
		require.Contains(t, event.Notification.Message, "Mouse")
		require.False(t, event.Notification.IsRead)
	default:
		t.Fatal("expected a push event for the recipient")
	}
	select {
	case <-ch.Events():
		t.Fatal("recipient received a duplicate push")
	default:
	}
	select {
	case <-otherCh.Events():
		t.Fatal("unrelated user received a push")
	default:
	}

	records, total, err := svc.ListForUser(ctx, manager.UserID, models.RoleManager, ListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	require.Equal(t, string(CategoryStockShortage), records[0].Category)
	require.False(t, records[0].IsRead)
}

func TestDispatchSkipsInvisibleRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := Recipient{UserID: "user-1", Role: models.RoleUser}
	shortage := StockShortageContext{ItemName: "Mouse", Current: 1, Minimum: 5}
	require.NoError(t, svc.Dispatch(ctx, CategoryStockShortage, shortage, user))

	unread, err := svc.UnreadForUser(ctx, user.UserID)
	require.NoError(t, err)
	require.Empty(t, unread, "invisible categories must not persist records")
}

func TestDispatchSkipsFalseTrigger(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	manager := Recipient{UserID: "manager-1", Role: models.RoleManager}
	healthy := StockShortageContext{ItemName: "Mouse", Current: 9, Minimum: 5}
	require.NoError(t, svc.Dispatch(ctx, CategoryStockShortage, healthy, manager))

	unread, err := svc.UnreadForUser(ctx, manager.UserID)
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestDispatchUnknownCategoryFails(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Dispatch(context.Background(), Category("BOGUS"), NewChatContext{}, Recipient{UserID: "u1", Role: models.RoleUser})
	require.Error(t, err)
}

func TestDispatchOfflineRecipientStillPersists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := Recipient{UserID: "user-1", Role: models.RoleUser}
	approved := SupplyApprovedContext{SupplyDecisionContext{ItemName: "Desk", Quantity: 1, Approved: true}}
	require.NoError(t, svc.Dispatch(ctx, CategorySupplyRequestApproved, approved, user))

	unread, err := svc.UnreadForUser(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
}

func TestMarkReadRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := Recipient{UserID: "user-1", Role: models.RoleUser}
	approved := SupplyApprovedContext{SupplyDecisionContext{ItemName: "Desk", Quantity: 1, Approved: true}}
	require.NoError(t, svc.Dispatch(ctx, CategorySupplyRequestApproved, approved, user))

	unread, err := svc.UnreadForUser(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	original := unread[0]

	require.NoError(t, svc.MarkRead(ctx, user.UserID, original.ID))

	records, _, err := svc.ListForUser(ctx, user.UserID, models.RoleUser, ListOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].IsRead)
	require.NotNil(t, records[0].ReadAt)
	require.Equal(t, original.Message, records[0].Message)
	require.Equal(t, original.Category, records[0].Category)

	// Marking again is a no-op.
	require.NoError(t, svc.MarkRead(ctx, user.UserID, original.ID))

	// Someone else's notification reads as not found.
	err = svc.MarkRead(ctx, "intruder", original.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := Recipient{UserID: "user-1", Role: models.RoleUser}
	for i := 0; i < 3; i++ {
		approved := SupplyApprovedContext{SupplyDecisionContext{ItemName: "Desk", Quantity: int64(i + 1), Approved: true}}
		require.NoError(t, svc.Dispatch(ctx, CategorySupplyRequestApproved, approved, user))
	}

	updated, err := svc.MarkAllRead(ctx, user.UserID)
	require.NoError(t, err)
	require.Equal(t, int64(3), updated)

	count, err := svc.UnreadCount(ctx, user.UserID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestListForUserDeniesForeignCategory(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.ListForUser(context.Background(), "user-1", models.RoleUser, ListOptions{
		Category: string(CategoryStockShortage),
	})
	require.ErrorIs(t, err, apperrors.ErrNotificationDenied)
}

func TestListForUserFiltersUnread(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := Recipient{UserID: "user-1", Role: models.RoleUser}
	first := SupplyApprovedContext{SupplyDecisionContext{ItemName: "Desk", Quantity: 1, Approved: true}}
	second := SupplyApprovedContext{SupplyDecisionContext{ItemName: "Lamp", Quantity: 1, Approved: true}}
	require.NoError(t, svc.Dispatch(ctx, CategorySupplyRequestApproved, first, user))
	require.NoError(t, svc.Dispatch(ctx, CategorySupplyRequestApproved, second, user))

	unread, err := svc.UnreadForUser(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	require.NoError(t, svc.MarkRead(ctx, user.UserID, unread[0].ID))

	records, total, err := svc.ListForUser(ctx, user.UserID, models.RoleUser, ListOptions{UnreadOnly: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	require.False(t, records[0].IsRead)
}

func TestServiceClockControlsReadAt(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	fixed := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(db, NewRegistry(), push.NewRegistry(), WithServiceClock(func() time.Time { return fixed }))
	ctx := context.Background()

	user := Recipient{UserID: "user-1", Role: models.RoleUser}
	approved := SupplyApprovedContext{SupplyDecisionContext{ItemName: "Desk", Quantity: 1, Approved: true}}
	require.NoError(t, svc.Dispatch(ctx, CategorySupplyRequestApproved, approved, user))

	unread, err := svc.UnreadForUser(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.NoError(t, svc.MarkRead(ctx, user.UserID, unread[0].ID))

	records, _, err := svc.ListForUser(ctx, user.UserID, models.RoleUser, ListOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].ReadAt)
	require.True(t, records[0].ReadAt.Equal(fixed))
}
