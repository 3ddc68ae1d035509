package services

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/events"
	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/internal/notify"
	apperrors "github.com/jinsuh/supplyhub/pkg/errors"
)

// RegisterNotificationListeners wires every business event to the
// notification pipeline. Manager-facing categories fan out to all managers;
// user-facing ones go to the single user the event names. Registration is
// explicit and happens once at startup.
func RegisterNotificationListeners(dispatcher *events.Dispatcher, db *gorm.DB, notifier *notify.Service) {
	dispatcher.Subscribe(events.TypeSupplyRequestCreated, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.SupplyRequestCreated)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToManagers(ctx, db, notifier, notify.CategorySupplyRequest, notify.SupplyRequestContext{
			RequesterName: event.RequesterName,
			ItemName:      event.ItemName,
			Quantity:      event.Quantity,
		})
	})

	dispatcher.Subscribe(events.TypeSupplyReturnCreated, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.SupplyReturnCreated)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToManagers(ctx, db, notifier, notify.CategorySupplyReturn, notify.SupplyReturnContext{
			ReturnerName: event.ReturnerName,
			ItemName:     event.ItemName,
			Quantity:     event.Quantity,
		})
	})

	dispatcher.Subscribe(events.TypeStockShortage, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.StockShortage)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToManagers(ctx, db, notifier, notify.CategoryStockShortage, notify.StockShortageContext{
			ItemName: event.ItemName,
			Current:  event.Current,
			Minimum:  event.Minimum,
		})
	})

	dispatcher.Subscribe(events.TypeReturnDueDateExceeded, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.ReturnDueDateExceeded)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToManagers(ctx, db, notifier, notify.CategoryReturnDueDateExceeded, notify.ReturnDueDateContext{
			ItemName: event.ItemName,
			DueAt:    event.DueAt,
		})
	})

	dispatcher.Subscribe(events.TypeSupplyRequestApproved, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.SupplyRequestApproved)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToUser(ctx, db, notifier, event.UserID, notify.CategorySupplyRequestApproved, notify.SupplyApprovedContext{
			SupplyDecisionContext: notify.SupplyDecisionContext{
				ItemName: event.ItemName,
				Quantity: event.Quantity,
				Approved: true,
			},
		})
	})

	dispatcher.Subscribe(events.TypeSupplyRequestRejected, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.SupplyRequestRejected)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToUser(ctx, db, notifier, event.UserID, notify.CategorySupplyRequestRejected, notify.SupplyRejectedContext{
			SupplyDecisionContext: notify.SupplyDecisionContext{
				ItemName: event.ItemName,
				Quantity: event.Quantity,
				Approved: false,
			},
		})
	})

	dispatcher.Subscribe(events.TypeReturnDueSoon, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.ReturnDueSoon)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToUser(ctx, db, notifier, event.UserID, notify.CategoryReturnDueSoon, notify.ReturnDueSoonContext{
			ItemName: event.ItemName,
			DueAt:    event.DueAt,
		})
	})

	dispatcher.Subscribe(events.TypeChatMessagePosted, func(ctx context.Context, e events.Event) error {
		event, ok := e.(events.ChatMessagePosted)
		if !ok {
			return unexpectedEventPayload(e)
		}
		return dispatchToUser(ctx, db, notifier, event.TargetID, notify.CategoryNewChat, notify.NewChatContext{
			RoomID:     event.RoomID,
			SenderName: event.SenderName,
		})
	})
}

// unexpectedEventPayload guards against a publisher reusing an event type
// string with a different concrete payload.
func unexpectedEventPayload(e events.Event) error {
	return apperrors.New(
		"events.invalid_payload",
		fmt.Sprintf("unexpected payload %T for event %s", e, e.EventType()),
		http.StatusInternalServerError,
	)
}

func dispatchToManagers(ctx context.Context, db *gorm.DB, notifier *notify.Service, category notify.Category, payload notify.Context) error {
	var managers []models.User
	if err := db.WithContext(ctx).
		Where("role = ?", models.RoleManager).
		Find(&managers).Error; err != nil {
		return apperrors.Wrap(err, "Failed to load managers for notification")
	}

	var errs error
	for _, manager := range managers {
		err := notifier.Dispatch(ctx, category, payload, notify.Recipient{
			UserID: manager.ID,
			Role:   manager.Role,
		})
		errs = multierr.Append(errs, err)
	}
	return errs
}

func dispatchToUser(ctx context.Context, db *gorm.DB, notifier *notify.Service, userID string, category notify.Category, payload notify.Context) error {
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return apperrors.Wrap(err, "Failed to load notification recipient")
	}
	return notifier.Dispatch(ctx, category, payload, notify.Recipient{
		UserID: user.ID,
		Role:   user.Role,
	})
}
