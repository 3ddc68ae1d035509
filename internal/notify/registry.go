package notify

import (
	"fmt"
	"time"

	apperrors "github.com/jinsuh/supplyhub/pkg/errors"
)

// overdueGraceWindow bounds how long after the due date the exceeded alert
// keeps firing; beyond it the long-term non-return monitor takes over.
const overdueGraceWindow = 3 * 24 * time.Hour

// dueSoonWindow is how far ahead of the due date the reminder fires.
const dueSoonWindow = 3 * 24 * time.Hour

// Strategy pairs a trigger predicate with a message renderer for one
// category. Both functions are pure; Render fails when the context's concrete
// type does not belong to the strategy's category.
type Strategy struct {
	ShouldTrigger func(ctx Context) bool
	Render        func(ctx Context) (string, error)
}

// Registry resolves a category to its strategy. It is assembled once at
// process start and read-only afterwards.
type Registry struct {
	strategies map[Category]Strategy
	now        func() time.Time
}

// RegistryOption customises registry construction.
type RegistryOption func(*Registry)

// WithClock overrides the clock used by time-sensitive trigger predicates.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry builds the strategy table for every category.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	r.strategies = map[Category]Strategy{
		CategorySupplyRequest: {
			ShouldTrigger: func(ctx Context) bool {
				_, ok := ctx.(SupplyRequestContext)
				return ok
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(SupplyRequestContext)
				if !ok {
					return "", invalidContext(CategorySupplyRequest, ctx)
				}
				return fmt.Sprintf("%s requested %d × %s.", c.RequesterName, c.Quantity, c.ItemName), nil
			},
		},
		CategorySupplyReturn: {
			ShouldTrigger: func(ctx Context) bool {
				_, ok := ctx.(SupplyReturnContext)
				return ok
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(SupplyReturnContext)
				if !ok {
					return "", invalidContext(CategorySupplyReturn, ctx)
				}
				return fmt.Sprintf("%s returned %d × %s.", c.ReturnerName, c.Quantity, c.ItemName), nil
			},
		},
		CategoryStockShortage: {
			ShouldTrigger: func(ctx Context) bool {
				c, ok := ctx.(StockShortageContext)
				return ok && c.Current < c.Minimum
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(StockShortageContext)
				if !ok {
					return "", invalidContext(CategoryStockShortage, ctx)
				}
				return fmt.Sprintf("Stock for %s is running low: %d left (minimum %d).", c.ItemName, c.Current, c.Minimum), nil
			},
		},
		CategoryReturnDueDateExceeded: {
			ShouldTrigger: func(ctx Context) bool {
				c, ok := ctx.(ReturnDueDateContext)
				if !ok || c.DueAt.IsZero() {
					return false
				}
				now := r.now()
				return c.DueAt.Before(now) && c.DueAt.Add(overdueGraceWindow).After(now)
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(ReturnDueDateContext)
				if !ok {
					return "", invalidContext(CategoryReturnDueDateExceeded, ctx)
				}
				return fmt.Sprintf("The return date for %s (%s) has passed.", c.ItemName, c.DueAt.Format("2006-01-02")), nil
			},
		},
		CategoryReturnDueSoon: {
			ShouldTrigger: func(ctx Context) bool {
				c, ok := ctx.(ReturnDueSoonContext)
				if !ok || c.DueAt.IsZero() {
					return false
				}
				now := r.now()
				return now.Before(c.DueAt) && c.DueAt.Sub(now) <= dueSoonWindow
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(ReturnDueSoonContext)
				if !ok {
					return "", invalidContext(CategoryReturnDueSoon, ctx)
				}
				return fmt.Sprintf("%s is due back on %s.", c.ItemName, c.DueAt.Format("2006-01-02")), nil
			},
		},
		CategorySupplyRequestApproved: {
			ShouldTrigger: func(ctx Context) bool {
				c, ok := ctx.(SupplyApprovedContext)
				return ok && c.Approved
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(SupplyApprovedContext)
				if !ok {
					return "", invalidContext(CategorySupplyRequestApproved, ctx)
				}
				return fmt.Sprintf("Your request for %d × %s was approved.", c.Quantity, c.ItemName), nil
			},
		},
		CategorySupplyRequestRejected: {
			ShouldTrigger: func(ctx Context) bool {
				c, ok := ctx.(SupplyRejectedContext)
				return ok && !c.Approved
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(SupplyRejectedContext)
				if !ok {
					return "", invalidContext(CategorySupplyRequestRejected, ctx)
				}
				return fmt.Sprintf("Your request for %d × %s was rejected.", c.Quantity, c.ItemName), nil
			},
		},
		CategoryNewChat: {
			ShouldTrigger: func(ctx Context) bool {
				_, ok := ctx.(NewChatContext)
				return ok
			},
			Render: func(ctx Context) (string, error) {
				c, ok := ctx.(NewChatContext)
				if !ok {
					return "", invalidContext(CategoryNewChat, ctx)
				}
				return fmt.Sprintf("New chat message from %s.", c.SenderName), nil
			},
		},
	}

	return r
}

// Resolve returns the strategy bound to a category. A missing strategy is a
// configuration error, not a runtime condition to recover from.
func (r *Registry) Resolve(category Category) (Strategy, error) {
	strategy, ok := r.strategies[category]
	if !ok {
		return Strategy{}, apperrors.ErrNoStrategy.WithInternal(fmt.Errorf("category %q", category))
	}
	return strategy, nil
}

func invalidContext(category Category, ctx Context) error {
	return apperrors.ErrInvalidNotificationContext.WithInternal(
		fmt.Errorf("category %s received %T", category, ctx))
}
