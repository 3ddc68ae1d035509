package notify

import "time"

// Context is the per-category payload handed to a strategy. Each payload
// struct reports the single category it belongs to; a strategy rejects any
// context whose concrete type does not match its own category.
type Context interface {
	ContextCategory() Category
}

// SupplyRequestContext describes a freshly created supply request.
type SupplyRequestContext struct {
	RequesterName string
	ItemName      string
	Quantity      int64
}

func (SupplyRequestContext) ContextCategory() Category { return CategorySupplyRequest }

// SupplyReturnContext describes a supply return handed in by a member.
type SupplyReturnContext struct {
	ReturnerName string
	ItemName     string
	Quantity     int64
}

func (SupplyReturnContext) ContextCategory() Category { return CategorySupplyReturn }

// StockShortageContext describes an item's stock level against its minimum.
type StockShortageContext struct {
	ItemName string
	Current  int64
	Minimum  int64
}

func (StockShortageContext) ContextCategory() Category { return CategoryStockShortage }

// ReturnDueDateContext describes a lent item and its agreed return date.
type ReturnDueDateContext struct {
	ItemName string
	DueAt    time.Time
}

func (ReturnDueDateContext) ContextCategory() Category { return CategoryReturnDueDateExceeded }

// ReturnDueSoonContext describes a lent item whose return date approaches.
type ReturnDueSoonContext struct {
	ItemName string
	DueAt    time.Time
}

func (ReturnDueSoonContext) ContextCategory() Category { return CategoryReturnDueSoon }

// SupplyDecisionContext describes the outcome of a supply request review.
// It backs both the approved and rejected categories; the status field lets
// each strategy trigger only on its own outcome.
type SupplyDecisionContext struct {
	ItemName string
	Quantity int64
	Approved bool
}

// SupplyApprovedContext marks an approved review outcome.
type SupplyApprovedContext struct {
	SupplyDecisionContext
}

func (SupplyApprovedContext) ContextCategory() Category { return CategorySupplyRequestApproved }

// SupplyRejectedContext marks a rejected review outcome.
type SupplyRejectedContext struct {
	SupplyDecisionContext
}

func (SupplyRejectedContext) ContextCategory() Category { return CategorySupplyRequestRejected }

// NewChatContext describes an unread chat message for a room member.
type NewChatContext struct {
	RoomID     string
	SenderName string
}

func (NewChatContext) ContextCategory() Category { return CategoryNewChat }
