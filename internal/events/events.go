package events

import "time"

// Event type identifiers.
const (
	TypeSupplyRequestCreated  = "supply_request.created"
	TypeSupplyReturnCreated   = "supply_return.created"
	TypeStockShortage         = "stock.shortage"
	TypeSupplyRequestApproved = "supply_request.approved"
	TypeSupplyRequestRejected = "supply_request.rejected"
	TypeReturnDueDateExceeded = "supply_return.due_date_exceeded"
	TypeReturnDueSoon         = "supply_return.due_soon"
	TypeChatMessagePosted     = "chat.message_posted"
)

// SupplyRequestCreated fires when a member requests supplies.
type SupplyRequestCreated struct {
	RequesterID   string
	RequesterName string
	ItemName      string
	Quantity      int64
}

func (SupplyRequestCreated) EventType() string { return TypeSupplyRequestCreated }

// SupplyReturnCreated fires when a member hands an item back.
type SupplyReturnCreated struct {
	ReturnerID   string
	ReturnerName string
	ItemName     string
	Quantity     int64
}

func (SupplyReturnCreated) EventType() string { return TypeSupplyReturnCreated }

// StockShortage fires after outbound inventory movement changes an item's count.
type StockShortage struct {
	ItemName string
	Current  int64
	Minimum  int64
}

func (StockShortage) EventType() string { return TypeStockShortage }

// SupplyRequestApproved fires when a manager approves a supply request.
type SupplyRequestApproved struct {
	UserID   string
	ItemName string
	Quantity int64
}

func (SupplyRequestApproved) EventType() string { return TypeSupplyRequestApproved }

// SupplyRequestRejected fires when a manager rejects a supply request.
type SupplyRequestRejected struct {
	UserID   string
	ItemName string
	Quantity int64
}

func (SupplyRequestRejected) EventType() string { return TypeSupplyRequestRejected }

// ReturnDueDateExceeded fires from the lending monitor when a return date has passed.
type ReturnDueDateExceeded struct {
	ItemName string
	DueAt    time.Time
}

func (ReturnDueDateExceeded) EventType() string { return TypeReturnDueDateExceeded }

// ReturnDueSoon fires from the lending monitor when a return date approaches.
type ReturnDueSoon struct {
	UserID   string
	ItemName string
	DueAt    time.Time
}

func (ReturnDueSoon) EventType() string { return TypeReturnDueSoon }

// ChatMessagePosted fires for each room member other than the sender when a
// chat message lands in a room.
type ChatMessagePosted struct {
	RoomID     string
	SenderID   string
	SenderName string
	TargetID   string
}

func (ChatMessagePosted) EventType() string { return TypeChatMessagePosted }
