package models

// MessageStatus tracks the delivery state of a chat message.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
)

// ChatMessage is a persisted message posted to a chat room.
type ChatMessage struct {
	BaseModel

	RoomID     string        `gorm:"type:uuid;index;not null" json:"room_id"`
	SenderID   string        `gorm:"type:uuid;index;not null" json:"sender_id"`
	SenderName string        `gorm:"type:varchar(128)" json:"sender_name"`
	Content    string        `gorm:"type:text;not null" json:"content"`
	Status     MessageStatus `gorm:"type:varchar(32);default:'sent'" json:"status"`
}
