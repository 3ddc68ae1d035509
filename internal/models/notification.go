package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification represents a persisted in-app notification for a user.
// Records are created by the dispatch pipeline and only ever mutated to flip
// the read flag; retention is an external concern.
type Notification struct {
	BaseModel

	UserID   string         `gorm:"type:uuid;index;not null" json:"user_id"`
	Category string         `gorm:"type:varchar(64);index;not null" json:"category"`
	Message  string         `gorm:"type:text;not null" json:"message"`
	Metadata datatypes.JSON `json:"metadata"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
