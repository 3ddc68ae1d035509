package models

import "time"

// RoomKind identifies the shape of a chat room.
type RoomKind string

const (
	RoomPairwise RoomKind = "pairwise"
	RoomGroup    RoomKind = "group"
	RoomSupport  RoomKind = "support"
)

// ChatRoom is an ephemeral conversation between two or more users. A room
// with zero members is eligible for deletion once its deletion marker expires.
type ChatRoom struct {
	BaseModel

	Name string   `gorm:"type:varchar(255)" json:"name"`
	Kind RoomKind `gorm:"type:varchar(32);index;not null" json:"kind"`

	// PairKey holds "<kind>:<lowID>:<highID>" for pairwise and support rooms.
	// The unique index makes find-or-create atomic under concurrent requests
	// from both participants; group rooms leave it NULL.
	PairKey *string `gorm:"type:varchar(160);uniqueIndex" json:"-"`

	Members []ChatMember `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// ChatMember records one user's membership in a room.
type ChatMember struct {
	BaseModel

	RoomID       string    `gorm:"type:uuid;index;uniqueIndex:idx_room_user;not null" json:"room_id"`
	UserID       string    `gorm:"type:uuid;index;uniqueIndex:idx_room_user;not null" json:"user_id"`
	IsOriginator bool      `gorm:"default:false" json:"is_originator"`
	JoinedAt     time.Time `json:"joined_at"`
}
