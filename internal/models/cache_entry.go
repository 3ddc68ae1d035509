package models

import "time"

// CacheEntry backs the database implementation of the ephemeral store. The
// row is not removed when it expires; expiry is evaluated on read so that
// TTL-keyed markers stay inspectable until explicitly deleted.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;type:varchar(255)"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CacheSetMember backs set semantics (SADD/SREM/SMEMBERS) for the database
// implementation of the ephemeral store.
type CacheSetMember struct {
	SetKey    string `gorm:"primaryKey;type:varchar(255)"`
	Member    string `gorm:"primaryKey;type:varchar(255)"`
	CreatedAt time.Time
}
