package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role identifies the coarse organisational role of a user. Visibility of
// notification categories is keyed off this value.
type Role string

const (
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

// ParseRole normalises a role string, returning an empty Role when unknown.
func ParseRole(value string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleManager:
		return RoleManager
	case RoleUser:
		return RoleUser
	default:
		return ""
	}
}

// User represents an account in the inventory system. The wider CRUD surface
// around users lives outside this service; only identity, display name, and
// role are needed by the notification and chat subsystems.
type User struct {
	BaseModel

	Username string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email    string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Password string `gorm:"type:varchar(255)" json:"-"`
	Name     string `gorm:"type:varchar(128)" json:"name"`
	Role     Role   `gorm:"type:varchar(32);index;default:'USER'" json:"role"`
}

// SetPassword hashes and stores the supplied plaintext password.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
