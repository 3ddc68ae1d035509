package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/models"
)

// AutoMigrate applies the schema for all persistent models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.ChatRoom{},
		&models.ChatMember{},
		&models.ChatMessage{},
		&models.CacheEntry{},
		&models.CacheSetMember{},
	)
}

// SeedData inserts a bootstrap manager account when the user table is empty,
// so a fresh deployment has someone who can receive manager notifications.
func SeedData(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin := models.User{
		Username: "admin",
		Email:    "admin@localhost",
		Name:     "Administrator",
		Role:     models.RoleManager,
	}
	if err := admin.SetPassword("changeme"); err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	return db.Create(&admin).Error
}
