// File: /database/database.go
package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"runmeet-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
		// Surface driver duplicate-key errors as gorm.ErrDuplicatedKey so
		// the notification dedup backstop can recognize them.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Participant{},
		&models.EventRoute{},
		&models.EventGroup{},
		&models.Route{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addDatabaseConstraints(db); err != nil {
		return fmt.Errorf("failed to add database constraints: %w", err)
	}

	return nil
}

func addDatabaseConstraints(db *gorm.DB) error {
	// One row per (event, user). NULL user ids (guests) are exempt by SQL
	// semantics, which is exactly what guest rows need.
	if err := db.Exec("ALTER TABLE participants ADD CONSTRAINT uk_participants_event_user UNIQUE (event_id, user_id)").Error; err != nil {
		fmt.Printf("Warning: Could not add unique constraint for participants: %v\n", err)
	}

	// The idempotence backstop for scheduled notification writers.
	if err := db.Exec("ALTER TABLE notifications ADD CONSTRAINT uk_notifications_recipient_dedup UNIQUE (recipient_id, dedup_key)").Error; err != nil {
		fmt.Printf("Warning: Could not add unique constraint for notifications: %v\n", err)
	}

	return nil
}
