package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scoreforge/scoreforge-api/internal/models"
)

// Connect opens a Postgres connection via GORM.
func Connect(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	log.Println("✅ Database connected")
	return db, nil
}

// Migrate runs schema migrations for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Composition{}); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Println("✅ Database migrations complete")
	return nil
}
