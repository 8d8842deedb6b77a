package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ValeriyaDzh/spimex-api/internal/database/migrations"
	"github.com/ValeriyaDzh/spimex-api/internal/trading"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&trading.TradingResult{}); err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddTradingResultIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
