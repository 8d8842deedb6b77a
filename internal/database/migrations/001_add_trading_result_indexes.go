package migrations

import (
	"gorm.io/gorm"
)

// AddTradingResultIndexes creates the composite indexes backing the filtered
// query paths.
func AddTradingResultIndexes(db *gorm.DB) error {
	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Composite index for the filtered-latest and dynamics queries
		`CREATE INDEX IF NOT EXISTS idx_trading_results_date_oil
		 ON trading_results(trading_date, oil_id)`,

		// Index for delivery type filtering
		`CREATE INDEX IF NOT EXISTS idx_trading_results_delivery_type
		 ON trading_results(delivery_type_id)`,

		// Index for creation-recency ordering
		`CREATE INDEX IF NOT EXISTS idx_trading_results_created_at
		 ON trading_results(created_at)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
