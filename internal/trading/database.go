package trading

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// SaveResults inserts a batch of trading results in a single transaction.
// Either every record is committed or none are.
func (d *Database) SaveResults(results []*TradingResult) error {
	if len(results) == 0 {
		return nil
	}

	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, result := range results {
		if err := tx.Create(result).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// LastTradingDates returns up to limit distinct trading dates, most recent
// first. Dates with many records collapse to a single entry.
func (d *Database) LastTradingDates(limit int) ([]time.Time, error) {
	var dates []time.Time
	err := d.db.Model(&TradingResult{}).
		Select("trading_date").
		Group("trading_date").
		Order("trading_date DESC").
		Limit(limit).
		Pluck("trading_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// FilteredLatest returns the records of the most recent trading date present
// in the store, narrowed by filters. An empty store yields an empty slice.
func (d *Database) FilteredLatest(filters Filters) ([]TradingResult, error) {
	dates, err := d.LastTradingDates(1)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return []TradingResult{}, nil
	}

	var results []TradingResult
	query := applyFilters(d.db.Where("trading_date = ?", dates[0]), filters)
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Dynamics returns records whose trading date falls in [startDate, endDate],
// narrowed by filters. An inverted range yields an empty slice.
func (d *Database) Dynamics(startDate, endDate time.Time, filters Filters) ([]TradingResult, error) {
	var results []TradingResult
	query := d.db.Where("trading_date BETWEEN ? AND ?", DateOnly(startDate), DateOnly(endDate))
	query = applyFilters(query, filters)
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Database) GetResult(id string) (*TradingResult, error) {
	var result TradingResult
	if err := d.db.Where("id = ?", id).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func applyFilters(query *gorm.DB, filters Filters) *gorm.DB {
	if filters.OilID != "" {
		query = query.Where("oil_id = ?", filters.OilID)
	}
	if filters.DeliveryTypeID != "" {
		query = query.Where("delivery_type_id = ?", filters.DeliveryTypeID)
	}
	if filters.DeliveryBasisID != "" {
		query = query.Where("delivery_basis_id = ?", filters.DeliveryBasisID)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	return query
}
