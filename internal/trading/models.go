package trading

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ValeriyaDzh/spimex-api/internal/report"
)

// TradingResult is one normalized line item from a daily SPIMEX trading
// report. Records are created in bulk during ingestion and never updated.
type TradingResult struct {
	ID                  string    `gorm:"primaryKey" json:"id"`
	ExchangeProductID   string    `json:"exchange_product_id"`
	ExchangeProductName string    `json:"exchange_product_name"`
	OilID               string    `json:"oil_id"`
	DeliveryBasisID     string    `json:"delivery_basis_id"`
	DeliveryBasisName   string    `json:"delivery_basis_name"`
	DeliveryTypeID      string    `json:"delivery_type_id"`
	Volume              int64     `gorm:"check:volume >= 0" json:"volume"`
	Total               int64     `gorm:"check:total >= 0" json:"total"`
	Count               int64     `gorm:"check:count >= 0" json:"count"`
	TradingDate         time.Time `gorm:"index" json:"trading_date"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (TradingResult) TableName() string {
	return "trading_results"
}

func (r *TradingResult) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ParseProductID splits an exchange product code into its embedded
// identifiers: the first four characters are the oil id, the next three the
// delivery-basis id, and the final character the delivery-type id. Codes too
// short for a segment yield an empty string for that segment.
func ParseProductID(code string) (oilID, basisID, typeID string) {
	if len(code) >= 4 {
		oilID = code[:4]
	}
	if len(code) >= 7 {
		basisID = code[4:7]
	}
	if len(code) > 0 {
		typeID = code[len(code)-1:]
	}
	return oilID, basisID, typeID
}

// NewTradingResult builds a fully populated record from one normalized report
// row, deriving the id fields from the product code and stamping the trading
// date at day precision.
func NewTradingResult(row report.Row, tradingDate time.Time) *TradingResult {
	oilID, basisID, typeID := ParseProductID(row.ExchangeProductID)

	return &TradingResult{
		ExchangeProductID:   row.ExchangeProductID,
		ExchangeProductName: row.ExchangeProductName,
		OilID:               oilID,
		DeliveryBasisID:     basisID,
		DeliveryBasisName:   row.DeliveryBasisName,
		DeliveryTypeID:      typeID,
		Volume:              row.Volume,
		Total:               row.Total,
		Count:               row.Count,
		TradingDate:         DateOnly(tradingDate),
	}
}

// DateOnly truncates a timestamp to its calendar date in UTC. Trading dates
// are stored at this precision so grouping and equality behave across the
// driver round-trip.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filters narrows trading result queries. Zero values impose no constraint.
type Filters struct {
	OilID           string `form:"oil_id"`
	DeliveryTypeID  string `form:"delivery_type_id"`
	DeliveryBasisID string `form:"delivery_basis_id"`
	Limit           int    `form:"limit"`
	Offset          int    `form:"offset"`
}
