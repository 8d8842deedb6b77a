package trading

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ValeriyaDzh/spimex-api/pkg/response"
)

const dateLayout = "2006-01-02"

// Ingester triggers report ingestion for every trading day since the given
// date. Implemented by the ingest package.
type Ingester interface {
	Ingest(ctx context.Context, since time.Time) error
}

// Service exposes read-only queries over persisted trading results.
type Service struct {
	db *Database
}

// NewService creates a new trading query service with the given database
// connection.
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// LastTradingDates returns up to days distinct trading dates, most recent
// first.
func (s *Service) LastTradingDates(days int) ([]time.Time, error) {
	return s.db.LastTradingDates(days)
}

// FilteredLatest returns the filtered records of the most recent trading
// date. An empty store yields an empty result, not an error.
func (s *Service) FilteredLatest(filters Filters) ([]TradingResult, error) {
	return s.db.FilteredLatest(filters)
}

// Dynamics returns filtered records over an inclusive date range.
func (s *Service) Dynamics(startDate, endDate time.Time, filters Filters) ([]TradingResult, error) {
	return s.db.Dynamics(startDate, endDate, filters)
}

// GetResult retrieves a single trading result by its ID.
func (s *Service) GetResult(id string) (*TradingResult, error) {
	return s.db.GetResult(id)
}

// GinHandlers contains HTTP handlers for trading result endpoints
type GinHandlers struct {
	service  *Service
	ingester Ingester
}

// NewGinHandlers creates a new set of HTTP handlers for trading endpoints
func NewGinHandlers(service *Service, ingester Ingester) *GinHandlers {
	return &GinHandlers{
		service:  service,
		ingester: ingester,
	}
}

// IngestHandler handles POST requests to ingest reports for every trading
// day since the given date.
// Query parameter: date (YYYY-MM-DD)
func (h *GinHandlers) IngestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		since, err := time.Parse(dateLayout, c.Query("date"))
		if err != nil {
			response.BadRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}

		if err := h.ingester.Ingest(c.Request.Context(), since); err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, gin.H{"ingested_since": since.Format(dateLayout)})
	}
}

// LastTradingDaysHandler handles GET requests for the most recent distinct
// trading dates.
// Query parameter: days
func (h *GinHandlers) LastTradingDaysHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var params struct {
			Days int `form:"days" binding:"required,gt=0"`
		}
		if err := c.ShouldBindQuery(&params); err != nil {
			response.BadRequest(c, "days must be a positive integer")
			return
		}

		dates, err := h.service.LastTradingDates(params.Days)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		formatted := make([]string, 0, len(dates))
		for _, d := range dates {
			formatted = append(formatted, d.Format(dateLayout))
		}

		response.Success(c, gin.H{"dates": formatted})
	}
}

// TradingResultsHandler handles GET requests for the filtered records of the
// most recent trading date.
// Query parameters: oil_id, delivery_type_id, delivery_basis_id, limit, offset
func (h *GinHandlers) TradingResultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters Filters
		if err := c.ShouldBindQuery(&filters); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		results, err := h.service.FilteredLatest(filters)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, results)
	}
}

// DynamicsHandler handles GET requests for filtered records over a date
// range.
// Query parameters: start, end (YYYY-MM-DD) plus the filter set
func (h *GinHandlers) DynamicsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		startDate, err := time.Parse(dateLayout, c.Query("start"))
		if err != nil {
			response.BadRequest(c, "start must be formatted as YYYY-MM-DD")
			return
		}
		endDate, err := time.Parse(dateLayout, c.Query("end"))
		if err != nil {
			response.BadRequest(c, "end must be formatted as YYYY-MM-DD")
			return
		}

		var filters Filters
		if err := c.ShouldBindQuery(&filters); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		results, err := h.service.Dynamics(startDate, endDate, filters)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, results)
	}
}

// GetResultHandler handles GET requests for a single trading result by ID.
// URL parameter: id
func (h *GinHandlers) GetResultHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			response.BadRequest(c, "id must be a valid UUID")
			return
		}

		result, err := h.service.GetResult(id)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if result == nil {
			response.NotFound(c, "Trading result not found")
			return
		}

		response.Success(c, result)
	}
}
