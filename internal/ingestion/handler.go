package ingestion

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httperr "github.com/revlens-lab/project-revlens/internal/core/errors"
	"github.com/revlens-lab/project-revlens/internal/core/storage"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// salesRequest is the wire shape of a sales record submission.
type salesRequest struct {
	Date    string          `json:"date" binding:"required"`
	Revenue decimal.Decimal `json:"revenue"`
	AdSpend decimal.Decimal `json:"ad_spend"`
	StoreID int64           `json:"store_id" binding:"required"`
	UserID  int64           `json:"user_id" binding:"required"`
}

// salesResponse mirrors the stored record with the date flattened back to
// its calendar form.
type salesResponse struct {
	ID      int64           `json:"id"`
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	AdSpend decimal.Decimal `json:"ad_spend"`
	StoreID int64           `json:"store_id"`
	UserID  int64           `json:"user_id"`
}

func toSalesResponse(r *storage.SalesRecord) salesResponse {
	return salesResponse{
		ID:      r.ID,
		Date:    r.Date.Format(dateLayout),
		Revenue: r.Revenue,
		AdSpend: r.AdSpend,
		StoreID: r.StoreID,
		UserID:  r.UserID,
	}
}

// RegisterRoutes registers the read endpoints on r and the authenticated
// write endpoint on protected. The fake-data generator stays open: it exists
// for demos and smoke tests against empty environments.
func (s *Service) RegisterRoutes(r gin.IRouter, protected gin.IRouter) {
	protected.POST("/v1/sales-data", s.HandleCreateSale)
	r.GET("/v1/sales-data", s.HandleListSales)
	r.POST("/v1/sales-data/generate-fake", s.HandleGenerateFake)
}

// HandleCreateSale handles POST /v1/sales-data
func (s *Service) HandleCreateSale(c *gin.Context) {
	var req salesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
			Details:   err.Error(),
		})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "date must be formatted as YYYY-MM-DD",
		})
		return
	}

	record, err := s.RecordSale(c.Request.Context(), SalesInput{
		Date:    date,
		Revenue: req.Revenue,
		AdSpend: req.AdSpend,
		StoreID: req.StoreID,
		UserID:  req.UserID,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpValidationError,
				Message:   err.Error(),
			})
			return
		}
		slog.Error("Failed to persist sales record", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to persist sales record",
		})
		return
	}

	c.JSON(http.StatusCreated, toSalesResponse(record))
}

// HandleListSales handles GET /v1/sales-data
func (s *Service) HandleListSales(c *gin.Context) {
	records, err := s.ListSales(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list sales records", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to list sales records",
		})
		return
	}

	out := make([]salesResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toSalesResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

// HandleGenerateFake handles POST /v1/sales-data/generate-fake?count=n
func (s *Service) HandleGenerateFake(c *gin.Context) {
	var query struct {
		Count int `form:"count"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}
	if query.Count <= 0 {
		query.Count = 10
	}

	records, err := s.GenerateFake(c.Request.Context(), query.Count)
	if err != nil {
		slog.Error("Failed to generate fake sales data", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to generate fake sales data",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Fake sales data generated",
		"count":   len(records),
	})
}
