package analytics

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	httperr "github.com/revlens-lab/project-revlens/internal/core/errors"
)

// RegisterRoutes registers the analytics API routes on the given router.
// The caller decides which middleware (auth) wraps the group.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/analytics/summary", s.HandleSummary)
	r.GET("/v1/analytics/top_users", s.HandleTopUsers)
}

// HandleSummary handles GET /v1/analytics/summary
func (s *Service) HandleSummary(c *gin.Context) {
	summary, err := s.Summary(c.Request.Context())
	if err != nil {
		slog.Error("Failed to compute summary", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to compute analytics summary",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// HandleTopUsers handles GET /v1/analytics/top_users
// Query parameters: limit (optional, positive integer)
func (s *Service) HandleTopUsers(c *gin.Context) {
	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}
	if query.Limit < 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "limit must be a positive integer",
		})
		return
	}

	users, err := s.TopUsers(c.Request.Context(), query.Limit)
	if err != nil {
		slog.Error("Failed to compute top users", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to compute top users",
		})
		return
	}

	c.JSON(http.StatusOK, users)
}
