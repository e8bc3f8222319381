package etl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/revlens-lab/project-revlens/internal/cache"
	httperr "github.com/revlens-lab/project-revlens/internal/core/errors"
)

// triggerTimeout bounds a manually triggered background flow run.
const triggerTimeout = 5 * time.Minute

// Service exposes the pipeline over HTTP: manual triggers and a read view of
// the pipeline-computed cache entries.
type Service struct {
	daily   *DailyFlow
	quality *QualityFlow
	cache   cache.Cache
}

func NewService(daily *DailyFlow, quality *QualityFlow, c cache.Cache) *Service {
	if daily == nil {
		panic("etl: daily flow must not be nil")
	}
	if quality == nil {
		panic("etl: quality flow must not be nil")
	}
	if c == nil {
		panic("etl: cache must not be nil")
	}
	return &Service{daily: daily, quality: quality, cache: c}
}

// RegisterRoutes registers the pipeline endpoints. The caller wraps the
// group with auth middleware.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/etl/flows", s.HandleListFlows)
	r.POST("/v1/etl/flows/daily/run", s.HandleRunDaily)
	r.POST("/v1/etl/flows/quality/run", s.HandleRunQuality)
	r.GET("/v1/etl/analytics", s.HandleCachedAnalytics)
}

// HandleListFlows handles GET /v1/etl/flows
func (s *Service) HandleListFlows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"flows": []gin.H{
			{
				"name":        "daily_analytics",
				"description": "Daily analytics pipeline: aggregate, trend, and top-user metrics",
				"cache_keys":  []string{KeySummaryETL, KeyMonthlyTrends, KeyTopUsersETL},
				"trigger":     "/v1/etl/flows/daily/run",
			},
			{
				"name":        "data_quality",
				"description": "Data consistency and freshness check",
				"trigger":     "/v1/etl/flows/quality/run",
			},
		},
	})
}

// HandleRunDaily handles POST /v1/etl/flows/daily/run
// The flow runs in the background; the response acknowledges the trigger.
func (s *Service) HandleRunDaily(c *gin.Context) {
	triggerID := uuid.New().String()
	slog.Info("[ETL] Manual trigger of daily flow", "trigger_id", triggerID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
		defer cancel()
		if _, err := s.daily.Run(ctx); err != nil {
			slog.Error("[ETL] Manually triggered daily flow failed", "trigger_id", triggerID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "Daily analytics flow triggered",
		"trigger_id":   triggerID,
		"triggered_at": time.Now().UTC().Format(time.RFC3339),
		"status":       "running",
	})
}

// HandleRunQuality handles POST /v1/etl/flows/quality/run
// The check is quick, so it runs synchronously and returns its metrics.
func (s *Service) HandleRunQuality(c *gin.Context) {
	metrics, err := s.quality.Run(c.Request.Context())
	if err != nil {
		slog.Error("[ETL] Data quality check failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Data quality check failed",
		})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// HandleCachedAnalytics handles GET /v1/etl/analytics
// Returns whichever pipeline-computed entries are currently cached.
func (s *Service) HandleCachedAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{}

	for field, key := range map[string]string{
		"summary":        KeySummaryETL,
		"monthly_trends": KeyMonthlyTrends,
		"top_users":      KeyTopUsersETL,
	} {
		payload, err := s.cache.Get(ctx, key)
		if errors.Is(err, cache.ErrMiss) {
			continue
		}
		if err != nil {
			slog.Error("[ETL] Failed to read cached analytics", "key", key, "error", err)
			c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Cache unavailable",
			})
			return
		}
		out[field] = json.RawMessage(payload)
	}

	if len(out) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":    "No cached analytics data found",
			"suggestion": "Trigger the daily flow to generate analytics data",
		})
		return
	}

	c.JSON(http.StatusOK, out)
}
