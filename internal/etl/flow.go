// Package etl runs the scheduled analytics pipeline: extract sales totals
// from the store, transform them into report-grade metrics, and load the
// results into longer-lived cache entries, separate from the request-path
// read-through keys.
package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/revlens-lab/project-revlens/internal/cache"
	"github.com/revlens-lab/project-revlens/internal/core/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Cache keys for pipeline-computed aggregates. Kept apart from the
// request-path keys so a pipeline run never disturbs the read-through policy.
const (
	KeySummaryETL    = "analytics:summary_etl"
	KeyMonthlyTrends = "analytics:monthly_trends"
	KeyTopUsersETL   = "analytics:top_users_etl"
)

// DefaultCacheTTL is the lifetime of pipeline-computed entries. The pipeline
// reruns well inside this window, so expiry only matters when it stops.
const DefaultCacheTTL = time.Hour

// DefaultTopUsersLimit is the ranking depth of the pipeline's top-users view.
const DefaultTopUsersLimit = 10

// OverallMetrics is the pipeline's global aggregate.
type OverallMetrics struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalAdSpend    decimal.Decimal `json:"total_ad_spend"`
	Roas            decimal.Decimal `json:"roas"`
	AvgDailyRevenue decimal.Decimal `json:"avg_daily_revenue"`
}

// MonthlyTrend is one calendar month of revenue and spend.
type MonthlyTrend struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	AdSpend decimal.Decimal `json:"ad_spend"`
	Roas    decimal.Decimal `json:"roas"`
}

// TopUserMetrics is one row of the pipeline's top-users ranking.
type TopUserMetrics struct {
	UserID  int64           `json:"user_id"`
	Revenue decimal.Decimal `json:"revenue"`
	AdSpend decimal.Decimal `json:"ad_spend"`
	Roas    decimal.Decimal `json:"roas"`
}

// Report is the human-readable digest built from one pipeline run.
type Report struct {
	ReportDate      string         `json:"report_date"`
	Summary         OverallMetrics `json:"summary"`
	Insights        []string       `json:"insights"`
	Recommendations []string       `json:"recommendations"`
}

// DailyResult summarizes one completed pipeline run.
type DailyResult struct {
	RunID            string `json:"run_id"`
	ProcessedRecords int64  `json:"processed_records"`
	CachedItems      int    `json:"cached_items"`
	Report           Report `json:"report"`
}

// DailyFlow is the extract-transform-load pipeline over the sales store.
type DailyFlow struct {
	store    storage.SalesStore
	cache    cache.Cache
	ttl      time.Duration
	topLimit int
}

func NewDailyFlow(store storage.SalesStore, c cache.Cache, ttl time.Duration, topLimit int) *DailyFlow {
	if store == nil {
		panic("etl: store must not be nil")
	}
	if c == nil {
		panic("etl: cache must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if topLimit <= 0 {
		topLimit = DefaultTopUsersLimit
	}
	return &DailyFlow{
		store:    store,
		cache:    c,
		ttl:      ttl,
		topLimit: topLimit,
	}
}

// Run executes one full pipeline pass. Unlike the read path, a cache load
// failure here fails the run: the pipeline exists to populate these entries.
func (f *DailyFlow) Run(ctx context.Context) (*DailyResult, error) {
	runID := uuid.New().String()
	started := time.Now()
	slog.Info("[ETL] Starting daily analytics flow", "run_id", runID)

	var (
		count   int64
		totals  storage.RevenueTotals
		avg     decimal.Decimal
		months  []storage.MonthlyTotals
		topRows []storage.UserTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		count, err = f.store.CountAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		totals, err = f.store.AggregateRevenueAndSpend(gctx)
		return err
	})
	g.Go(func() (err error) {
		avg, err = f.store.AverageDailyRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		months, err = f.store.MonthlyRevenueAndSpend(gctx)
		return err
	})
	g.Go(func() (err error) {
		topRows, err = f.store.TopUsersWithSpend(gctx, f.topLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("etl extract: %w", err)
	}

	overall := OverallMetrics{
		TotalRevenue:    totals.Revenue,
		TotalAdSpend:    totals.AdSpend,
		Roas:            roas(totals.Revenue, totals.AdSpend),
		AvgDailyRevenue: avg.Round(2),
	}

	trends := make([]MonthlyTrend, 0, len(months))
	for _, m := range months {
		trends = append(trends, MonthlyTrend{
			Month:   m.Month.Format("2006-01"),
			Revenue: m.Revenue,
			AdSpend: m.AdSpend,
			Roas:    roas(m.Revenue, m.AdSpend),
		})
	}

	topUsers := make([]TopUserMetrics, 0, len(topRows))
	for _, row := range topRows {
		topUsers = append(topUsers, TopUserMetrics{
			UserID:  row.UserID,
			Revenue: row.Revenue.Round(2),
			AdSpend: row.AdSpend.Round(2),
			Roas:    roas(row.Revenue, row.AdSpend),
		})
	}

	cached := 0
	for key, value := range map[string]interface{}{
		KeySummaryETL:    overall,
		KeyMonthlyTrends: trends,
		KeyTopUsersETL:   topUsers,
	} {
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("etl serialize %q: %w", key, err)
		}
		if err := f.cache.Set(ctx, key, payload, f.ttl); err != nil {
			return nil, fmt.Errorf("etl load %q: %w", key, err)
		}
		cached++
	}

	result := &DailyResult{
		RunID:            runID,
		ProcessedRecords: count,
		CachedItems:      cached,
		Report:           buildReport(overall, topUsers),
	}

	slog.Info("[ETL] Daily analytics flow completed",
		"run_id", runID,
		"processed_records", count,
		"cached_items", cached,
		"duration", time.Since(started))
	return result, nil
}

// buildReport derives threshold-based insights from the computed metrics.
func buildReport(overall OverallMetrics, topUsers []TopUserMetrics) Report {
	report := Report{
		ReportDate:      time.Now().UTC().Format("2006-01-02"),
		Summary:         overall,
		Insights:        []string{},
		Recommendations: []string{},
	}

	switch {
	case overall.Roas.GreaterThan(decimal.NewFromInt(3)):
		report.Insights = append(report.Insights, "ROAS above 3.0 threshold")
	case overall.Roas.LessThan(decimal.NewFromInt(1)) && overall.TotalAdSpend.IsPositive():
		report.Insights = append(report.Insights, "ROAS below 1.0: advertising spend exceeds revenue")
	}
	if overall.AvgDailyRevenue.GreaterThan(decimal.NewFromInt(10000)) {
		report.Insights = append(report.Insights, "High average daily revenue")
	}

	if len(topUsers) > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Top user %d generates %s in revenue", topUsers[0].UserID, topUsers[0].Revenue.StringFixed(2)))
	}

	return report
}

// roas computes return on ad spend rounded to 2 decimal places, with the
// same zero-spend guard as the request-path aggregator.
func roas(revenue, adSpend decimal.Decimal) decimal.Decimal {
	if !adSpend.IsPositive() {
		return decimal.Zero
	}
	return revenue.DivRound(adSpend, 2)
}
