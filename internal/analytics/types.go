package analytics

import "github.com/shopspring/decimal"

// Summary is the global revenue/ad-spend aggregate. It is derived data,
// always recomputable from the full set of sales records; the cached copy is
// never a source of truth. Field names match the cached JSON payload so
// entries stay inspectable in the cache backend.
type Summary struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalAdSpend decimal.Decimal `json:"total_ad_spend"`
	Roas         decimal.Decimal `json:"roas"`
}

// TopUser is one row of the top-users-by-revenue ranking.
type TopUser struct {
	UserID       int64           `json:"user_id"`
	Email        string          `json:"email"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
