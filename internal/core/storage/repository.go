package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Revenue amounts serialize as bare JSON numbers, both on the API and in
// cached aggregate payloads. Set here so every package carrying these types
// shares one wire shape.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrDuplicateEmail is returned when a user with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// SalesRecord is an immutable sales fact. Created once on ingestion, never
// mutated or deleted by the service.
type SalesRecord struct {
	ID      int64           `json:"id"`
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	AdSpend decimal.Decimal `json:"ad_spend"`
	StoreID int64           `json:"store_id"`
	UserID  int64           `json:"user_id"`
}

// RevenueTotals holds the sums of revenue and ad spend over all records.
type RevenueTotals struct {
	Revenue decimal.Decimal
	AdSpend decimal.Decimal
}

// UserRevenue is one row of the top-users-by-revenue ranking.
type UserRevenue struct {
	UserID  int64
	Email   string
	Revenue decimal.Decimal
}

// UserTotals carries per-user revenue and ad spend for the ETL pipeline.
type UserTotals struct {
	UserID  int64
	Revenue decimal.Decimal
	AdSpend decimal.Decimal
}

// MonthlyTotals carries revenue and ad spend summed over one calendar month.
// Month is the first day of the month in UTC.
type MonthlyTotals struct {
	Month   time.Time
	Revenue decimal.Decimal
	AdSpend decimal.Decimal
}

// SalesStore defines the interface for storing and aggregating sales records.
type SalesStore interface {
	// InsertSale appends one record and populates record.ID.
	InsertSale(ctx context.Context, record *SalesRecord) error

	// InsertSalesBatch appends all records in a single transaction.
	InsertSalesBatch(ctx context.Context, records []*SalesRecord) error

	ListSales(ctx context.Context) ([]*SalesRecord, error)

	// AggregateRevenueAndSpend sums revenue and ad spend over all records.
	// An empty table yields zero totals, not an error.
	AggregateRevenueAndSpend(ctx context.Context) (RevenueTotals, error)

	// TopUsersByRevenue ranks users by summed revenue, descending. Ties break
	// on user id ascending so repeated computations are deterministic.
	TopUsersByRevenue(ctx context.Context, limit int) ([]UserRevenue, error)

	// TopUsersWithSpend is the ETL variant of the ranking, carrying ad spend.
	TopUsersWithSpend(ctx context.Context, limit int) ([]UserTotals, error)

	// MonthlyRevenueAndSpend groups totals by calendar month, ascending.
	MonthlyRevenueAndSpend(ctx context.Context) ([]MonthlyTotals, error)

	// AverageDailyRevenue averages per-day revenue sums over days with data.
	AverageDailyRevenue(ctx context.Context) (decimal.Decimal, error)

	CountAll(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)

	// InsertStore creates a store row owned by a user. Used by the synthetic
	// data generator; real stores arrive through out-of-band provisioning.
	InsertStore(ctx context.Context, name string, ownerID int64) (int64, error)
}

// User is an account that can authenticate and own sales records.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
}

// UserStore defines the interface for user persistence.
type UserStore interface {
	// CreateUser inserts a user. Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, email, hashedPassword string) (*User, error)

	// GetUserByEmail returns ErrUserNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CountUsers(ctx context.Context) (int64, error)
}
