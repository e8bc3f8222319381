// Package ingestion appends sales records to the store and keeps the cached
// aggregates from drifting unboundedly stale by invalidating them on writes.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/revlens-lab/project-revlens/internal/core/storage"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks a record rejected before the store is touched.
var ErrInvalidInput = errors.New("invalid sales record input")

// AggregateInvalidator deletes every cached aggregate a write could stale.
// The analytics service implements it; this package never constructs or
// interprets the cached payloads themselves.
type AggregateInvalidator interface {
	Invalidate(ctx context.Context) error
}

// SalesInput is a candidate record as submitted by a client.
type SalesInput struct {
	Date    time.Time
	Revenue decimal.Decimal
	AdSpend decimal.Decimal
	StoreID int64
	UserID  int64
}

// Validate rejects constraint violations before any store round-trip.
func (in SalesInput) Validate() error {
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if in.Revenue.IsNegative() {
		return fmt.Errorf("%w: revenue must be >= 0", ErrInvalidInput)
	}
	if in.AdSpend.IsNegative() {
		return fmt.Errorf("%w: ad_spend must be >= 0", ErrInvalidInput)
	}
	if in.StoreID <= 0 {
		return fmt.Errorf("%w: store_id is required", ErrInvalidInput)
	}
	if in.UserID <= 0 {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return nil
}

// Service is the ingestion path: durable append first, cache invalidation
// second. A failed invalidation never rolls back the committed write.
type Service struct {
	store       storage.SalesStore
	users       storage.UserStore
	invalidator AggregateInvalidator
}

func NewService(store storage.SalesStore, users storage.UserStore, invalidator AggregateInvalidator) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if users == nil {
		panic("ingestion: user store must not be nil")
	}
	if invalidator == nil {
		panic("ingestion: invalidator must not be nil")
	}
	return &Service{
		store:       store,
		users:       users,
		invalidator: invalidator,
	}
}

// RecordSale validates the candidate, appends it to the store, then
// invalidates the cached aggregates. The record is durable even if the
// invalidation fails; stale cache entries linger at most until TTL expiry.
func (s *Service) RecordSale(ctx context.Context, in SalesInput) (*storage.SalesRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	record := &storage.SalesRecord{
		Date:    in.Date,
		Revenue: in.Revenue,
		AdSpend: in.AdSpend,
		StoreID: in.StoreID,
		UserID:  in.UserID,
	}
	if err := s.store.InsertSale(ctx, record); err != nil {
		return nil, fmt.Errorf("persist sales record: %w", err)
	}

	s.invalidate(ctx, "record_sale")

	slog.Info("Recorded sale",
		"id", record.ID,
		"user_id", record.UserID,
		"store_id", record.StoreID,
		"date", record.Date.Format("2006-01-02"))
	return record, nil
}

// ListSales returns all stored sales records.
func (s *Service) ListSales(ctx context.Context) ([]*storage.SalesRecord, error) {
	return s.store.ListSales(ctx)
}

// GenerateFake inserts count synthetic sales records under a freshly created
// demo user and store, in one transaction, then invalidates the aggregates
// once for the whole batch.
func (s *Service) GenerateFake(ctx context.Context, count int) ([]*storage.SalesRecord, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be > 0", ErrInvalidInput)
	}

	tag := uuid.New().String()[:8]
	user, err := s.users.CreateUser(ctx, fmt.Sprintf("demo-%s@example.com", tag), "!demo-no-login")
	if err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}
	storeID, err := s.store.InsertStore(ctx, fmt.Sprintf("Demo Store %s", tag), user.ID)
	if err != nil {
		return nil, fmt.Errorf("create demo store: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	records := make([]*storage.SalesRecord, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, &storage.SalesRecord{
			Date:    today.AddDate(0, 0, -rand.Intn(90)),
			Revenue: decimal.NewFromFloat(100 + rand.Float64()*9900).Round(2),
			AdSpend: decimal.NewFromFloat(10 + rand.Float64()*990).Round(2),
			StoreID: storeID,
			UserID:  user.ID,
		})
	}

	if err := s.store.InsertSalesBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("persist fake sales batch: %w", err)
	}

	s.invalidate(ctx, "generate_fake")

	slog.Info("Generated fake sales data", "count", count, "user_id", user.ID, "store_id", storeID)
	return records, nil
}

// invalidate drops the cached aggregates after a committed write. Failure is
// logged and swallowed: durability of the write takes priority over cache
// freshness, and TTL expiry bounds the staleness window.
func (s *Service) invalidate(ctx context.Context, op string) {
	if err := s.invalidator.Invalidate(ctx); err != nil {
		slog.Warn("Cache invalidation failed after committed write", "op", op, "error", err)
	}
}
