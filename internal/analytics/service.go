// Package analytics computes the aggregate revenue views and owns the
// cache-key namespace, TTL policy, and serialization contract for them.
//
// Reads are read-through: consult the cache first, fall back to a store
// aggregate query on miss, repopulate the cache with the fresh value.
// Concurrent misses may each recompute and overwrite the key; recomputation
// is idempotent, so last-writer-wins needs no single-flight de-duplication.
//
// Cache outage policy: bypass. When the cache backend is unreachable the read
// computes directly from the store and skips the repopulate; invalidation on
// the write path likewise logs the failure without rolling anything back.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/revlens-lab/project-revlens/internal/cache"
	"github.com/revlens-lab/project-revlens/internal/core/storage"
	"github.com/shopspring/decimal"
)

// Cache keys owned by this package. Writers invalidate through Invalidate;
// they never construct or interpret the payloads stored under these keys.
const (
	KeySummary  = "analytics:summary"
	KeyTopUsers = "analytics:top_users"
)

// DefaultCacheTTL bounds staleness of a cached aggregate.
const DefaultCacheTTL = 60 * time.Second

// DefaultTopUsersLimit applies when a caller does not specify a limit.
const DefaultTopUsersLimit = 3

// Service produces aggregate views over the sales record store, opaque to
// the caller whether served from cache or freshly computed.
type Service struct {
	store    storage.SalesStore
	cache    cache.Cache
	ttl      time.Duration
	topLimit int
}

// New wires the aggregator to its store and cache collaborators.
// Both are externally owned; the service holds no other mutable state.
func New(store storage.SalesStore, c cache.Cache, ttl time.Duration, topLimit int) *Service {
	if store == nil {
		panic("analytics: store must not be nil")
	}
	if c == nil {
		panic("analytics: cache must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if topLimit <= 0 {
		topLimit = DefaultTopUsersLimit
	}
	return &Service{
		store:    store,
		cache:    c,
		ttl:      ttl,
		topLimit: topLimit,
	}
}

// Summary returns the global revenue/ad-spend aggregate.
//
// A cache hit is returned as-is with no re-validation against the store;
// staleness up to the TTL is accepted. A miss runs one aggregate query,
// caches the result for the TTL, and returns it. Store failure propagates
// without touching the cache.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var cached Summary
	hit, usable := s.lookup(ctx, KeySummary, &cached)
	if hit {
		return cached, nil
	}

	totals, err := s.store.AggregateRevenueAndSpend(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("summary aggregate query: %w", err)
	}

	summary := Summary{
		TotalRevenue: totals.Revenue,
		TotalAdSpend: totals.AdSpend,
		Roas:         roas(totals.Revenue, totals.AdSpend),
	}

	if usable {
		s.repopulate(ctx, KeySummary, summary)
	}
	return summary, nil
}

// TopUsers returns up to limit users ranked by summed revenue, descending,
// each revenue rounded to 2 decimal places. A limit <= 0 falls back to the
// configured default.
//
// The cache key is fixed and does not vary by limit: against a populated
// cache, callers receive the result computed for whatever limit was in
// effect at population time.
func (s *Service) TopUsers(ctx context.Context, limit int) ([]TopUser, error) {
	if limit <= 0 {
		limit = s.topLimit
	}

	var cached []TopUser
	hit, usable := s.lookup(ctx, KeyTopUsers, &cached)
	if hit {
		return cached, nil
	}

	rows, err := s.store.TopUsersByRevenue(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top users aggregate query: %w", err)
	}

	users := make([]TopUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, TopUser{
			UserID:       row.UserID,
			Email:        row.Email,
			TotalRevenue: row.Revenue.Round(2),
		})
	}

	if usable {
		s.repopulate(ctx, KeyTopUsers, users)
	}
	return users, nil
}

// Invalidate deletes every aggregate cache entry a write could have staled.
// Both views are invalidated on every write: any insert can change the
// summary and the ranking alike. The next read recomputes.
func (s *Service) Invalidate(ctx context.Context) error {
	if err := s.cache.Delete(ctx, KeySummary, KeyTopUsers); err != nil {
		return fmt.Errorf("invalidate aggregate cache: %w", err)
	}
	return nil
}

// lookup consults the cache for key and deserializes into out.
// hit reports a usable cached value; usable reports whether the cache
// backend answered at all (a repopulate attempt is pointless otherwise).
// A corrupt payload counts as a miss and is recomputed over.
func (s *Service) lookup(ctx context.Context, key string, out interface{}) (hit, usable bool) {
	payload, err := s.cache.Get(ctx, key)
	if err == nil {
		if err := json.Unmarshal(payload, out); err != nil {
			slog.Warn("Discarding corrupt cache entry", "key", key, "error", err)
			return false, true
		}
		slog.Debug("Aggregate cache hit", "key", key)
		return true, true
	}
	if errors.Is(err, cache.ErrMiss) {
		return false, true
	}

	slog.Warn("Cache unreachable, computing directly from store", "key", key, "error", err)
	return false, false
}

// repopulate serializes value and stores it under key for the TTL.
// A failed set is logged, never surfaced: the freshly computed value is
// already in hand and correct.
func (s *Service) repopulate(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Error("Failed to serialize aggregate for cache", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		slog.Warn("Failed to repopulate aggregate cache", "key", key, "error", err)
		return
	}
	slog.Debug("Aggregate cache repopulated", "key", key, "ttl", s.ttl)
}

// roas computes return on ad spend rounded to 2 decimal places.
// Zero ad spend yields zero, not an error and not infinity.
func roas(revenue, adSpend decimal.Decimal) decimal.Decimal {
	if !adSpend.IsPositive() {
		return decimal.Zero
	}
	return revenue.DivRound(adSpend, 2)
}
