package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/revlens-lab/project-revlens/internal/cache"
	"github.com/revlens-lab/project-revlens/internal/core/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSummary_EmptyStoreYieldsZeros(t *testing.T) {
	store := &fakeSalesStore{}
	svc := New(store, cache.NewMemory(), time.Minute, 3)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, summary.TotalRevenue.IsZero())
	require.True(t, summary.TotalAdSpend.IsZero())
	require.True(t, summary.Roas.IsZero())
}

func TestSummary_IdempotentRecomputation(t *testing.T) {
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.RequireFromString("300.00"),
			AdSpend: decimal.RequireFromString("100.00"),
		},
	}
	mem := cache.NewMemory()
	svc := New(store, mem, time.Minute, 3)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)

	// Clear the entry between calls; each recomputation must agree.
	for i := 0; i < 3; i++ {
		require.NoError(t, mem.Delete(ctx, KeySummary))
		again, err := svc.Summary(ctx)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	require.Equal(t, 4, store.aggCalls)
}

func TestSummary_CacheHitShortCircuitsStore(t *testing.T) {
	// The store holds different numbers than the cache; a hit must be
	// returned as-is with no re-validation.
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.NewFromInt(999),
			AdSpend: decimal.NewFromInt(999),
		},
	}
	mem := cache.NewMemory()
	ctx := context.Background()

	seeded, err := json.Marshal(Summary{
		TotalRevenue: decimal.NewFromInt(100),
		TotalAdSpend: decimal.NewFromInt(50),
		Roas:         decimal.RequireFromString("2.0"),
	})
	require.NoError(t, err)
	require.NoError(t, mem.Set(ctx, KeySummary, seeded, time.Minute))

	svc := New(store, mem, time.Minute, 3)
	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(100)))
	require.True(t, summary.TotalAdSpend.Equal(decimal.NewFromInt(50)))
	require.True(t, summary.Roas.Equal(decimal.RequireFromString("2.0")))
	require.Equal(t, 0, store.aggCalls)
}

func TestSummary_MissRepopulatesCacheExactlyOnce(t *testing.T) {
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.NewFromInt(200),
			AdSpend: decimal.NewFromInt(40),
		},
	}
	mem := cache.NewMemory()
	counting := &countingCache{Cache: mem}
	svc := New(store, counting, time.Minute, 3)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counting.sets, "miss writes the cache exactly once")

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counting.sets, "hit must not write the cache")
	require.Equal(t, 1, store.aggCalls)
}

func TestSummary_ClearedEntryTriggersRecompute(t *testing.T) {
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.NewFromInt(100),
			AdSpend: decimal.NewFromInt(10),
		},
	}
	mem := cache.NewMemory()
	svc := New(store, mem, time.Minute, 3)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)

	// New data lands and the entry is invalidated: the next read must
	// reflect the store, not the dropped entry.
	store.totals.Revenue = decimal.NewFromInt(1100)
	store.totals.AdSpend = decimal.NewFromInt(110)
	require.NoError(t, svc.Invalidate(ctx))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(1100)))
	require.Equal(t, 2, store.aggCalls)
}

func TestSummary_RoasZeroDivisionGuard(t *testing.T) {
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.NewFromInt(500),
			AdSpend: decimal.Zero,
		},
	}
	svc := New(store, cache.NewMemory(), time.Minute, 3)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, summary.Roas.IsZero())
}

func TestSummary_RoasRoundedToTwoDecimals(t *testing.T) {
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.NewFromInt(1000),
			AdSpend: decimal.NewFromInt(300),
		},
	}
	svc := New(store, cache.NewMemory(), time.Minute, 3)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, "3.33", summary.Roas.String())
}

func TestSummary_StoreFailureLeavesCacheUntouched(t *testing.T) {
	store := &fakeSalesStore{err: errors.New("connection refused")}
	mem := cache.NewMemory()
	counting := &countingCache{Cache: mem}
	svc := New(store, counting, time.Minute, 3)

	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	require.Equal(t, 0, counting.sets)
}

func TestSummary_CacheOutageBypassesToStore(t *testing.T) {
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.NewFromInt(50),
			AdSpend: decimal.NewFromInt(25),
		},
	}
	down := &downCache{}
	svc := New(store, down, time.Minute, 3)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(50)))
	require.Equal(t, 0, down.sets, "no repopulate attempt against a dead cache")
}

func TestSummary_CorruptEntryIsRecomputedOver(t *testing.T) {
	store := &fakeSalesStore{
		totals: storage.RevenueTotals{
			Revenue: decimal.NewFromInt(10),
			AdSpend: decimal.NewFromInt(5),
		},
	}
	mem := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, KeySummary, []byte("{not json"), time.Minute))

	svc := New(store, mem, time.Minute, 3)
	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(10)))

	// The corrupt payload was overwritten with the fresh value.
	payload, err := mem.Get(ctx, KeySummary)
	require.NoError(t, err)
	var cached Summary
	require.NoError(t, json.Unmarshal(payload, &cached))
	require.True(t, cached.TotalRevenue.Equal(decimal.NewFromInt(10)))
}

func TestTopUsers_OrderingAndRounding(t *testing.T) {
	store := &fakeSalesStore{
		topUsers: []storage.UserRevenue{
			{UserID: 1, Email: "a@example.com", Revenue: decimal.RequireFromString("1234.567")},
			{UserID: 2, Email: "b@example.com", Revenue: decimal.RequireFromString("1234.561")},
		},
	}
	svc := New(store, cache.NewMemory(), time.Minute, 3)

	users, err := svc.TopUsers(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "a@example.com", users[0].Email)
	require.Equal(t, "1234.57", users[0].TotalRevenue.String())
	require.Equal(t, "b@example.com", users[1].Email)
	require.Equal(t, "1234.56", users[1].TotalRevenue.String())
	require.Equal(t, 2, store.topLimit)
}

func TestTopUsers_DefaultLimit(t *testing.T) {
	store := &fakeSalesStore{}
	svc := New(store, cache.NewMemory(), time.Minute, 3)

	_, err := svc.TopUsers(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 3, store.topLimit)
}

func TestTopUsers_FixedKeyIgnoresLimitOnHit(t *testing.T) {
	// The cache key does not vary by limit: a populated entry answers any
	// requested limit until it expires or is invalidated.
	store := &fakeSalesStore{
		topUsers: []storage.UserRevenue{
			{UserID: 1, Email: "a@example.com", Revenue: decimal.NewFromInt(10)},
			{UserID: 2, Email: "b@example.com", Revenue: decimal.NewFromInt(5)},
		},
	}
	svc := New(store, cache.NewMemory(), time.Minute, 3)
	ctx := context.Background()

	first, err := svc.TopUsers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.TopUsers(ctx, 5)
	require.NoError(t, err)
	// The cache-hit value round-tripped through JSON, so decimal internals
	// may differ in exponent. Compare numerically, not structurally.
	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].UserID, second[i].UserID)
		require.Equal(t, first[i].Email, second[i].Email)
		require.True(t, first[i].TotalRevenue.Equal(second[i].TotalRevenue))
	}
	require.Equal(t, 1, store.topCalls)
}

// fakeSalesStore implements storage.SalesStore with canned answers for the
// aggregate queries the analytics service uses.
type fakeSalesStore struct {
	totals   storage.RevenueTotals
	topUsers []storage.UserRevenue
	err      error

	aggCalls int
	topCalls int
	topLimit int
}

func (f *fakeSalesStore) AggregateRevenueAndSpend(ctx context.Context) (storage.RevenueTotals, error) {
	f.aggCalls++
	if f.err != nil {
		return storage.RevenueTotals{}, f.err
	}
	return f.totals, nil
}

func (f *fakeSalesStore) TopUsersByRevenue(ctx context.Context, limit int) ([]storage.UserRevenue, error) {
	f.topCalls++
	f.topLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.topUsers) {
		return f.topUsers[:limit], nil
	}
	return f.topUsers, nil
}

func (f *fakeSalesStore) InsertSale(ctx context.Context, record *storage.SalesRecord) error {
	return f.err
}

func (f *fakeSalesStore) InsertSalesBatch(ctx context.Context, records []*storage.SalesRecord) error {
	return f.err
}

func (f *fakeSalesStore) ListSales(ctx context.Context) ([]*storage.SalesRecord, error) {
	return nil, f.err
}

func (f *fakeSalesStore) TopUsersWithSpend(ctx context.Context, limit int) ([]storage.UserTotals, error) {
	return nil, f.err
}

func (f *fakeSalesStore) MonthlyRevenueAndSpend(ctx context.Context) ([]storage.MonthlyTotals, error) {
	return nil, f.err
}

func (f *fakeSalesStore) AverageDailyRevenue(ctx context.Context) (decimal.Decimal, error) {
	return decimal.Zero, f.err
}

func (f *fakeSalesStore) CountAll(ctx context.Context) (int64, error) {
	return 0, f.err
}

func (f *fakeSalesStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, f.err
}

func (f *fakeSalesStore) InsertStore(ctx context.Context, name string, ownerID int64) (int64, error) {
	return 0, f.err
}

// countingCache wraps a Cache and counts writes.
type countingCache struct {
	cache.Cache
	sets int
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	return c.Cache.Set(ctx, key, value, ttl)
}

// downCache fails every operation, simulating a dead backend.
type downCache struct {
	sets int
}

func (c *downCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("cache: connection refused")
}

func (c *downCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	return errors.New("cache: connection refused")
}

func (c *downCache) Delete(ctx context.Context, keys ...string) error {
	return errors.New("cache: connection refused")
}

func (c *downCache) Ping(ctx context.Context) error {
	return errors.New("cache: connection refused")
}
