package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_GetMissingKey(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), "absent")
	require.True(t, errors.Is(err, ErrMiss))
}

func TestMemory_SetAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("payload"), time.Minute))

	value, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), value)
}

func TestMemory_EntryExpiresAfterTTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 60*time.Second))

	clock = clock.Add(59 * time.Second)
	_, err := m.Get(ctx, "k")
	require.NoError(t, err, "entry must survive until the TTL elapses")

	clock = clock.Add(2 * time.Second)
	_, err = m.Get(ctx, "k")
	require.True(t, errors.Is(err, ErrMiss), "entry must expire after the TTL")
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))

	clock = clock.Add(24 * time.Hour)
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)
}

func TestMemory_DeleteMultipleKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

	require.NoError(t, m.Delete(ctx, "a", "b", "missing"))

	_, err := m.Get(ctx, "a")
	require.True(t, errors.Is(err, ErrMiss))
	_, err = m.Get(ctx, "b")
	require.True(t, errors.Is(err, ErrMiss))
	_, err = m.Get(ctx, "c")
	require.NoError(t, err)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("abc"), 0))

	value, err := m.Get(ctx, "k")
	require.NoError(t, err)
	value[0] = 'x'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again)
}
