package etl

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyThenOnTicks(t *testing.T) {
	var runs atomic.Int64
	s := NewScheduler("test", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond, "expected an immediate run plus ticks")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}

func TestScheduler_FailedRunDoesNotStopSchedule(t *testing.T) {
	var runs atomic.Int64
	s := NewScheduler("flaky", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return context.DeadlineExceeded
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 2 },
		time.Second, 5*time.Millisecond, "a failed run must not stop the schedule")
}
