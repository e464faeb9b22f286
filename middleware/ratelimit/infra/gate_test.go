package infra

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"document-submitter/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acquireWithin(g domain.PermitGate, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return g.Acquire(ctx)
}

func TestNewRateGate_RejectsInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name     string
		capacity int
		window   time.Duration
	}{
		{"zero capacity", 0, time.Second},
		{"negative capacity", -3, time.Second},
		{"zero window", 1, 0},
		{"negative window", 1, -time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewRateGate(tc.capacity, tc.window)
			require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			assert.Nil(t, g)
		})
	}
}

func TestRateGate_CapacityAcquiresThenBlocks(t *testing.T) {
	g, err := NewRateGate(3, time.Hour)
	require.NoError(t, err)
	defer g.Shutdown()

	require.Equal(t, 3, g.Available())
	for i := 0; i < 3; i++ {
		require.NoError(t, acquireWithin(g, 50*time.Millisecond), "acquire %d", i+1)
	}
	assert.Equal(t, 0, g.Available())

	err = acquireWithin(g, 50*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrCancelled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, g.Available())
}

func TestRateGate_RefillResetsToFullCapacity(t *testing.T) {
	g, err := NewRateGate(3, 150*time.Millisecond)
	require.NoError(t, err)
	defer g.Shutdown()

	for i := 0; i < 3; i++ {
		require.True(t, g.TryAcquire())
	}
	require.False(t, g.TryAcquire())

	require.Eventually(t, func() bool { return g.Refills() >= 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, g.TryAcquire(), "acquire %d after refill", i+1)
	}
}

func TestRateGate_RefillDoesNotExceedCapacity(t *testing.T) {
	g, err := NewRateGate(4, 30*time.Millisecond)
	require.NoError(t, err)
	defer g.Shutdown()

	require.True(t, g.TryAcquire())
	require.Eventually(t, func() bool { return g.Refills() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 4, g.Available())
}

func TestRateGate_BlockedAcquireSucceedsAfterTick(t *testing.T) {
	g, err := NewRateGate(3, 300*time.Millisecond)
	require.NoError(t, err)
	defer g.Shutdown()

	for i := 0; i < 3; i++ {
		require.True(t, g.TryAcquire())
	}

	done := make(chan error, 1)
	go func() { done <- acquireWithin(g, 2*time.Second) }()

	select {
	case err := <-done:
		t.Fatalf("fourth acquire should block until the refill, returned %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("fourth acquire did not complete after refill")
	}

	// reset-to-full: o quarto consumiu uma das 3, sobram 2
	assert.True(t, g.TryAcquire())
	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())
}

func TestRateGate_CancelledAcquireDoesNotConsume(t *testing.T) {
	g, err := NewRateGate(2, time.Hour)
	require.NoError(t, err)
	defer g.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = g.Acquire(ctx)
	require.ErrorIs(t, err, domain.ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, g.Available())
}

func TestRateGate_CancelledWaiterLeavesPermitForOthers(t *testing.T) {
	g, err := NewRateGate(1, 200*time.Millisecond)
	require.NoError(t, err)
	defer g.Shutdown()

	require.True(t, g.TryAcquire())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() { errA <- g.Acquire(ctxA) }()

	errB := make(chan error, 1)
	go func() { errB <- acquireWithin(g, 2*time.Second) }()

	time.Sleep(20 * time.Millisecond)
	cancelA()
	require.ErrorIs(t, <-errA, domain.ErrCancelled)

	select {
	case err := <-errB:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("waiter B never got the refilled permit")
	}
	assert.Equal(t, 0, g.Available())
}

func TestRateGate_ConcurrentAcquiresBoundedByCapacity(t *testing.T) {
	const capacity = 5
	g, err := NewRateGate(capacity, time.Hour)
	require.NoError(t, err)
	defer g.Shutdown()

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := acquireWithin(g, 100*time.Millisecond); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, domain.ErrCancelled) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(capacity), ok.Load())
	assert.Equal(t, 0, g.Available())
}

func TestRateGate_ShutdownStopsRefill(t *testing.T) {
	g, err := NewRateGate(2, 40*time.Millisecond)
	require.NoError(t, err)

	g.Shutdown()
	g.Shutdown() // idempotente
	assert.True(t, g.NextRefill().IsZero())

	require.NoError(t, acquireWithin(g, 50*time.Millisecond))
	require.NoError(t, acquireWithin(g, 50*time.Millisecond))

	refills := g.Refills()
	err = acquireWithin(g, 300*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, refills, g.Refills())
	assert.Equal(t, 0, g.Available())
}

func TestRateGate_NextRefillIsAboutOneWindowAhead(t *testing.T) {
	g, err := NewRateGate(1, time.Minute)
	require.NoError(t, err)
	defer g.Shutdown()

	assert.WithinDuration(t, time.Now().Add(time.Minute), g.NextRefill(), time.Second)
}

func TestRateGate_RecordsMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	g, err := NewRateGate(2, time.Hour, WithMetrics(m))
	require.NoError(t, err)
	defer g.Shutdown()

	require.True(t, g.TryAcquire())
	require.NoError(t, acquireWithin(g, 50*time.Millisecond))
	require.Error(t, acquireWithin(g, 20*time.Millisecond))
	require.False(t, g.TryAcquire())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.acquires.WithLabelValues(resultAcquired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.acquires.WithLabelValues(resultCancelled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.acquires.WithLabelValues(resultRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.available))
}

func TestRateGate_RefillUpdatesMetrics(t *testing.T) {
	m := NewMetrics(nil)
	g, err := NewRateGate(2, 30*time.Millisecond, WithMetrics(m))
	require.NoError(t, err)
	defer g.Shutdown()

	require.True(t, g.TryAcquire())
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.refills) >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.available))
}
