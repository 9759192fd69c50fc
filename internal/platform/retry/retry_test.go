package retry

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instant returns an After that fires immediately and records the delays.
func instant(delays *[]time.Duration) func(time.Duration) <-chan time.Time {
	return func(d time.Duration) <-chan time.Time {
		*delays = append(*delays, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
}

func testConfig(delays *[]time.Duration) Config {
	return Config{
		MaxAttempts:  4,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     250 * time.Millisecond,
		Multiplier:   2,
		After:        instant(delays),
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	calls := 0
	err := Do(context.Background(), testConfig(&delays), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestDo_Exhausted(t *testing.T) {
	var delays []time.Duration
	boom := errors.New("connection refused")
	var retried []int
	cfg := testConfig(&delays)
	cfg.OnRetry = func(attempt int, err error, _ time.Duration) {
		retried = append(retried, attempt)
		assert.ErrorIs(t, err, boom)
	}

	err := Do(context.Background(), cfg, func(context.Context) error { return boom }, nil)

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 4, ex.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2, 3}, retried)
	// capped at MaxDelay
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond}, delays)
}

func TestDo_NotRetryable(t *testing.T) {
	var delays []time.Duration
	permanent := errors.New("bad dsn")
	calls := 0

	err := Do(context.Background(), testConfig(&delays), func(context.Context) error {
		calls++
		return permanent
	}, func(err error) bool { return !errors.Is(err, permanent) })

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var delays []time.Duration
	err := Do(ctx, testConfig(&delays), func(context.Context) error {
		t.Fatal("fn must not run")
		return nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_InvalidConfig(t *testing.T) {
	noop := func(context.Context) error { return nil }
	assert.Error(t, Do(context.Background(), Config{InitialDelay: time.Second}, noop, nil))
	assert.Error(t, Do(context.Background(), Config{MaxAttempts: 1}, noop, nil))
}

func TestDelay_JitterStaysInRange(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
		Jitter:       true,
		Rand:         rand.New(rand.NewSource(1)),
	}
	for attempt := 1; attempt <= 6; attempt++ {
		base := Config{InitialDelay: cfg.InitialDelay, MaxDelay: cfg.MaxDelay, Multiplier: 2}.delay(attempt)
		d := cfg.delay(attempt)
		assert.GreaterOrEqual(t, d, base/2)
		assert.Less(t, d, base)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.True(t, cfg.Jitter)
}
