package market

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts() BatchOptions {
	return BatchOptions{Concurrency: 3, Delay: time.Millisecond}
}

func TestFetchAll_OrderPreserved(t *testing.T) {
	names := make([]string, 10)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}

	results := FetchAll(context.Background(), names, func(_ context.Context, name string) (string, error) {
		// Skew completion order so later slots finish first.
		n, _ := strconv.Atoi(name)
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		return "v" + name, nil
	}, fastOpts())

	require.Len(t, results, 10)
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("v%d", i), r.Value)
	}
}

func TestFetchAll_FailuresIsolated(t *testing.T) {
	names := make([]string, 10)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}

	results := FetchAll(context.Background(), names, func(_ context.Context, name string) (string, error) {
		if name == "3" || name == "7" {
			return "", eris.Errorf("item %s unavailable", name)
		}
		return "v" + name, nil
	}, fastOpts())

	require.Len(t, results, 10)
	for i, r := range results {
		if i == 3 || i == 7 {
			assert.True(t, r.Failed(), "slot %d should have failed", i)
			continue
		}
		require.NoError(t, r.Err, "slot %d", i)
		assert.Equal(t, fmt.Sprintf("v%d", i), r.Value)
	}
}

func TestFetchAll_ConcurrencyCeiling(t *testing.T) {
	var inFlight, peak atomic.Int64

	names := make([]string, 50)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}

	results := FetchAll(context.Background(), names, func(_ context.Context, _ string) (int, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	}, fastOpts())

	require.Len(t, results, 50)
	assert.LessOrEqual(t, peak.Load(), int64(3), "more than 3 calls in flight")
	assert.Positive(t, peak.Load())
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := FetchAll(ctx, []string{"a", "b"}, func(ctx context.Context, _ string) (int, error) {
		return 1, nil
	}, BatchOptions{Concurrency: 1, Delay: 50 * time.Millisecond})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestFetchAll_Empty(t *testing.T) {
	results := FetchAll(context.Background(), nil, func(_ context.Context, _ string) (int, error) {
		t.Fatal("must not be called")
		return 0, nil
	}, fastOpts())
	assert.Empty(t, results)
}
