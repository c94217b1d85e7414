package market

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fan-out defaults: at most 3 in-flight calls, each preceded by a fixed
// pacing delay inside its slot. This is the system's only back-pressure.
const (
	DefaultConcurrency = 3
	DefaultDelay       = 700 * time.Millisecond
)

// Result is one slot of a batch: either a value or that slot's failure.
type Result[T any] struct {
	Value T
	Err   error
}

// Failed reports whether this slot's fetch failed.
func (r Result[T]) Failed() bool { return r.Err != nil }

// BatchOptions tunes the fan-out bounds.
type BatchOptions struct {
	Concurrency int
	Delay       time.Duration
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	return o
}

// FetchAll fans fn out over names under the concurrency ceiling and returns
// one result per input, slot-indexed in input order regardless of completion
// order. Each worker waits the pacing delay before issuing its call. A single
// slot's failure never aborts its siblings; there is no retry, callers skip
// the slot and pick it up on the next run.
func FetchAll[T any](ctx context.Context, names []string, fn func(context.Context, string) (T, error), opts BatchOptions) []Result[T] {
	opts = opts.withDefaults()
	results := make([]Result[T], len(names))

	// A plain group: per-slot errors live in the result slice, so nothing
	// here may cancel the sibling calls.
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, name := range names {
		g.Go(func() error {
			if err := sleepCtx(ctx, opts.Delay); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := fn(ctx, name)
			if err != nil {
				zap.L().Warn("fetch failed, slot skipped",
					zap.String("item", name),
					zap.Int("slot", i),
					zap.Error(err),
				)
				results[i].Err = err
				return nil
			}
			results[i].Value = v
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
