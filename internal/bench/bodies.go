// Package bench provides synthetic task bodies for the demo binary and
// end-to-end tests, standing in for the real training/inference calls.
package bench

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/podushkina/schedcore/internal/task"
)

// Succeed returns result immediately.
func Succeed(result string) task.Body {
	return func(ctx context.Context) (any, error) {
		return result, nil
	}
}

// FailAlways fails on every attempt.
func FailAlways(msg string) task.Body {
	return func(ctx context.Context) (any, error) {
		return nil, errors.New(msg)
	}
}

// FailTimes fails the first n attempts, then succeeds.
func FailTimes(n int, result string) task.Body {
	var attempts atomic.Int64
	return func(ctx context.Context) (any, error) {
		if attempts.Add(1) <= int64(n) {
			return nil, errors.Errorf("transient failure %d of %d", attempts.Load(), n)
		}
		return result, nil
	}
}

// Sleeper blocks for d or until the context is cancelled.
func Sleeper(d time.Duration) task.Body {
	return func(ctx context.Context) (any, error) {
		select {
		case <-time.After(d):
			return "slept", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Busywork burns CPU in short slices, checking the context between
// them. It approximates a training step without a toolbox behind it.
func Busywork(iterations int) task.Body {
	return func(ctx context.Context) (any, error) {
		sum := 0.0
		for i := 0; i < iterations; i++ {
			if i%1024 == 0 && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			sum += float64(i%7) * 1.0001
		}
		return sum, nil
	}
}
