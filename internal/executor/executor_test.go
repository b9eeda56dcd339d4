package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podushkina/schedcore/internal/queue"
	"github.com/podushkina/schedcore/internal/task"
)

func submitBody(q *queue.Queue, body task.Body, p task.Priority, maxRetries int, timeout time.Duration) *task.Task {
	t := &task.Task{Body: body, Priority: p, MaxRetries: maxRetries, Timeout: timeout}
	q.Enqueue(t)
	return t
}

func TestDrain_Success(t *testing.T) {
	q := queue.New()
	e := New(q, nil)

	tsk := submitBody(q, func(ctx context.Context) (any, error) {
		return "done", nil
	}, task.PriorityNormal, 3, time.Second)

	res := e.Drain(context.Background())

	require.Len(t, res.Succeeded, 1)
	assert.Empty(t, res.Failed)
	assert.Equal(t, task.StatusCompleted, tsk.Status)
	assert.Equal(t, "done", tsk.Result)
	assert.False(t, tsk.EndTime.IsZero())
}

func TestDrain_RetryBound(t *testing.T) {
	q := queue.New()
	e := New(q, nil)

	var attempts atomic.Int64
	tsk := submitBody(q, func(ctx context.Context) (any, error) {
		attempts.Add(1)
		return nil, errors.New("always fails")
	}, task.PriorityNormal, 2, time.Second)

	res := e.Drain(context.Background())

	// 1 initial attempt + 2 retries.
	assert.EqualValues(t, 3, attempts.Load())
	assert.Equal(t, 2, tsk.Retries)
	assert.Equal(t, task.StatusFailed, tsk.Status)
	require.Len(t, res.Failed, 1)
	assert.True(t, errors.Is(tsk.LastError, task.ErrRetriesExhausted))
}

func TestDrain_FailOnceThenSucceed(t *testing.T) {
	q := queue.New()
	e := New(q, nil)

	var attempts atomic.Int64
	tsk := submitBody(q, func(ctx context.Context) (any, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return 42, nil
	}, task.PriorityNormal, 3, time.Second)

	res := e.Drain(context.Background())

	assert.EqualValues(t, 2, attempts.Load())
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, task.StatusCompleted, tsk.Status)
	assert.Equal(t, 42, tsk.Result)
	assert.Equal(t, 1, tsk.Retries)
}

func TestDrain_TimeoutIsRetryable(t *testing.T) {
	q := queue.New()
	e := New(q, nil)

	var attempts atomic.Int64
	tsk := submitBody(q, func(ctx context.Context) (any, error) {
		attempts.Add(1)
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, task.PriorityNormal, 1, 20*time.Millisecond)

	res := e.Drain(context.Background())

	assert.EqualValues(t, 2, attempts.Load())
	require.Len(t, res.Failed, 1)
	assert.True(t, errors.Is(tsk.LastError, task.ErrTimeout))
}

func TestDrain_ExternalCancelConsumesNoRetry(t *testing.T) {
	q := queue.New()
	e := New(q, nil)

	tsk := submitBody(q, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, task.PriorityNormal, 3, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	res := e.Drain(ctx)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, task.StatusFailed, tsk.Status)
	assert.Zero(t, tsk.Retries)
	assert.True(t, errors.Is(tsk.LastError, task.ErrCancelled))
}

func TestDrain_PanicInBodyIsRetryable(t *testing.T) {
	q := queue.New()
	e := New(q, nil)

	var attempts atomic.Int64
	tsk := submitBody(q, func(ctx context.Context) (any, error) {
		if attempts.Add(1) == 1 {
			panic("boom")
		}
		return "recovered", nil
	}, task.PriorityNormal, 2, time.Second)

	res := e.Drain(context.Background())

	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, "recovered", tsk.Result)
}

func TestDrain_PriorityOrderAcrossTasks(t *testing.T) {
	q := queue.New()
	e := New(q, nil)

	var order []string
	body := func(name string) task.Body {
		return func(ctx context.Context) (any, error) {
			order = append(order, name)
			return name, nil
		}
	}

	submitBody(q, body("A"), task.PriorityLow, 0, time.Second)
	submitBody(q, body("B"), task.PriorityHigh, 0, time.Second)
	submitBody(q, body("C"), task.PriorityNormal, 0, time.Second)
	submitBody(q, body("D"), task.PriorityHigh, 0, time.Second)

	e.Drain(context.Background())

	assert.Equal(t, []string{"B", "D", "C", "A"}, order)
}

func TestDrain_RecordsEveryAttempt(t *testing.T) {
	q := queue.New()

	var outcomes []Outcome
	e := New(q, func(o Outcome) { outcomes = append(outcomes, o) })

	var attempts atomic.Int64
	submitBody(q, func(ctx context.Context) (any, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return nil, nil
	}, task.PriorityNormal, 3, time.Second)

	e.Drain(context.Background())

	assert.Equal(t, []Outcome{OutcomeRetried, OutcomeSucceeded}, outcomes)
}
