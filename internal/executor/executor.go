package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/podushkina/schedcore/internal/queue"
	"github.com/podushkina/schedcore/internal/task"
)

// Outcome classifies one execution attempt.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeRetried
	OutcomeExhausted
	OutcomeCancelled
)

// Results partitions drained tasks. Failures live here, not in an error
// return: Drain itself never fails.
type Results struct {
	Succeeded []*task.Task
	Failed    []*task.Task
}

// Executor drains the queue one task at a time, applying the retry
// state machine. It is the only component that mutates task records
// after submission.
type Executor struct {
	queue  *queue.Queue
	record func(Outcome)
	log    *logrus.Entry
}

func New(q *queue.Queue, record func(Outcome)) *Executor {
	if record == nil {
		record = func(Outcome) {}
	}
	return &Executor{
		queue:  q,
		record: record,
		log:    logrus.WithField("component", "executor"),
	}
}

// Drain executes pending tasks until the queue is empty.
//
// State machine per attempt:
//
//	pending -> running            on dequeue
//	running -> completed          body returned in time
//	running -> retrying -> pending  body failed or timed out, budget left
//	running -> failed             budget exhausted, or external cancel
//
// A timeout counts against the retry budget; an external cancellation
// does not, it fails the task outright.
func (e *Executor) Drain(ctx context.Context) Results {
	total := e.queue.Len()
	processed := 0
	var res Results

	for {
		t := e.queue.DequeueFront()
		if t == nil {
			break
		}

		t.Status = task.StatusRunning
		t.StartTime = time.Now()
		value, err := e.runOnce(ctx, t)
		processed++

		switch {
		case err == nil:
			t.Status = task.StatusCompleted
			t.EndTime = time.Now()
			t.Result = value
			e.record(OutcomeSucceeded)
			res.Succeeded = append(res.Succeeded, t)

		case errors.Is(err, task.ErrCancelled):
			t.Status = task.StatusFailed
			t.EndTime = time.Now()
			t.LastError = err
			e.record(OutcomeCancelled)
			res.Failed = append(res.Failed, t)
			e.log.WithField("task", t.ID).Warn("task cancelled")

		case t.CanRetry():
			t.Retries++
			t.LastError = err
			t.Status = task.StatusRetrying
			e.record(OutcomeRetried)
			e.log.WithFields(logrus.Fields{
				"task":    t.ID,
				"attempt": t.Retries,
				"max":     t.MaxRetries,
			}).WithError(err).Info("task failed, re-enqueueing")
			e.queue.Enqueue(t)

		default:
			t.Status = task.StatusFailed
			t.EndTime = time.Now()
			t.LastError = fmt.Errorf("%w: %w", task.ErrRetriesExhausted, err)
			e.record(OutcomeExhausted)
			res.Failed = append(res.Failed, t)
			e.log.WithField("task", t.ID).WithError(err).Error("task failed permanently")
		}

		e.log.Infof("progress: %d/%d tasks processed", processed, total)
	}

	return res
}

// runOnce executes the body in its own goroutine under the task's
// timeout. A body that ignores its context is abandoned on timeout; its
// eventual result is discarded.
func (e *Executor) runOnce(ctx context.Context, t *task.Task) (any, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = task.DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type attempt struct {
		value any
		err   error
	}
	done := make(chan attempt, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attempt{err: errors.Errorf("task body panicked: %v", r)}
			}
		}()
		value, err := t.Body(attemptCtx)
		done <- attempt{value: value, err: err}
	}()

	select {
	case a := <-done:
		switch {
		case a.err == nil:
			return a.value, nil
		case ctx.Err() != nil:
			return nil, task.ErrCancelled
		case errors.Is(a.err, context.DeadlineExceeded):
			// A cooperative body surfaces its expired attempt context.
			return nil, task.ErrTimeout
		default:
			return a.value, a.err
		}
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, task.ErrCancelled
		}
		return nil, task.ErrTimeout
	}
}
