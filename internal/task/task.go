package task

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRetrying  Status = "retrying"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to its numeric ordering. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

const (
	DefaultMaxRetries = 3
	DefaultTimeout    = time.Hour
)

// Sentinel failure kinds attached to a task's LastError.
var (
	ErrTimeout          = errors.New("task timed out")
	ErrCancelled        = errors.New("task cancelled")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Body is one unit of work. The context is cancelled when the task's
// timeout elapses or the manager shuts down; bodies that honor it stop
// early, bodies that don't are abandoned and their result discarded.
type Body func(ctx context.Context) (any, error)

type Task struct {
	ID         string        `json:"id"`
	Body       Body          `json:"-"`
	Priority   Priority      `json:"priority"`
	MaxRetries int           `json:"max_retries"`
	Timeout    time.Duration `json:"timeout"`
	Retries    int           `json:"retries"`
	Status     Status        `json:"status"`
	AddedTime  time.Time     `json:"added_time"`
	StartTime  time.Time     `json:"start_time,omitempty"`
	EndTime    time.Time     `json:"end_time,omitempty"`
	Result     any           `json:"result,omitempty"`
	LastError  error         `json:"-"`

	// Seq is assigned by the queue at enqueue time and breaks ties
	// between tasks of equal priority.
	Seq uint64 `json:"-"`
}

// CanRetry reports whether one more attempt fits the retry budget.
func (t *Task) CanRetry() bool {
	return t.Retries < t.MaxRetries
}
