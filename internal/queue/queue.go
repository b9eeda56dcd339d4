package queue

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/google/uuid"

	"github.com/podushkina/schedcore/internal/task"
)

// byPriority orders pending tasks by descending priority rank; within a
// rank, by enqueue sequence, so submission order is preserved.
func byPriority(a, b interface{}) int {
	ta := a.(*task.Task)
	tb := b.(*task.Task)
	if d := tb.Priority.Rank() - ta.Priority.Rank(); d != 0 {
		return d
	}
	switch {
	case ta.Seq < tb.Seq:
		return -1
	case ta.Seq > tb.Seq:
		return 1
	default:
		return 0
	}
}

// Queue holds pending tasks in priority order. All operations are safe
// for concurrent use; the ordering invariant holds under concurrent
// enqueues.
type Queue struct {
	mu      sync.Mutex
	pending *treeset.Set
	nextSeq uint64
}

func New() *Queue {
	return &Queue{
		pending: treeset.NewWith(byPriority),
	}
}

// Enqueue inserts a task at its priority position. A fresh sequence
// number is assigned on every call, so a re-enqueued (retrying) task
// queues behind equal-priority tasks that arrived during its failed
// attempt but ahead of all lower-priority work.
func (q *Queue) Enqueue(t *task.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.AddedTime.IsZero() {
		t.AddedTime = time.Now()
	}
	q.nextSeq++
	t.Seq = q.nextSeq
	t.Status = task.StatusPending
	q.pending.Add(t)
}

// DequeueFront removes and returns the highest-priority pending task,
// or nil if the queue is empty.
func (q *Queue) DequeueFront() *task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	it := q.pending.Iterator()
	if !it.Next() {
		return nil
	}
	t := it.Value().(*task.Task)
	q.pending.Remove(t)
	return t
}

func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Empty()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Size()
}

// Clear drops all pending tasks. Used by the manager's cleanup.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.Clear()
}
