package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podushkina/schedcore/internal/task"
)

func newTask(id string, p task.Priority) *task.Task {
	return &task.Task{ID: id, Priority: p}
}

func TestQueue_PriorityOrdering(t *testing.T) {
	q := New()

	q.Enqueue(newTask("A", task.PriorityLow))
	q.Enqueue(newTask("B", task.PriorityHigh))
	q.Enqueue(newTask("C", task.PriorityNormal))
	q.Enqueue(newTask("D", task.PriorityHigh))

	var order []string
	for !q.IsEmpty() {
		order = append(order, q.DequeueFront().ID)
	}

	assert.Equal(t, []string{"B", "D", "C", "A"}, order)
}

func TestQueue_StableWithinPriority(t *testing.T) {
	q := New()

	for i := 0; i < 10; i++ {
		q.Enqueue(newTask(fmt.Sprintf("n%d", i), task.PriorityNormal))
	}

	for i := 0; i < 10; i++ {
		got := q.DequeueFront()
		require.NotNil(t, got)
		assert.Equal(t, fmt.Sprintf("n%d", i), got.ID)
	}
}

func TestQueue_DequeueEmpty(t *testing.T) {
	q := New()

	assert.Nil(t, q.DequeueFront())
	assert.True(t, q.IsEmpty())
	assert.Zero(t, q.Len())
}

func TestQueue_EnqueueAssignsIDAndStatus(t *testing.T) {
	q := New()

	tsk := &task.Task{Priority: task.PriorityNormal}
	q.Enqueue(tsk)

	assert.NotEmpty(t, tsk.ID)
	assert.Equal(t, task.StatusPending, tsk.Status)
	assert.False(t, tsk.AddedTime.IsZero())
}

func TestQueue_RetriedTaskQueuesBehindEqualPriority(t *testing.T) {
	q := New()

	first := newTask("first", task.PriorityHigh)
	q.Enqueue(first)
	q.Enqueue(newTask("low", task.PriorityLow))

	got := q.DequeueFront()
	require.Equal(t, "first", got.ID)

	// Equal-priority work arrives while "first" is running.
	q.Enqueue(newTask("second", task.PriorityHigh))

	// Re-enqueue after a failed attempt: behind "second", ahead of "low".
	q.Enqueue(first)

	assert.Equal(t, "second", q.DequeueFront().ID)
	assert.Equal(t, "first", q.DequeueFront().ID)
	assert.Equal(t, "low", q.DequeueFront().ID)
}

func TestQueue_ConcurrentEnqueueKeepsInvariant(t *testing.T) {
	q := New()

	var wg sync.WaitGroup
	priorities := []task.Priority{task.PriorityHigh, task.PriorityNormal, task.PriorityLow}
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue(newTask(fmt.Sprintf("t%d", i), priorities[i%3]))
		}(i)
	}
	wg.Wait()

	require.Equal(t, 30, q.Len())

	lastRank := 4
	for !q.IsEmpty() {
		got := q.DequeueFront()
		assert.LessOrEqual(t, got.Priority.Rank(), lastRank)
		lastRank = got.Priority.Rank()
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New()
	q.Enqueue(newTask("a", task.PriorityNormal))
	q.Enqueue(newTask("b", task.PriorityHigh))

	q.Clear()

	assert.True(t, q.IsEmpty())
}
