// Package taskqueue holds work posted for the next frame boundary.
package taskqueue

import "sync"

// Task is a unit of deferred work.
type Task func()

// Queue is a double-buffered FIFO of tasks.
//
// Enqueue may be called from any goroutine, including from a task that is
// currently being drained. DrainInto must only be called from the logical
// thread that drives frames. Tasks enqueued while a drain is in progress land
// in the active buffer and run on the following drain.
type Queue struct {
	mu       sync.Mutex
	active   []Task
	draining []Task
	busy     bool
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends a task to the active buffer. Nil tasks are ignored.
func (q *Queue) Enqueue(task Task) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.active = append(q.active, task)
	q.mu.Unlock()
}

// Len returns the number of tasks waiting for the next drain.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}

// DrainInto runs every task enqueued before the call through exec, in order.
// The first error stops the drain; the rest of the snapshot is discarded.
// A nested call from inside a running task is a no-op.
func (q *Queue) DrainInto(exec func(Task) error) error {
	q.mu.Lock()
	if q.busy {
		q.mu.Unlock()
		return nil
	}
	q.busy = true
	q.active, q.draining = q.draining[:0], q.active
	snapshot := q.draining
	q.mu.Unlock()

	var err error
	for i, task := range snapshot {
		snapshot[i] = nil
		if err != nil {
			continue
		}
		err = exec(task)
	}

	q.mu.Lock()
	q.draining = snapshot[:0]
	q.busy = false
	q.mu.Unlock()
	return err
}
