package worker

import (
	"context"
	"time"
)

// Queue is the scheduling interface. Enqueue with a zero delay makes the task
// immediately available; a positive delay holds it back until the delay
// elapses, which is how retry backoff is realized.
type Queue interface {
	Enqueue(ctx context.Context, task Task, delay time.Duration) error
	// Dequeue blocks until a task is ready or the context is done.
	Dequeue(ctx context.Context) (*Task, error)
}

// MemoryQueue is an in-process Queue backed by a channel. It is used in
// tests and in single-process deployments without Redis.
type MemoryQueue struct {
	tasks chan Task
}

// NewMemoryQueue creates a MemoryQueue with the given buffer size.
func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{tasks: make(chan Task, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task, delay time.Duration) error {
	if delay <= 0 {
		select {
		case q.tasks <- task:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	time.AfterFunc(delay, func() {
		q.tasks <- task
	})
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case task := <-q.tasks:
		return &task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ Queue = (*MemoryQueue)(nil)
