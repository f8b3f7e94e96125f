package queue

import (
	"context"
	"sync"
)

// MemoryQueue is an in-process queue backed by a buffered channel.
type MemoryQueue struct {
	mu     sync.RWMutex
	ch     chan RunRequest
	closed bool
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryQueue{ch: make(chan RunRequest, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, req RunRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-q.ch:
			if !ok {
				return nil
			}
			h(ctx, req)
		}
	}
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}
