// Package queue carries batch run requests from the admin surface and the
// scheduler to the single worker that executes them.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Enqueue after the queue was closed.
var ErrClosed = errors.New("run queue closed")

// RunRequest asks the worker to execute one batch run.
type RunRequest struct {
	RunID       string    `json:"run_id"`
	RequestedAt time.Time `json:"requested_at"`
	Trigger     string    `json:"trigger,omitempty"`
}

// Trigger values for RunRequest.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

// Handler processes one request. Requests are handled one at a time.
type Handler func(ctx context.Context, req RunRequest)

// Queue is implemented by MemoryQueue and AMQPQueue.
type Queue interface {
	Enqueue(ctx context.Context, req RunRequest) error
	// Consume blocks, handing requests to h until ctx is cancelled. It returns
	// an error when the underlying transport goes away.
	Consume(ctx context.Context, h Handler) error
	Close() error
}
