package audit

import (
	"context"
	"fmt"
	"log/slog"
)

// Queue is a Store that hands events to a Worker without blocking the
// caller. Append fails when the buffer is full.
type Queue struct {
	ch chan Event
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan Event, size)}
}

func (q *Queue) Append(ctx context.Context, event Event) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("audit queue full, dropping %s", event.Action)
	}
}

func (q *Queue) Inbox() <-chan Event {
	return q.ch
}

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run forwards events until ctx ends. A failed append is logged and the
// event dropped so one bad sink write does not stall the queue.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink append failed",
					"action", string(event.Action),
					"event_id", event.ID,
					"error", err,
				)
			}
		}
	}
}
