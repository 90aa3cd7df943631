package audit

import (
	"context"
	"log/slog"
	"time"
)

// Recorder buffers events from request handlers. Record never blocks: when
// the buffer is full the event is dropped and counted, because stalling a
// login on audit backpressure would be the worse failure.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Recorder{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Record enqueues an event, stamping the timestamp if the caller left it
// zero.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", string(event.Action))
	}
}

// Events exposes the inbox for the worker.
func (r *Recorder) Events() <-chan Event {
	return r.inbox
}

// Worker consumes buffered events and fans them out to sinks. A failing
// sink is logged and skipped; delivery is best-effort.
type Worker struct {
	sinks  []Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{sinks: sinks, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.dispatch(ctx, event)
		}
	}
}

// drain flushes whatever is already buffered during shutdown, bounded so a
// wedged sink cannot hold the process open.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.dispatch(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, event Event) {
	for _, sink := range w.sinks {
		if err := sink.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit sink append failed",
				"action", string(event.Action), "error", err)
		}
	}
}
