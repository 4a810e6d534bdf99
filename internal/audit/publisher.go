// Package audit records an append-only trail of identity, endorsement and
// issuer changes. Emission never blocks the request path: events go to a
// bounded buffer and a Worker drains them to a Sink.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vouch/pkg/requestcontext"
)

// Sink persists batches of events.
type Sink interface {
	Append(ctx context.Context, events []Event) error
}

// Emitter is what services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Publisher stamps events with an ID, time and request ID and buffers them.
type Publisher struct {
	buffer *RingBuffer
}

func NewPublisher(buffer *RingBuffer) *Publisher {
	if buffer == nil {
		buffer = NewRingBuffer(0)
	}
	return &Publisher{buffer: buffer}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	p.buffer.Enqueue(event)
}

// Nop discards events. Useful where a service is built without auditing.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

// BatchSize bounds how many events the worker hands a sink at once.
const BatchSize = 100

// Worker drains the buffer into a sink on a fixed interval.
type Worker struct {
	buffer   *RingBuffer
	sink     Sink
	interval time.Duration
	onError  func(error)
}

func NewWorker(buffer *RingBuffer, sink Sink, interval time.Duration, onError func(error)) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Worker{buffer: buffer, sink: sink, interval: interval, onError: onError}
}

// Run flushes until ctx is cancelled, then performs a final flush with a
// short grace period.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			w.Flush(flushCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush hands every buffered event to the sink. Failed batches are reported
// and dropped; the trail is best effort.
func (w *Worker) Flush(ctx context.Context) {
	for {
		batch := w.buffer.DequeueBatch(BatchSize)
		if len(batch) == 0 {
			return
		}
		if err := w.sink.Append(ctx, batch); err != nil {
			w.onError(err)
		}
	}
}
