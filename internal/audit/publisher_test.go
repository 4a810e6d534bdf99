package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/pkg/platform/circuit"
	"vouch/pkg/requestcontext"
)

func TestPublisherStampsEvents(t *testing.T) {
	buf := NewRingBuffer(8)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), now), "req-1")

	NewPublisher(buf).Emit(ctx, Event{Action: ActionIdentityCreated, Subject: "0xabc"})

	batch := buf.DequeueBatch(10)
	require.Len(t, batch, 1)
	assert.NotEqual(t, uuid.Nil, batch[0].ID)
	assert.Equal(t, now, batch[0].Timestamp)
	assert.Equal(t, "req-1", batch[0].RequestID)
}

func TestRingBufferDropsOldestWhenFull(t *testing.T) {
	buf := NewRingBuffer(2)
	for _, s := range []string{"a", "b", "c"} {
		buf.Enqueue(Event{Subject: s})
	}

	assert.Equal(t, int64(1), buf.Dropped())
	batch := buf.DequeueBatch(5)
	require.Len(t, batch, 2)
	assert.Equal(t, "b", batch[0].Subject)
	assert.Equal(t, "c", batch[1].Subject)
	assert.Zero(t, buf.Len())
}

type failingSink struct{ calls int }

func (f *failingSink) Append(context.Context, []Event) error {
	f.calls++
	return errors.New("sink down")
}

func TestWorkerFlushDrainsBufferInBatches(t *testing.T) {
	buf := NewRingBuffer(BatchSize * 3)
	for i := 0; i < BatchSize*2+5; i++ {
		buf.Enqueue(Event{Subject: "s"})
	}
	store := NewInMemoryStore()

	NewWorker(buf, store, time.Minute, nil).Flush(context.Background())

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, BatchSize*2+5)
	assert.Zero(t, buf.Len())
}

func TestWorkerReportsSinkErrors(t *testing.T) {
	buf := NewRingBuffer(4)
	buf.Enqueue(Event{Subject: "s"})
	sink := &failingSink{}
	var reported []error

	NewWorker(buf, sink, time.Minute, func(err error) { reported = append(reported, err) }).Flush(context.Background())

	assert.Equal(t, 1, sink.calls)
	assert.Len(t, reported, 1)
}

func TestWorkerRunFlushesOnShutdown(t *testing.T) {
	buf := NewRingBuffer(4)
	store := NewInMemoryStore()
	buf.Enqueue(Event{Subject: "last"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewWorker(buf, store, time.Hour, nil).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	events, _ := store.ListBySubject(context.Background(), "last")
	assert.Len(t, events, 1)
}

func TestFanOutJoinsErrors(t *testing.T) {
	store := NewInMemoryStore()
	err := FanOut{store, &failingSink{}}.Append(context.Background(), []Event{{Subject: "x"}})

	require.Error(t, err)
	all, _ := store.ListAll(context.Background())
	assert.Len(t, all, 1)
}

func TestGuardedSinkDropsWhileOpen(t *testing.T) {
	next := &failingSink{}
	g := NewGuardedSink(next, circuit.New("kafka", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour)))
	batch := []Event{{Action: ActionEndorsementAppended}, {Action: ActionEndorsementAppended}}

	require.Error(t, g.Append(context.Background(), batch))
	require.NoError(t, g.Append(context.Background(), batch))

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, int64(2), g.Skipped())
}

func TestFanOutKeepsPrimaryWhenSecondaryIsOpen(t *testing.T) {
	store := NewInMemoryStore()
	g := NewGuardedSink(&failingSink{}, circuit.New("kafka", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour)))
	sink := FanOut{store, g}

	_ = sink.Append(context.Background(), []Event{{Action: ActionIdentityCreated, Subject: "a"}})
	require.NoError(t, sink.Append(context.Background(), []Event{{Action: ActionIdentityCreated, Subject: "a"}}))

	events, err := store.ListBySubject(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
