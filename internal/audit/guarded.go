package audit

import (
	"context"
	"sync/atomic"

	"vouch/pkg/platform/circuit"
)

// GuardedSink stops forwarding to a best-effort sink while its breaker is
// open. Batches offered during the cooldown are dropped and counted.
type GuardedSink struct {
	next    Sink
	breaker *circuit.Breaker
	skipped atomic.Int64
}

func NewGuardedSink(next Sink, breaker *circuit.Breaker) *GuardedSink {
	return &GuardedSink{next: next, breaker: breaker}
}

func (g *GuardedSink) Append(ctx context.Context, events []Event) error {
	if !g.breaker.Allow() {
		g.skipped.Add(int64(len(events)))
		return nil
	}
	if err := g.next.Append(ctx, events); err != nil {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}

// Skipped returns the number of events dropped while the breaker was open.
func (g *GuardedSink) Skipped() int64 {
	return g.skipped.Load()
}
