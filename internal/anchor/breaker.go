package anchor

import (
	"context"
	"errors"
	"log/slog"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/circuit"
	"vouch/pkg/platform/sentinel"
)

type breakerLedger struct {
	next    Ledger
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// WithBreaker stops calling l while b is open. Calls made during the cooldown
// fail fast with CodeUnavailable. A missing anchor is a normal answer and does
// not count as a failure.
func WithBreaker(l Ledger, b *circuit.Breaker, logger *slog.Logger) Ledger {
	if b == nil {
		return l
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &breakerLedger{next: l, breaker: b, logger: logger}
}

func (l *breakerLedger) Context() ChainContext { return l.next.Context() }

func (l *breakerLedger) Anchor(ctx context.Context, subject string, payloadHash id.ContentHash) (Reference, error) {
	if !l.breaker.Allow() {
		return Reference{}, dErrors.Wrap(circuit.ErrOpen, dErrors.CodeUnavailable, "anchor ledger unavailable")
	}
	ref, err := l.next.Anchor(ctx, subject, payloadHash)
	l.record(ctx, err)
	return ref, err
}

func (l *breakerLedger) Reference(ctx context.Context, subject string) (Reference, error) {
	if !l.breaker.Allow() {
		return Reference{}, dErrors.Wrap(circuit.ErrOpen, dErrors.CodeUnavailable, "anchor ledger unavailable")
	}
	ref, err := l.next.Reference(ctx, subject)
	l.record(ctx, err)
	return ref, err
}

func (l *breakerLedger) record(ctx context.Context, err error) {
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		if _, change := l.breaker.RecordSuccess(); change.Closed {
			l.logger.InfoContext(ctx, "circuit closed", "breaker", l.breaker.Name())
		}
		return
	}
	if _, change := l.breaker.RecordFailure(); change.Opened {
		l.logger.WarnContext(ctx, "circuit opened", "breaker", l.breaker.Name(), "error", err)
	}
}
