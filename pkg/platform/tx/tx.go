// Package tx provides the per-key transactional boundary used by services.
//
// A Runner serializes all work for one key (a holder) and makes the body
// atomic: in memory through an undo journal, in PostgreSQL through a real
// transaction carried in the context. Nested RunInTx calls on a key whose
// shard is already held by the surrounding transaction run inline. A nested
// call that needs a different shard is rejected, so a transaction holds
// exactly one shard.
package tx

import (
	"context"
	"database/sql"
	"time"

	"vouch/pkg/platform/keylock"

	dErrors "vouch/pkg/domain-errors"
)

// DefaultTimeout bounds a transaction when the caller supplied no deadline.
const DefaultTimeout = 5 * time.Second

// Runner executes fn atomically under the serialization boundary of key.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type ctxKey struct{}
type scopeKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// scope tracks the shard held and the undo journal of one logical transaction.
type scope struct {
	shard int
	undo  []func()
}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// OnRollback registers an undo step for the surrounding transaction. Steps run
// in reverse registration order when the transaction body fails. Outside a
// transaction it is a no-op.
func OnRollback(ctx context.Context, undo func()) {
	if s := scopeFrom(ctx); s != nil {
		s.undo = append(s.undo, undo)
	}
}

// InTx reports whether ctx belongs to a running transaction.
func InTx(ctx context.Context) bool {
	return scopeFrom(ctx) != nil
}

func (s *scope) rollback() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = nil
}

type base struct {
	locks   *keylock.Locker
	timeout time.Duration
}

// enter acquires key's shard unless the surrounding transaction already holds
// it. It returns the context to run in, whether this call owns the scope, and
// a release function. Nesting onto another shard fails with
// CodeInvariantViolation.
func (b *base) enter(ctx context.Context, key string) (context.Context, bool, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, false, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	shard := b.locks.Shard(key)
	if s := scopeFrom(ctx); s != nil {
		if s.shard != shard {
			return nil, false, nil, dErrors.New(dErrors.CodeInvariantViolation,
				"nested transaction must use the enclosing transaction's key").
				WithDetail("key", key)
		}
		return ctx, false, func() {}, nil
	}

	cancel := func() {}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := b.timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	unlock := b.locks.Lock(key)
	if err := ctx.Err(); err != nil {
		unlock()
		cancel()
		return nil, false, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	s := &scope{shard: shard}
	return context.WithValue(ctx, scopeKey{}, s), true, func() {
		unlock()
		cancel()
	}, nil
}

// InMemoryRunner provides atomicity for in-memory stores: stores register undo
// steps with OnRollback and the runner replays them if the body fails.
type InMemoryRunner struct {
	base
}

// NewInMemoryRunner builds a runner over locks. A zero timeout selects DefaultTimeout.
func NewInMemoryRunner(locks *keylock.Locker, timeout time.Duration) *InMemoryRunner {
	if locks == nil {
		locks = keylock.New(keylock.DefaultShards)
	}
	return &InMemoryRunner{base{locks: locks, timeout: timeout}}
}

func (r *InMemoryRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	txCtx, owner, release, err := r.enter(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	if err := fn(txCtx); err != nil {
		if owner {
			scopeFrom(txCtx).rollback()
		}
		return err
	}
	return nil
}

// PostgresRunner wraps the body in a database transaction. The process-local
// key lock keeps same-holder work in this process from contending on row
// locks; stores still take FOR UPDATE locks for cross-process safety.
type PostgresRunner struct {
	base
	db *sql.DB
}

// NewPostgresRunner builds a runner over db. A zero timeout selects DefaultTimeout.
func NewPostgresRunner(db *sql.DB, locks *keylock.Locker, timeout time.Duration) *PostgresRunner {
	if locks == nil {
		locks = keylock.New(keylock.DefaultShards)
	}
	return &PostgresRunner{base: base{locks: locks, timeout: timeout}, db: db}
}

func (r *PostgresRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	txCtx, owner, release, err := r.enter(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	if !owner {
		return fn(txCtx)
	}

	sqlTx, err := r.db.BeginTx(txCtx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin transaction")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(txCtx, sqlTx)); err != nil {
		scopeFrom(txCtx).rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransactionAborted, "commit transaction")
	}
	return nil
}
