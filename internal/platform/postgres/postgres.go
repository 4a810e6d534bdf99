// Package postgres opens the PostgreSQL pool, applies the schema, and gives
// stores a single way to reach the transaction carried in context.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vouch/internal/platform/config"
	txcontext "vouch/pkg/platform/tx"
)

const uniqueViolation = "23505"

// DBTX is the subset of *sql.DB and *sql.Tx the stores use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects with lib/pq, applies pool limits, and pings.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	connector, err := pq.NewConnector(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres URL: %w", err)
	}
	db := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Conn returns the transaction in ctx if there is one, else db.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Migrate creates the tables used by the identity, endorsement and issuer
// stores. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		holder_id         TEXT PRIMARY KEY,
		content_hash      TEXT NOT NULL,
		reputation        BIGINT NOT NULL DEFAULT 0 CHECK (reputation >= 0),
		endorsement_count BIGINT NOT NULL DEFAULT 0 CHECK (endorsement_count >= 0),
		created_at        TIMESTAMPTZ NOT NULL,
		last_activity     TIMESTAMPTZ NOT NULL,
		CHECK (created_at <= last_activity)
	)`,
	`CREATE SEQUENCE IF NOT EXISTS endorsement_id_seq`,
	`CREATE TABLE IF NOT EXISTS endorsements (
		id              BIGINT PRIMARY KEY DEFAULT nextval('endorsement_id_seq'),
		endorser_id     TEXT NOT NULL,
		endorsed_id     TEXT NOT NULL REFERENCES identities(holder_id),
		rating          SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		points          SMALLINT NOT NULL,
		message_hash    TEXT NOT NULL,
		idempotency_key TEXT,
		created_at      TIMESTAMPTZ NOT NULL,
		CHECK (endorser_id <> endorsed_id)
	)`,
	`CREATE INDEX IF NOT EXISTS endorsements_endorsed_idx ON endorsements (endorsed_id, id)`,
	`CREATE INDEX IF NOT EXISTS endorsements_endorser_idx ON endorsements (endorser_id, id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS endorsements_idempotency_idx
		ON endorsements (endorser_id, idempotency_key) WHERE idempotency_key IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS issuers (
		issuer_id  TEXT PRIMARY KEY,
		verified   BOOLEAN NOT NULL,
		role       TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id          UUID PRIMARY KEY,
		action      TEXT NOT NULL,
		subject     TEXT NOT NULL,
		actor       TEXT,
		request_id  TEXT,
		attributes  JSONB,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
}
