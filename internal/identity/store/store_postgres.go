package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vouch/internal/identity/models"
	"vouch/internal/platform/postgres"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore persists identities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `holder_id, content_hash, reputation, endorsement_count, created_at, last_activity`

func (s *PostgresStore) Create(ctx context.Context, identity *models.Identity) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		identity.HolderID, identity.ContentHash, identity.Reputation, identity.EndorsementCount,
		identity.CreatedAt, identity.LastActivity,
	)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("identity for %s: %w", identity.HolderID, sentinel.ErrAlreadyUsed)
	}
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByHolder(ctx context.Context, holder id.HolderID) (*models.Identity, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE holder_id = $1`, holder)
	return scanIdentity(row, holder)
}

// FindForUpdate reads the row with FOR UPDATE. Within a tx.Runner transaction
// the lock is held until commit or rollback.
func (s *PostgresStore) FindForUpdate(ctx context.Context, holder id.HolderID) (*models.Identity, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE holder_id = $1 FOR UPDATE`, holder)
	return scanIdentity(row, holder)
}

// Execute locks the row with FOR UPDATE for the duration of validate and
// mutate. Inside a tx.Runner transaction it joins that transaction;
// otherwise it opens and commits its own.
func (s *PostgresStore) Execute(ctx context.Context, holder id.HolderID, validate func(*models.Identity) error, mutate func(*models.Identity)) (*models.Identity, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.execute(ctx, tx, holder, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin identity update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	identity, err := s.execute(ctx, tx, holder, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit identity update: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) execute(ctx context.Context, tx *sql.Tx, holder id.HolderID, validate func(*models.Identity) error, mutate func(*models.Identity)) (*models.Identity, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE holder_id = $1 FOR UPDATE`, holder)
	identity, err := scanIdentity(row, holder)
	if err != nil {
		return nil, err
	}
	if err := validate(identity); err != nil {
		return nil, err
	}
	mutate(identity)

	_, err = tx.ExecContext(ctx, `
		UPDATE identities
		SET reputation = $2, endorsement_count = $3, last_activity = $4
		WHERE holder_id = $1`,
		holder, identity.Reputation, identity.EndorsementCount, identity.LastActivity,
	)
	if err != nil {
		return nil, fmt.Errorf("update identity: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

func scanIdentity(row *sql.Row, holder id.HolderID) (*models.Identity, error) {
	var identity models.Identity
	err := row.Scan(
		&identity.HolderID, &identity.ContentHash, &identity.Reputation, &identity.EndorsementCount,
		&identity.CreatedAt, &identity.LastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity for %s: %w", holder, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	identity.CreatedAt = identity.CreatedAt.UTC()
	identity.LastActivity = identity.LastActivity.UTC()
	return &identity, nil
}
