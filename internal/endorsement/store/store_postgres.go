package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vouch/internal/endorsement/models"
	"vouch/internal/platform/postgres"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// PostgresStore persists the ledger in PostgreSQL. IDs come from
// endorsement_id_seq; a rolled back append leaves a gap.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const endorsementColumns = `id, endorser_id, endorsed_id, rating, points, message_hash, COALESCE(idempotency_key, ''), created_at`

func (s *PostgresStore) Append(ctx context.Context, e *models.Endorsement) error {
	var key sql.NullString
	if e.IdempotencyKey != "" {
		key = sql.NullString{String: e.IdempotencyKey, Valid: true}
	}
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO endorsements (endorser_id, endorsed_id, rating, points, message_hash, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		e.EndorserID, e.EndorsedID, e.Rating, e.Points, e.MessageHash, key, e.Timestamp,
	).Scan(&e.ID)
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("idempotency key %q: %w", e.IdempotencyKey, sentinel.ErrAlreadyUsed)
	}
	if err != nil {
		return fmt.Errorf("insert endorsement: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, endorsementID id.EndorsementID) (*models.Endorsement, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+endorsementColumns+` FROM endorsements WHERE id = $1`, endorsementID)
	e, err := scanEndorsement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("endorsement %s: %w", endorsementID, sentinel.ErrNotFound)
	}
	return e, err
}

func (s *PostgresStore) FindByIdempotencyKey(ctx context.Context, endorser id.HolderID, key string) (*models.Endorsement, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+endorsementColumns+` FROM endorsements WHERE endorser_id = $1 AND idempotency_key = $2`, endorser, key)
	e, err := scanEndorsement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("idempotency key %q: %w", key, sentinel.ErrNotFound)
	}
	return e, err
}

func (s *PostgresStore) ListByEndorsed(ctx context.Context, holder id.HolderID) ([]*models.Endorsement, error) {
	return s.query(ctx, `SELECT `+endorsementColumns+` FROM endorsements WHERE endorsed_id = $1 ORDER BY id`, holder)
}

func (s *PostgresStore) ListByEndorser(ctx context.Context, holder id.HolderID) ([]*models.Endorsement, error) {
	return s.query(ctx, `SELECT `+endorsementColumns+` FROM endorsements WHERE endorser_id = $1 ORDER BY id`, holder)
}

func (s *PostgresStore) ListPage(ctx context.Context, holder id.HolderID, after id.EndorsementID, limit int) ([]*models.Endorsement, error) {
	return s.query(ctx, `
		SELECT `+endorsementColumns+` FROM endorsements
		WHERE endorsed_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3`, holder, after, limit)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM endorsements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count endorsements: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Endorsement, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list endorsements: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Endorsement, 0)
	for rows.Next() {
		e, err := scanEndorsement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endorsements: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEndorsement(row scanner) (*models.Endorsement, error) {
	var e models.Endorsement
	err := row.Scan(&e.ID, &e.EndorserID, &e.EndorsedID, &e.Rating, &e.Points, &e.MessageHash, &e.IdempotencyKey, &e.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan endorsement: %w", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}
