package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vouch/internal/issuer/models"
	"vouch/internal/platform/postgres"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, issuer *models.Issuer) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO issuers (issuer_id, verified, role, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (issuer_id) DO UPDATE
		SET verified = EXCLUDED.verified, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at`,
		issuer.IssuerID, issuer.Verified, issuer.Role, issuer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	var issuer models.Issuer
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT issuer_id, verified, role, updated_at FROM issuers WHERE issuer_id = $1`, issuerID,
	).Scan(&issuer.IssuerID, &issuer.Verified, &issuer.Role, &issuer.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("issuer %s: %w", issuerID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find issuer: %w", err)
	}
	issuer.UpdatedAt = issuer.UpdatedAt.UTC()
	return &issuer, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Issuer, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT issuer_id, verified, role, updated_at FROM issuers ORDER BY issuer_id`)
	if err != nil {
		return nil, fmt.Errorf("list issuers: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Issuer, 0)
	for rows.Next() {
		var issuer models.Issuer
		if err := rows.Scan(&issuer.IssuerID, &issuer.Verified, &issuer.Role, &issuer.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan issuer: %w", err)
		}
		issuer.UpdatedAt = issuer.UpdatedAt.UTC()
		out = append(out, &issuer)
	}
	return out, rows.Err()
}
