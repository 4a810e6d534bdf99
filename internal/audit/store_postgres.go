package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"vouch/internal/platform/postgres"
)

// PostgresStore materializes events into audit_events. Inserts are
// idempotent on event ID so a redelivered batch is harmless.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, events []Event) error {
	const query = `
		INSERT INTO audit_events (id, action, subject, actor, request_id, attributes, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	conn := postgres.Conn(ctx, s.db)
	for _, e := range events {
		attrs, err := json.Marshal(e.Attributes)
		if err != nil {
			return fmt.Errorf("marshal audit attributes: %w", err)
		}
		if _, err := conn.ExecContext(ctx, query,
			e.ID, string(e.Action), e.Subject, e.Actor, e.RequestID, attrs, e.Timestamp,
		); err != nil {
			return fmt.Errorf("insert audit event: %w", err)
		}
	}
	return nil
}

// ListBySubject returns events for subject ordered by occurrence.
func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, subject, COALESCE(actor, ''), COALESCE(request_id, ''), attributes, occurred_at
		FROM audit_events WHERE subject = $1 ORDER BY occurred_at, id`, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e     Event
			attrs []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Subject, &e.Actor, &e.RequestID, &attrs, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal audit attributes: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
