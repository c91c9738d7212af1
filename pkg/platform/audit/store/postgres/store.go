package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	id "clubid/pkg/domain"
	"clubid/pkg/platform/audit"
	"clubid/pkg/platform/tx"
)

// Store implements audit.Store on the audit_entries table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts inside the caller's transaction when one is active.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	if entry.Detail == nil {
		detail = []byte("{}")
	}

	var actor *uuid.UUID
	if !entry.ActorID.IsNil() {
		a := uuid.UUID(entry.ActorID)
		actor = &a
	}

	_, err = tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_entries (id, actor_id, subject_type, subject_id, action, detail, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, actor, entry.SubjectType, entry.SubjectID, entry.Action, detail, entry.RequestID, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Query returns matching entries newest first.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !filter.ActorID.IsNil() {
		add("actor_id = $%d", uuid.UUID(filter.ActorID))
	}
	if filter.SubjectID != "" {
		add("subject_id = $%d", filter.SubjectID)
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if !filter.Since.IsZero() {
		add("created_at >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("created_at <= $%d", filter.Until)
	}

	query := `SELECT id, actor_id, subject_type, subject_id, action, detail, request_id, created_at FROM audit_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.EffectiveLimit())
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e      audit.Entry
			actor  uuid.NullUUID
			detail []byte
		)
		if err := rows.Scan(&e.ID, &actor, &e.SubjectType, &e.SubjectID, &e.Action, &detail, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if actor.Valid {
			e.ActorID = id.PersonID(actor.UUID)
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
