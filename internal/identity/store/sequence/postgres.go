package sequence

import (
	"context"
	"database/sql"
	"fmt"

	"clubid/pkg/platform/tx"
)

// PostgresStore advances one row per prefix with an atomic upsert. The row
// lock is held until the surrounding transaction ends, which serializes
// concurrent issuers for the same prefix.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const nextQuery = `
	INSERT INTO identity_code_sequences (prefix, last_value, updated_at)
	VALUES ($1, 1, NOW())
	ON CONFLICT (prefix) DO UPDATE
	SET last_value = identity_code_sequences.last_value + 1, updated_at = NOW()
	RETURNING last_value
`

func (s *PostgresStore) Next(ctx context.Context, prefix string) (int64, error) {
	var value int64
	if err := tx.Execer(ctx, s.db).QueryRowContext(ctx, nextQuery, prefix).Scan(&value); err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", prefix, err)
	}
	return value, nil
}
