package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pending := &pgconn.PgError{Code: "23505", ConstraintName: "idx_role_requests_one_pending"}

	assert.True(t, IsUniqueViolation(pending))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert role request: %w", pending)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key")))
	assert.Equal(t, "idx_role_requests_one_pending", ConstraintName(pending))
	assert.Empty(t, ConstraintName(errors.New("x")))
}
