package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	identity "clubid/internal/identity/models"
	"clubid/internal/integration/models"
	"clubid/internal/platform/database"
	id "clubid/pkg/domain"
	"clubid/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectRequest = `
	SELECT id, person_id, entity_kind, entity_id, role, data_access_scope, notes, status,
	       initiated_by, decided_by, decided_at, reconsent_reason, reconsent_requested_at,
	       created_at, updated_at
	FROM integration_requests`

// Create relies on idx_integration_requests_one_pending for the duplicate check.
func (s *PostgresStore) Create(ctx context.Context, r *models.Request) error {
	_, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO integration_requests (id, person_id, entity_kind, entity_id, role, data_access_scope,
		                                  notes, status, initiated_by, decided_by, decided_at,
		                                  reconsent_reason, reconsent_requested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, uuid.UUID(r.ID), uuid.UUID(r.PersonID), string(r.Target.Kind), uuid.UUID(r.Target.ID), string(r.Role),
		[]byte(r.Scope), r.Notes, string(r.Status), uuid.UUID(r.InitiatedBy), nullableID(r.DecidedBy),
		r.DecidedAt, r.ReconsentReason, r.ReconsentRequestedAt, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert integration request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.IntegrationRequestID) (*models.Request, error) {
	return s.findOne(ctx, selectRequest+" WHERE id = $1", uuid.UUID(requestID))
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, requestID id.IntegrationRequestID) (*models.Request, error) {
	return s.findOne(ctx, selectRequest+" WHERE id = $1 FOR UPDATE", uuid.UUID(requestID))
}

func (s *PostgresStore) FindPending(ctx context.Context, person id.PersonID, target id.EntityRef) (*models.Request, error) {
	return s.findOne(ctx, selectRequest+
		" WHERE person_id = $1 AND entity_kind = $2 AND entity_id = $3 AND status = 'pending'",
		uuid.UUID(person), string(target.Kind), uuid.UUID(target.ID))
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Request) error {
	res, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE integration_requests
		SET notes = $2, status = $3, decided_by = $4, decided_at = $5,
		    reconsent_reason = $6, reconsent_requested_at = $7, updated_at = $8
		WHERE id = $1
	`, uuid.UUID(r.ID), r.Notes, string(r.Status), nullableID(r.DecidedBy), r.DecidedAt,
		r.ReconsentReason, r.ReconsentRequestedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update integration request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update integration request: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByPersonAndStatusForUpdate locks every matching row so a reconsent
// batch cannot interleave with a concurrent decision.
func (s *PostgresStore) ListByPersonAndStatusForUpdate(ctx context.Context, person id.PersonID, status models.Status) ([]*models.Request, error) {
	return s.findMany(ctx, selectRequest+" WHERE person_id = $1 AND status = $2 ORDER BY created_at FOR UPDATE",
		uuid.UUID(person), string(status))
}

func (s *PostgresStore) HasApproved(ctx context.Context, person id.PersonID, target id.EntityRef) (bool, error) {
	var exists bool
	err := tx.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM integration_requests
			WHERE person_id = $1 AND entity_kind = $2 AND entity_id = $3 AND status = 'approved'
		)
	`, uuid.UUID(person), string(target.Kind), uuid.UUID(target.ID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check approved integration: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListForPerson(ctx context.Context, person id.PersonID) ([]*models.Request, error) {
	return s.findMany(ctx, selectRequest+" WHERE person_id = $1 ORDER BY created_at LIMIT $2",
		uuid.UUID(person), DefaultListLimit)
}

func (s *PostgresStore) ListInitiatedBy(ctx context.Context, person id.PersonID) ([]*models.Request, error) {
	return s.findMany(ctx, selectRequest+" WHERE initiated_by = $1 ORDER BY created_at LIMIT $2",
		uuid.UUID(person), DefaultListLimit)
}

func (s *PostgresStore) ListForEntity(ctx context.Context, target id.EntityRef) ([]*models.Request, error) {
	return s.findMany(ctx, selectRequest+" WHERE entity_kind = $1 AND entity_id = $2 ORDER BY created_at LIMIT $3",
		string(target.Kind), uuid.UUID(target.ID), DefaultListLimit)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Request, error) {
	r, err := scanRequest(tx.Execer(ctx, s.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find integration request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) findMany(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list integration requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integration request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var (
		r                              models.Request
		rid, person, entity, initiator uuid.UUID
		kind, role, status             string
		scope                          []byte
		decidedBy                      uuid.NullUUID
		decidedAt, reconsentAt         sql.NullTime
	)
	if err := row.Scan(&rid, &person, &kind, &entity, &role, &scope, &r.Notes, &status,
		&initiator, &decidedBy, &decidedAt, &r.ReconsentReason, &reconsentAt,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = id.IntegrationRequestID(rid)
	r.PersonID = id.PersonID(person)
	r.Target = id.EntityRef{Kind: id.EntityKind(kind), ID: id.EntityID(entity)}
	r.Role = identity.Role(role)
	r.Scope = scope
	r.Status = models.Status(status)
	r.InitiatedBy = id.PersonID(initiator)
	if decidedBy.Valid {
		r.DecidedBy = id.PersonID(decidedBy.UUID)
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		r.DecidedAt = &t
	}
	if reconsentAt.Valid {
		t := reconsentAt.Time
		r.ReconsentRequestedAt = &t
	}
	return &r, nil
}

func nullableID(p id.PersonID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(p), Valid: !p.IsNil()}
}
