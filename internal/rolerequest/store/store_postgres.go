package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	identity "clubid/internal/identity/models"
	"clubid/internal/platform/database"
	"clubid/internal/rolerequest/models"
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
	SELECT id, person_id, role, evidence_refs, status, reviewer_id, decided_at,
	       rejection_reason, issued_code, created_at, updated_at
	FROM role_requests`

// Create relies on idx_role_requests_one_pending for the duplicate check.
func (s *PostgresStore) Create(ctx context.Context, r *models.Request) error {
	evidence, err := json.Marshal(r.EvidenceRefs)
	if err != nil {
		return fmt.Errorf("marshal evidence refs: %w", err)
	}
	_, err = tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO role_requests (id, person_id, role, evidence_refs, status, reviewer_id, decided_at,
		                           rejection_reason, issued_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.UUID(r.ID), uuid.UUID(r.PersonID), string(r.Role), evidence, string(r.Status),
		nullableID(r.ReviewerID), r.DecidedAt, r.RejectionReason, string(r.IssuedCode), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert role request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RoleRequestID) (*models.Request, error) {
	return s.findOne(ctx, selectRequest+" WHERE id = $1", uuid.UUID(requestID))
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, requestID id.RoleRequestID) (*models.Request, error) {
	return s.findOne(ctx, selectRequest+" WHERE id = $1 FOR UPDATE", uuid.UUID(requestID))
}

func (s *PostgresStore) FindPending(ctx context.Context, person id.PersonID, role identity.Role) (*models.Request, error) {
	return s.findOne(ctx, selectRequest+" WHERE person_id = $1 AND role = $2 AND status = 'pending'",
		uuid.UUID(person), string(role))
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Request) error {
	res, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE role_requests
		SET status = $2, reviewer_id = $3, decided_at = $4, rejection_reason = $5,
		    issued_code = $6, updated_at = $7
		WHERE id = $1
	`, uuid.UUID(r.ID), string(r.Status), nullableID(r.ReviewerID), r.DecidedAt, r.RejectionReason,
		string(r.IssuedCode), r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update role request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role request: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByPerson(ctx context.Context, person id.PersonID) ([]*models.Request, error) {
	return s.findMany(ctx, selectRequest+" WHERE person_id = $1 ORDER BY created_at LIMIT $2",
		uuid.UUID(person), DefaultListLimit)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Request, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.findMany(ctx, selectRequest+" WHERE status = $1 ORDER BY created_at LIMIT $2", string(status), limit)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Request, error) {
	r, err := scanRequest(tx.Execer(ctx, s.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find role request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) findMany(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list role requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role request: %w", err)
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
		r                  models.Request
		rid, person        uuid.UUID
		role, status, code string
		evidence           []byte
		reviewer           uuid.NullUUID
		decidedAt          sql.NullTime
	)
	if err := row.Scan(&rid, &person, &role, &evidence, &status, &reviewer, &decidedAt,
		&r.RejectionReason, &code, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(evidence, &r.EvidenceRefs); err != nil {
		return nil, fmt.Errorf("unmarshal evidence refs: %w", err)
	}
	r.ID = id.RoleRequestID(rid)
	r.PersonID = id.PersonID(person)
	r.Role = identity.Role(role)
	r.Status = models.Status(status)
	r.IssuedCode = identity.IdentityCode(code)
	if reviewer.Valid {
		r.ReviewerID = id.PersonID(reviewer.UUID)
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		r.DecidedAt = &t
	}
	return &r, nil
}

func nullableID(p id.PersonID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(p), Valid: !p.IsNil()}
}
