package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clubid/internal/identity/models"
	"clubid/internal/platform/database"
	id "clubid/pkg/domain"
	"clubid/pkg/platform/tx"
)

// PostgresStore keeps the person row in persons and one row per held role in
// person_roles, so a single grant can be locked and updated on its own.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectPerson = `
	SELECT id, display_name, jurisdiction, active_role, primary_kind, primary_entity_id,
	       identity_document, created_at, updated_at
	FROM persons WHERE id = $1`

func (s *PostgresStore) Create(ctx context.Context, p *models.Person) error {
	kind, entity := primaryColumns(p)
	_, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO persons (id, display_name, jurisdiction, active_role, primary_kind, primary_entity_id,
		                     identity_document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.UUID(p.ID), p.DisplayName, p.Jurisdiction, string(p.ActiveRole), kind, entity,
		p.IdentityDocument, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return s.saveRoles(ctx, p)
}

func (s *PostgresStore) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	return s.find(ctx, selectPerson, personID)
}

// FindByIDForUpdate locks the person row until the enclosing transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	return s.find(ctx, selectPerson+" FOR UPDATE", personID)
}

func (s *PostgresStore) find(ctx context.Context, query string, personID id.PersonID) (*models.Person, error) {
	q := tx.Execer(ctx, s.db)
	var (
		p            models.Person
		pid          uuid.UUID
		jurisdiction sql.NullString
		active       string
		kind         sql.NullString
		entity       uuid.NullUUID
	)
	err := q.QueryRowContext(ctx, query, uuid.UUID(personID)).Scan(
		&pid, &p.DisplayName, &jurisdiction, &active, &kind, &entity,
		&p.IdentityDocument, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find person: %w", err)
	}
	p.ID = id.PersonID(pid)
	p.ActiveRole = models.Role(active)
	if jurisdiction.Valid {
		p.Jurisdiction = &jurisdiction.String
	}
	if kind.Valid && entity.Valid {
		p.PrimaryEntity = &id.EntityRef{Kind: id.EntityKind(kind.String), ID: id.EntityID(entity.UUID)}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT role, status, code, granted_at, updated_at
		FROM person_roles WHERE person_id = $1
	`, pid)
	if err != nil {
		return nil, fmt.Errorf("load person roles: %w", err)
	}
	defer rows.Close()

	p.Roles = make(map[models.Role]*models.RoleGrant)
	for rows.Next() {
		var role, status, code string
		g := &models.RoleGrant{}
		if err := rows.Scan(&role, &status, &code, &g.GrantedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan person role: %w", err)
		}
		g.Role = models.Role(role)
		g.Status = models.RoleStatus(status)
		g.Code = models.IdentityCode(code)
		p.Roles[g.Role] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate person roles: %w", err)
	}
	return &p, nil
}

// Save updates the person row and upserts every grant. Grants are never
// removed; a role that is no longer usable changes status instead.
func (s *PostgresStore) Save(ctx context.Context, p *models.Person) error {
	kind, entity := primaryColumns(p)
	res, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		UPDATE persons
		SET display_name = $2, jurisdiction = $3, active_role = $4, primary_kind = $5,
		    primary_entity_id = $6, identity_document = $7, updated_at = $8
		WHERE id = $1
	`, uuid.UUID(p.ID), p.DisplayName, p.Jurisdiction, string(p.ActiveRole), kind, entity,
		p.IdentityDocument, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.saveRoles(ctx, p)
}

func (s *PostgresStore) saveRoles(ctx context.Context, p *models.Person) error {
	q := tx.Execer(ctx, s.db)
	for _, r := range p.RoleList() {
		g := p.Roles[r]
		_, err := q.ExecContext(ctx, `
			INSERT INTO person_roles (person_id, role, status, code, granted_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (person_id, role)
			DO UPDATE SET status = EXCLUDED.status, code = EXCLUDED.code, updated_at = EXCLUDED.updated_at
		`, uuid.UUID(p.ID), string(r), string(g.Status), string(g.Code), g.GrantedAt, g.UpdatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("save person role %s: %w", r, err)
		}
	}
	return nil
}

func primaryColumns(p *models.Person) (sql.NullString, uuid.NullUUID) {
	if p.PrimaryEntity == nil {
		return sql.NullString{}, uuid.NullUUID{}
	}
	return sql.NullString{String: string(p.PrimaryEntity.Kind), Valid: true},
		uuid.NullUUID{UUID: uuid.UUID(p.PrimaryEntity.ID), Valid: true}
}
