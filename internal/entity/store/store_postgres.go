package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clubid/internal/entity/models"
	identity "clubid/internal/identity/models"
	"clubid/internal/platform/database"
	id "clubid/pkg/domain"
	"clubid/pkg/platform/tx"
)

// PostgresStore implements the entity store on entities, entity_memberships
// and athlete_profiles. Every call joins the transaction in ctx.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateEntity(ctx context.Context, e *models.Entity) error {
	_, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO entities (kind, id, name, jurisdiction, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, string(e.Ref.Kind), uuid.UUID(e.Ref.ID), e.Name, e.Jurisdiction, nullablePerson(e.AdminID), e.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindEntity(ctx context.Context, ref id.EntityRef) (*models.Entity, error) {
	row := tx.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT kind, id, name, jurisdiction, admin_id, created_at
		FROM entities WHERE kind = $1 AND id = $2
	`, string(ref.Kind), uuid.UUID(ref.ID))
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find entity: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListByAdmin(ctx context.Context, admin id.PersonID) ([]*models.Entity, error) {
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, `
		SELECT kind, id, name, jurisdiction, admin_id, created_at
		FROM entities WHERE admin_id = $1 ORDER BY kind, id
	`, uuid.UUID(admin))
	if err != nil {
		return nil, fmt.Errorf("list entities by admin: %w", err)
	}
	defer rows.Close()

	var out []*models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertMembership(ctx context.Context, m *models.Membership) error {
	_, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO entity_memberships (kind, entity_id, person_id, role, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (kind, entity_id, person_id)
		DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
	`, string(m.Entity.Kind), uuid.UUID(m.Entity.ID), uuid.UUID(m.PersonID), string(m.Role), m.JoinedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteMembershipsOfKind(ctx context.Context, person id.PersonID, kind id.EntityKind, except id.EntityRef) (int, error) {
	res, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		DELETE FROM entity_memberships
		WHERE person_id = $1 AND kind = $2 AND entity_id <> $3
	`, uuid.UUID(person), string(kind), uuid.UUID(except.ID))
	if err != nil {
		return 0, fmt.Errorf("delete memberships of kind: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *PostgresStore) DeleteMembership(ctx context.Context, ref id.EntityRef, person id.PersonID) (bool, error) {
	res, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		DELETE FROM entity_memberships WHERE kind = $1 AND entity_id = $2 AND person_id = $3
	`, string(ref.Kind), uuid.UUID(ref.ID), uuid.UUID(person))
	if err != nil {
		return false, fmt.Errorf("delete membership: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresStore) ListMembers(ctx context.Context, ref id.EntityRef) ([]*models.Membership, error) {
	return s.listMemberships(ctx, `
		SELECT kind, entity_id, person_id, role, joined_at, updated_at
		FROM entity_memberships WHERE kind = $1 AND entity_id = $2 ORDER BY joined_at
	`, string(ref.Kind), uuid.UUID(ref.ID))
}

func (s *PostgresStore) ListMemberships(ctx context.Context, person id.PersonID) ([]*models.Membership, error) {
	return s.listMemberships(ctx, `
		SELECT kind, entity_id, person_id, role, joined_at, updated_at
		FROM entity_memberships WHERE person_id = $1 ORDER BY joined_at
	`, uuid.UUID(person))
}

func (s *PostgresStore) listMemberships(ctx context.Context, query string, args ...any) ([]*models.Membership, error) {
	rows, err := tx.Execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		var (
			m              models.Membership
			kind, role     string
			entity, person uuid.UUID
		)
		if err := rows.Scan(&kind, &entity, &person, &role, &m.JoinedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		m.Entity = id.EntityRef{Kind: id.EntityKind(kind), ID: id.EntityID(entity)}
		m.PersonID = id.PersonID(person)
		m.Role = identity.Role(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindAthleteProfile(ctx context.Context, person id.PersonID) (*models.AthleteProfile, error) {
	var (
		club, school uuid.NullUUID
		p            = models.AthleteProfile{PersonID: person}
	)
	err := tx.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT club_id, school_id, updated_at FROM athlete_profiles WHERE person_id = $1
	`, uuid.UUID(person)).Scan(&club, &school, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find athlete profile: %w", err)
	}
	if club.Valid {
		v := id.EntityID(club.UUID)
		p.ClubID = &v
	}
	if school.Valid {
		v := id.EntityID(school.UUID)
		p.SchoolID = &v
	}
	return &p, nil
}

func (s *PostgresStore) SaveAthleteProfile(ctx context.Context, p *models.AthleteProfile) error {
	_, err := tx.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO athlete_profiles (person_id, club_id, school_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (person_id)
		DO UPDATE SET club_id = EXCLUDED.club_id, school_id = EXCLUDED.school_id, updated_at = EXCLUDED.updated_at
	`, uuid.UUID(p.PersonID), nullableEntity(p.ClubID), nullableEntity(p.SchoolID), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save athlete profile: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*models.Entity, error) {
	var (
		e      models.Entity
		kind   string
		entity uuid.UUID
		juris  sql.NullString
		admin  uuid.NullUUID
	)
	if err := row.Scan(&kind, &entity, &e.Name, &juris, &admin, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Ref = id.EntityRef{Kind: id.EntityKind(kind), ID: id.EntityID(entity)}
	if juris.Valid {
		e.Jurisdiction = &juris.String
	}
	if admin.Valid {
		e.AdminID = id.PersonID(admin.UUID)
	}
	return &e, nil
}

func nullablePerson(p id.PersonID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(p), Valid: !p.IsNil()}
}

func nullableEntity(e *id.EntityID) uuid.NullUUID {
	if e == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*e), Valid: true}
}
