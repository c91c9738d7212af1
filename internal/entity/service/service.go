// Package service resolves entities, their administrators and their
// per-kind membership capability.
package service

import (
	"context"
	"errors"
	"log/slog"

	"clubid/internal/entity/models"
	"clubid/internal/entity/store"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
)

// Store is the persistence the directory and capabilities need.
type Store interface {
	CreateEntity(ctx context.Context, e *models.Entity) error
	FindEntity(ctx context.Context, ref id.EntityRef) (*models.Entity, error)
	ListByAdmin(ctx context.Context, admin id.PersonID) ([]*models.Entity, error)
	UpsertMembership(ctx context.Context, m *models.Membership) error
	DeleteMembershipsOfKind(ctx context.Context, person id.PersonID, kind id.EntityKind, except id.EntityRef) (int, error)
	DeleteMembership(ctx context.Context, ref id.EntityRef, person id.PersonID) (bool, error)
	ListMembers(ctx context.Context, ref id.EntityRef) ([]*models.Membership, error)
	ListMemberships(ctx context.Context, person id.PersonID) ([]*models.Membership, error)
	FindAthleteProfile(ctx context.Context, person id.PersonID) (*models.AthleteProfile, error)
	SaveAthleteProfile(ctx context.Context, p *models.AthleteProfile) error
}

// Directory is the entry point to entities. It always reads the store, so
// authorization decisions never see a stale administrator.
type Directory struct {
	store  Store
	caps   map[id.EntityKind]Capability
	logger *slog.Logger
}

type Option func(*Directory)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) { d.logger = logger }
}

func NewDirectory(s Store, opts ...Option) *Directory {
	d := &Directory{
		store: s,
		caps: map[id.EntityKind]Capability{
			id.EntityClub:       newClub(s),
			id.EntitySchool:     newSchool(s),
			id.EntityFederation: newFederation(s),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Capability returns the membership behavior of kind.
func (d *Directory) Capability(kind id.EntityKind) (Capability, error) {
	c, ok := d.caps[kind]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown entity type %q", kind)
	}
	return c, nil
}

// Get returns the entity or NotFound.
func (d *Directory) Get(ctx context.Context, ref id.EntityRef) (*models.Entity, error) {
	if _, err := d.Capability(ref.Kind); err != nil {
		return nil, err
	}
	e, err := d.store.FindEntity(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "%s not found", ref.Kind)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entity")
	}
	return e, nil
}

// ResolveAdmin returns the administrator of ref, NotFound when the entity is
// missing or has none.
func (d *Directory) ResolveAdmin(ctx context.Context, ref id.EntityRef) (id.PersonID, error) {
	c, err := d.Capability(ref.Kind)
	if err != nil {
		return id.PersonID{}, err
	}
	return c.ResolveAdmin(ctx, ref.ID)
}

// IsAdmin reports whether person administers ref. Missing entities and
// unassigned administrators are not errors here.
func (d *Directory) IsAdmin(ctx context.Context, person id.PersonID, ref id.EntityRef) (bool, error) {
	admin, err := d.ResolveAdmin(ctx, ref)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return admin == person, nil
}

// Create registers a new entity.
func (d *Directory) Create(ctx context.Context, e *models.Entity) error {
	if _, err := d.Capability(e.Ref.Kind); err != nil {
		return err
	}
	if err := d.store.CreateEntity(ctx, e); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return dErrors.Newf(dErrors.CodeConflict, "%s already exists", e.Ref.Kind)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create entity")
	}
	d.logger.InfoContext(ctx, "entity created", "entity", e.Ref.String(), "admin_id", e.AdminID.String())
	return nil
}

// AdministeredBy lists entities whose administrator is person.
func (d *Directory) AdministeredBy(ctx context.Context, person id.PersonID) ([]*models.Entity, error) {
	entities, err := d.store.ListByAdmin(ctx, person)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list administered entities")
	}
	return entities, nil
}

// Memberships lists every roster row of person.
func (d *Directory) Memberships(ctx context.Context, person id.PersonID) ([]*models.Membership, error) {
	ms, err := d.store.ListMemberships(ctx, person)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list memberships")
	}
	return ms, nil
}

// AthleteProfile returns the athlete sub-record, nil when none exists.
func (d *Directory) AthleteProfile(ctx context.Context, person id.PersonID) (*models.AthleteProfile, error) {
	p, err := d.store.FindAthleteProfile(ctx, person)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load athlete profile")
	}
	return p, nil
}
