package service

import (
	"context"
	"errors"
	"time"

	"clubid/internal/entity/models"
	"clubid/internal/entity/store"
	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
)

// Capability is what an entity kind can do with its roster. Join and Leave
// mutate the person's links but do not persist the person; the caller saves
// it in the same transaction.
//
// The roster holds one membership per (entity, person). An exclusive kind
// also holds at most one membership per person across all its entities, so
// Join there replaces the person's membership elsewhere.
type Capability interface {
	Kind() id.EntityKind
	Exclusive() bool
	ResolveAdmin(ctx context.Context, entityID id.EntityID) (id.PersonID, error)
	Roster(ctx context.Context, entityID id.EntityID) ([]*models.Membership, error)
	Join(ctx context.Context, p *identity.Person, entityID id.EntityID, role identity.Role, now time.Time) error
	Leave(ctx context.Context, p *identity.Person, entityID id.EntityID, now time.Time) error
}

// rosterCapability implements the shared roster handling. exclusive kinds
// keep one membership per person and own the primary entity link.
type rosterCapability struct {
	kind      id.EntityKind
	exclusive bool
	store     Store
}

func newClub(s Store) Capability {
	return &rosterCapability{kind: id.EntityClub, exclusive: true, store: s}
}

func newFederation(s Store) Capability {
	return &rosterCapability{kind: id.EntityFederation, exclusive: true, store: s}
}

func newSchool(s Store) Capability {
	return &rosterCapability{kind: id.EntitySchool, store: s}
}

func (c *rosterCapability) Kind() id.EntityKind { return c.kind }

func (c *rosterCapability) Exclusive() bool { return c.exclusive }

func (c *rosterCapability) ref(entityID id.EntityID) id.EntityRef {
	return id.EntityRef{Kind: c.kind, ID: entityID}
}

func (c *rosterCapability) ResolveAdmin(ctx context.Context, entityID id.EntityID) (id.PersonID, error) {
	e, err := c.store.FindEntity(ctx, c.ref(entityID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return id.PersonID{}, dErrors.Newf(dErrors.CodeNotFound, "%s not found", c.kind)
		}
		return id.PersonID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entity")
	}
	if !e.HasAdmin() {
		return id.PersonID{}, dErrors.Newf(dErrors.CodeNotFound, "%s has no administrator", c.kind)
	}
	return e.AdminID, nil
}

func (c *rosterCapability) Roster(ctx context.Context, entityID id.EntityID) ([]*models.Membership, error) {
	members, err := c.store.ListMembers(ctx, c.ref(entityID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load roster")
	}
	return members, nil
}

func (c *rosterCapability) Join(ctx context.Context, p *identity.Person, entityID id.EntityID, role identity.Role, now time.Time) error {
	ref := c.ref(entityID)
	if c.exclusive {
		if _, err := c.store.DeleteMembershipsOfKind(ctx, p.ID, c.kind, ref); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to replace membership")
		}
		p.SetPrimaryEntity(ref, now)
	}
	if err := c.store.UpsertMembership(ctx, &models.Membership{
		Entity:    ref,
		PersonID:  p.ID,
		Role:      role,
		JoinedAt:  now,
		UpdatedAt: now,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save membership")
	}
	if role != identity.RoleAthlete {
		return nil
	}
	return c.syncAthlete(ctx, p.ID, func(a *models.AthleteProfile) bool { return a.Link(ref, now) }, now)
}

func (c *rosterCapability) Leave(ctx context.Context, p *identity.Person, entityID id.EntityID, now time.Time) error {
	ref := c.ref(entityID)
	if _, err := c.store.DeleteMembership(ctx, ref, p.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove membership")
	}
	p.ClearPrimaryEntity(ref, now)
	return c.syncAthlete(ctx, p.ID, func(a *models.AthleteProfile) bool { return a.Unlink(ref, now) }, now)
}

func (c *rosterCapability) syncAthlete(ctx context.Context, person id.PersonID, apply func(*models.AthleteProfile) bool, now time.Time) error {
	profile, err := c.store.FindAthleteProfile(ctx, person)
	switch {
	case errors.Is(err, store.ErrNotFound):
		profile = &models.AthleteProfile{PersonID: person, UpdatedAt: now}
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load athlete profile")
	}
	if !apply(profile) {
		return nil
	}
	if err := c.store.SaveAthleteProfile(ctx, profile); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save athlete profile")
	}
	return nil
}
