// Package seeder populates a development instance with a federation, a club
// and a school, each with a provisioned administrator, plus one athlete.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	entitymodels "clubid/internal/entity/models"
	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
	"clubid/pkg/requestcontext"
)

// People registers persons and grants bootstrap roles.
type People interface {
	Register(ctx context.Context, displayName string, jurisdiction *string) (*identity.Person, error)
	Provision(ctx context.Context, personID id.PersonID, role identity.Role) (*identity.Person, error)
}

// Entities creates organisational entities.
type Entities interface {
	Create(ctx context.Context, e *entitymodels.Entity) error
}

// Seeded reports what was created so callers can mint tokens for it.
type Seeded struct {
	People   map[string]id.PersonID
	Entities map[string]id.EntityRef
}

type Seeder struct {
	people   People
	entities Entities
	logger   *slog.Logger
}

func New(people People, entities Entities, logger *slog.Logger) *Seeder {
	return &Seeder{people: people, entities: entities, logger: logger}
}

const demoJurisdiction = "3174"

// SeedAll creates the demo data set.
func (s *Seeder) SeedAll(ctx context.Context) (*Seeded, error) {
	s.logger.InfoContext(ctx, "seeding demo data...")
	out := &Seeded{People: map[string]id.PersonID{}, Entities: map[string]id.EntityRef{}}

	demoPeople := []struct {
		key  string
		name string
		role identity.Role
	}{
		{"federation_admin", "Fatima Federation", identity.RoleFederationAdmin},
		{"club_admin", "Carlos Club", identity.RoleClubAdmin},
		{"school_admin", "Sung School", identity.RoleSchoolAdmin},
		{"athlete", "Ari Archer", identity.RoleAthlete},
	}
	for _, d := range demoPeople {
		jurisdiction := demoJurisdiction
		p, err := s.people.Register(ctx, d.name, &jurisdiction)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", d.key, err)
		}
		if _, err := s.people.Provision(ctx, p.ID, d.role); err != nil {
			return nil, fmt.Errorf("provision %s: %w", d.key, err)
		}
		out.People[d.key] = p.ID
	}

	demoEntities := []struct {
		key   string
		kind  id.EntityKind
		name  string
		admin string
	}{
		{"federation", id.EntityFederation, "National Archery Federation", "federation_admin"},
		{"club", id.EntityClub, "Riverside Bowmen", "club_admin"},
		{"school", id.EntitySchool, "Hillcrest High School", "school_admin"},
	}
	now := requestcontext.Now(ctx)
	for _, d := range demoEntities {
		ref := id.EntityRef{Kind: d.kind, ID: id.NewEntityID()}
		e, err := entitymodels.NewEntity(ref, d.name, out.People[d.admin], now)
		if err != nil {
			return nil, err
		}
		if err := s.entities.Create(ctx, e); err != nil {
			return nil, fmt.Errorf("create %s: %w", d.key, err)
		}
		out.Entities[d.key] = ref
	}

	for key, personID := range out.People {
		s.logger.InfoContext(ctx, "demo person", "key", key, "person_id", personID.String())
	}
	for key, ref := range out.Entities {
		s.logger.InfoContext(ctx, "demo entity", "key", key, "entity", ref.String())
	}
	s.logger.InfoContext(ctx, "demo data seeded successfully",
		"people", len(out.People),
		"entities", len(out.Entities),
	)
	return out, nil
}
