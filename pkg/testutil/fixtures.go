package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
)

// TestIDs are fixed ids for deterministic test data.
var TestIDs = struct {
	Person1 id.PersonID
	Person2 id.PersonID
	Admin1  id.PersonID
	Club1   id.EntityID
	School1 id.EntityID
}{
	Person1: id.PersonID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	Person2: id.PersonID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	Admin1:  id.PersonID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	Club1:   id.EntityID(uuid.MustParse("c1c10000-0000-0000-0000-000000000001")),
	School1: id.EntityID(uuid.MustParse("5c400000-0000-0000-0000-000000000001")),
}

// FixedTime is the clock most fixtures use.
var FixedTime = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

// fixtureSeq keeps synthetic codes unique across builders. It starts high so
// fixtures never collide with codes issued by a fresh sequence store.
var fixtureSeq atomic.Int64

func init() { fixtureSeq.Store(9000) }

type PersonBuilder struct {
	person *identity.Person
}

// NewPersonBuilder starts from a person with a fresh id and no roles.
func NewPersonBuilder() *PersonBuilder {
	return &PersonBuilder{
		person: &identity.Person{
			ID:          id.NewPersonID(),
			DisplayName: "Test Person",
			Roles:       make(map[identity.Role]*identity.RoleGrant),
			CreatedAt:   FixedTime,
			UpdatedAt:   FixedTime,
		},
	}
}

func (b *PersonBuilder) WithID(personID id.PersonID) *PersonBuilder {
	b.person.ID = personID
	return b
}

func (b *PersonBuilder) WithName(name string) *PersonBuilder {
	b.person.DisplayName = name
	return b
}

func (b *PersonBuilder) WithJurisdiction(j string) *PersonBuilder {
	b.person.Jurisdiction = &j
	return b
}

// WithRole grants role as Active with a synthetic code unique to this builder.
// The first role granted becomes the active role.
func (b *PersonBuilder) WithRole(role identity.Role) *PersonBuilder {
	code := identity.FormatCode(role.Code(), identity.DefaultJurisdictionCode, fixtureSeq.Add(1))
	_ = b.person.GrantRole(role, code, FixedTime)
	return b
}

// WithRoleStatus grants role and sets a non-Active status.
func (b *PersonBuilder) WithRoleStatus(role identity.Role, status identity.RoleStatus) *PersonBuilder {
	if !b.person.HasRole(role) {
		b.WithRole(role)
	}
	_ = b.person.SetRoleStatus(role, status, FixedTime)
	return b
}

func (b *PersonBuilder) WithActiveRole(role identity.Role) *PersonBuilder {
	b.person.ActiveRole = role
	return b
}

func (b *PersonBuilder) WithPrimaryEntity(ref id.EntityRef) *PersonBuilder {
	b.person.PrimaryEntity = &ref
	return b
}

func (b *PersonBuilder) WithDocument(doc string) *PersonBuilder {
	b.person.IdentityDocument = doc
	return b
}

func (b *PersonBuilder) Build() *identity.Person {
	return b.person.Clone()
}

// ActorFor returns an actor acting under role.
func ActorFor(p *identity.Person, role identity.Role) identity.Actor {
	return identity.Actor{PersonID: p.ID, ActiveRole: role}
}

// EntityRef builds a reference for the fixed entity ids.
func EntityRef(kind id.EntityKind, entity id.EntityID) id.EntityRef {
	return id.EntityRef{Kind: kind, ID: entity}
}

// MustRole fails loudly on unknown role names in table tests.
func MustRole(s string) identity.Role {
	r := identity.ParseRole(s)
	if !r.IsValid() {
		panic(fmt.Sprintf("unknown role %q", s))
	}
	return r
}
