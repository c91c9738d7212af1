package models

import (
	"context"
	"sort"
	"time"

	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/requestcontext"
)

// RoleGrant is one held role: its identity code and standing.
type RoleGrant struct {
	Role      Role
	Status    RoleStatus
	Code      IdentityCode
	GrantedAt time.Time
	UpdatedAt time.Time
}

// Person is a human account holding zero or more roles.
//
// Each held role carries exactly one code and one status, so the grant map
// is the single source for the role set. ActiveRole is either empty (no
// roles) or a key of Roles.
type Person struct {
	ID               id.PersonID
	DisplayName      string
	Jurisdiction     *string
	ActiveRole       Role
	Roles            map[Role]*RoleGrant
	PrimaryEntity    *id.EntityRef
	IdentityDocument string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPerson creates a person with no roles.
func NewPerson(personID id.PersonID, displayName string, jurisdiction *string, now time.Time) (*Person, error) {
	if personID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "person ID required")
	}
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "display name required")
	}
	return &Person{
		ID:           personID,
		DisplayName:  displayName,
		Jurisdiction: jurisdiction,
		Roles:        make(map[Role]*RoleGrant),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// JurisdictionValue returns the jurisdiction or "" when unset.
func (p *Person) JurisdictionValue() string {
	if p.Jurisdiction == nil {
		return ""
	}
	return *p.Jurisdiction
}

func (p *Person) HasRole(r Role) bool {
	_, ok := p.Roles[r]
	return ok
}

// HoldsActive reports whether r is held with status Active.
func (p *Person) HoldsActive(r Role) bool {
	g, ok := p.Roles[r]
	return ok && g.Status == RoleStatusActive
}

// CodeFor returns the identity code of a held role.
func (p *Person) CodeFor(r Role) (IdentityCode, bool) {
	g, ok := p.Roles[r]
	if !ok {
		return "", false
	}
	return g.Code, true
}

// RoleList returns held roles in code order.
func (p *Person) RoleList() []Role {
	roles := make([]Role, 0, len(p.Roles))
	for r := range p.Roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Code() < roles[j].Code() })
	return roles
}

// GrantRole adds r (or refreshes it when already held) with code and Active status.
// A person without an active role adopts r.
func (p *Person) GrantRole(r Role, code IdentityCode, now time.Time) error {
	if code == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity code required to grant a role")
	}
	if p.Roles == nil {
		p.Roles = make(map[Role]*RoleGrant)
	}
	g, ok := p.Roles[r]
	if !ok {
		g = &RoleGrant{Role: r, GrantedAt: now}
		p.Roles[r] = g
	}
	g.Code = code
	g.Status = RoleStatusActive
	g.UpdatedAt = now
	if p.ActiveRole == "" {
		p.ActiveRole = r
	}
	p.UpdatedAt = now
	return nil
}

// SetRoleStatus changes the standing of a held role. Leaving Active while it is
// the active role moves the selector to another Active role, or clears it.
func (p *Person) SetRoleStatus(r Role, status RoleStatus, now time.Time) error {
	if !status.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role status %q", status)
	}
	g, ok := p.Roles[r]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "role %s is not held", r)
	}
	g.Status = status
	g.UpdatedAt = now
	p.UpdatedAt = now
	if p.ActiveRole == r && status != RoleStatusActive {
		p.ActiveRole = ""
		for _, other := range p.RoleList() {
			if p.HoldsActive(other) {
				p.ActiveRole = other
				break
			}
		}
	}
	return nil
}

// SwitchActiveRole selects r as the default active role.
func (p *Person) SwitchActiveRole(r Role, now time.Time) error {
	if !p.HoldsActive(r) {
		return dErrors.Newf(dErrors.CodeForbidden, "role %s is not held with active status", r)
	}
	p.ActiveRole = r
	p.UpdatedAt = now
	return nil
}

// SetPrimaryEntity overwrites the primary entity link.
func (p *Person) SetPrimaryEntity(ref id.EntityRef, now time.Time) {
	p.PrimaryEntity = &ref
	p.UpdatedAt = now
}

// ClearPrimaryEntity unlinks ref if it is the current primary entity.
func (p *Person) ClearPrimaryEntity(ref id.EntityRef, now time.Time) bool {
	if p.PrimaryEntity == nil || !p.PrimaryEntity.Equal(ref) {
		return false
	}
	p.PrimaryEntity = nil
	p.UpdatedAt = now
	return true
}

// Validate checks the structural invariants between the grant map and the selector.
func (p *Person) Validate() error {
	for r, g := range p.Roles {
		if g == nil || g.Role != r {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "grant for role %s is inconsistent", r)
		}
		if g.Code == "" {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "role %s has no identity code", r)
		}
		if !g.Status.IsValid() {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "role %s has invalid status", r)
		}
	}
	if p.ActiveRole != "" && !p.HasRole(p.ActiveRole) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "active role %s is not held", p.ActiveRole)
	}
	return nil
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	if p.Jurisdiction != nil {
		j := *p.Jurisdiction
		c.Jurisdiction = &j
	}
	if p.PrimaryEntity != nil {
		ref := *p.PrimaryEntity
		c.PrimaryEntity = &ref
	}
	c.Roles = make(map[Role]*RoleGrant, len(p.Roles))
	for r, g := range p.Roles {
		gc := *g
		c.Roles[r] = &gc
	}
	return &c
}

// Actor is the caller of a workflow operation: who they are and which of their
// roles they act under for this call. It comes from the bearer token.
type Actor struct {
	PersonID   id.PersonID
	ActiveRole Role
}

func (a Actor) IsZero() bool { return a.PersonID.IsNil() }

// ActorFromContext builds the actor that the auth middleware placed in ctx.
// The token role is parsed leniently; the authorizer rejects roles not held.
func ActorFromContext(ctx context.Context) Actor {
	return Actor{
		PersonID:   requestcontext.PersonID(ctx),
		ActiveRole: ParseRole(requestcontext.ActiveRole(ctx)),
	}
}
