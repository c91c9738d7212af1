// Package models holds organizational entities and their rosters.
package models

import (
	"time"

	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
)

// Entity is a club, school or the federation.
type Entity struct {
	Ref          id.EntityRef
	Name         string
	Jurisdiction *string
	AdminID      id.PersonID
	CreatedAt    time.Time
}

func NewEntity(ref id.EntityRef, name string, admin id.PersonID, now time.Time) (*Entity, error) {
	if !ref.Kind.IsValid() || ref.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entity reference required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entity name required")
	}
	return &Entity{Ref: ref, Name: name, AdminID: admin, CreatedAt: now}, nil
}

// HasAdmin reports whether an administrator is assigned.
func (e *Entity) HasAdmin() bool { return !e.AdminID.IsNil() }

// Membership is one roster row: a person linked to an entity under a role.
// School memberships double as enrollments.
type Membership struct {
	Entity    id.EntityRef
	PersonID  id.PersonID
	Role      identity.Role
	JoinedAt  time.Time
	UpdatedAt time.Time
}

// AthleteProfile is the athlete sub-record of a person.
type AthleteProfile struct {
	PersonID  id.PersonID
	ClubID    *id.EntityID
	SchoolID  *id.EntityID
	UpdatedAt time.Time
}

// Link points the profile at ref when it is a club or school.
func (a *AthleteProfile) Link(ref id.EntityRef, now time.Time) bool {
	e := ref.ID
	switch ref.Kind {
	case id.EntityClub:
		a.ClubID = &e
	case id.EntitySchool:
		a.SchoolID = &e
	default:
		return false
	}
	a.UpdatedAt = now
	return true
}

// Unlink clears the link to ref if it is the current one.
func (a *AthleteProfile) Unlink(ref id.EntityRef, now time.Time) bool {
	switch {
	case ref.Kind == id.EntityClub && a.ClubID != nil && *a.ClubID == ref.ID:
		a.ClubID = nil
	case ref.Kind == id.EntitySchool && a.SchoolID != nil && *a.SchoolID == ref.ID:
		a.SchoolID = nil
	default:
		return false
	}
	a.UpdatedAt = now
	return true
}
