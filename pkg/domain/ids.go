// Package domain provides type-safe identifiers and shared value objects.
package domain

import (
	"github.com/google/uuid"

	dErrors "clubid/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing PersonID where EntityID is expected.
type (
	PersonID             uuid.UUID
	RoleRequestID        uuid.UUID
	IntegrationRequestID uuid.UUID
	EntityID             uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, token claims).

func ParsePersonID(s string) (PersonID, error) {
	id, err := parseUUID(s, "person ID")
	return PersonID(id), err
}

func ParseRoleRequestID(s string) (RoleRequestID, error) {
	id, err := parseUUID(s, "role request ID")
	return RoleRequestID(id), err
}

func ParseIntegrationRequestID(s string) (IntegrationRequestID, error) {
	id, err := parseUUID(s, "integration request ID")
	return IntegrationRequestID(id), err
}

func ParseEntityID(s string) (EntityID, error) {
	id, err := parseUUID(s, "entity ID")
	return EntityID(id), err
}

func NewPersonID() PersonID                         { return PersonID(uuid.New()) }
func NewRoleRequestID() RoleRequestID               { return RoleRequestID(uuid.New()) }
func NewIntegrationRequestID() IntegrationRequestID { return IntegrationRequestID(uuid.New()) }
func NewEntityID() EntityID                         { return EntityID(uuid.New()) }

func (id PersonID) String() string             { return uuid.UUID(id).String() }
func (id RoleRequestID) String() string        { return uuid.UUID(id).String() }
func (id IntegrationRequestID) String() string { return uuid.UUID(id).String() }
func (id EntityID) String() string             { return uuid.UUID(id).String() }

func (id PersonID) IsNil() bool             { return uuid.UUID(id) == uuid.Nil }
func (id RoleRequestID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id IntegrationRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntityID) IsNil() bool             { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be nil")
	}
	return id, nil
}
