package service

import (
	"context"
	"errors"

	"clubid/internal/identity/models"
	"clubid/internal/identity/permission"
	"clubid/internal/identity/store/person"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
)

// PersonReader loads people. FindByIDForUpdate locks the row inside a transaction.
type PersonReader interface {
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	FindByIDForUpdate(ctx context.Context, personID id.PersonID) (*models.Person, error)
}

// Authorizer checks an actor against a fresh read of their person record.
// The token's active role is honored only while it is held with Active status.
type Authorizer struct {
	persons PersonReader
}

func NewAuthorizer(persons PersonReader) *Authorizer {
	return &Authorizer{persons: persons}
}

// Resolve returns the actor's person and the role they act under. An empty
// token role falls back to the persisted selection, which may also be empty.
func (a *Authorizer) Resolve(ctx context.Context, actor models.Actor) (*models.Person, models.Role, error) {
	if actor.IsZero() {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	p, err := a.persons.FindByID(ctx, actor.PersonID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeUnauthorized, "unknown actor")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	role := actor.ActiveRole
	if role == "" {
		role = p.ActiveRole
	}
	if role != "" && !p.HoldsActive(role) {
		return nil, "", dErrors.Newf(dErrors.CodeForbidden, "role %s is not held with active status", role)
	}
	return p, role, nil
}

// Require fails with Forbidden unless the actor's active role grants perm.
func (a *Authorizer) Require(ctx context.Context, actor models.Actor, perm permission.Permission) (*models.Person, error) {
	p, role, err := a.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(role, perm) {
		return nil, dErrors.Newf(dErrors.CodeForbidden, "active role %q lacks %s", role, perm)
	}
	return p, nil
}

// Can is Require without the Forbidden error.
func (a *Authorizer) Can(ctx context.Context, actor models.Actor, perm permission.Permission) (bool, error) {
	_, err := a.Require(ctx, actor, perm)
	if err == nil {
		return true, nil
	}
	if dErrors.HasCode(err, dErrors.CodeForbidden) {
		return false, nil
	}
	return false, err
}
