// Package audit serves read access to the audit trail.
package audit

import (
	"context"

	identity "clubid/internal/identity/models"
	"clubid/internal/identity/permission"
	dErrors "clubid/pkg/domain-errors"
	trail "clubid/pkg/platform/audit"
)

type Authorizer interface {
	Require(ctx context.Context, actor identity.Actor, perm permission.Permission) (*identity.Person, error)
}

type Querier interface {
	Query(ctx context.Context, filter trail.Filter) ([]trail.Entry, error)
}

// Reader gates trail queries behind audit.read.
type Reader struct {
	auth  Authorizer
	trail Querier
}

func NewReader(auth Authorizer, q Querier) *Reader {
	return &Reader{auth: auth, trail: q}
}

// Query returns matching entries newest first.
func (r *Reader) Query(ctx context.Context, actor identity.Actor, filter trail.Filter) ([]trail.Entry, error) {
	if _, err := r.auth.Require(ctx, actor, permission.AuditRead); err != nil {
		return nil, err
	}
	entries, err := r.trail.Query(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit trail")
	}
	return entries, nil
}
