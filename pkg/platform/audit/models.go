// Package audit is the append-only trail of workflow transitions.
package audit

import (
	"context"
	"time"

	id "clubid/pkg/domain"
)

// Subject types of audited requests.
const (
	SubjectRoleRequest        = "role_request"
	SubjectIntegrationRequest = "integration_request"
	SubjectPerson             = "person"
)

// Entry is one immutable audit record. It is written exactly once per
// transition and never updated or deleted.
type Entry struct {
	ID          string
	ActorID     id.PersonID
	SubjectType string
	SubjectID   string
	Action      string
	Detail      map[string]any
	RequestID   string
	Timestamp   time.Time
}

// Filter narrows Query. Zero fields are ignored.
type Filter struct {
	ActorID   id.PersonID
	SubjectID string
	Action    string
	Since     time.Time
	Until     time.Time
	Limit     int
}

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// EffectiveLimit clamps Limit to (0, MaxQueryLimit].
func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultQueryLimit
	case f.Limit > MaxQueryLimit:
		return MaxQueryLimit
	default:
		return f.Limit
	}
}

// Matches applies the filter to an entry in memory.
func (f Filter) Matches(e Entry) bool {
	if !f.ActorID.IsNil() && e.ActorID != f.ActorID {
		return false
	}
	if f.SubjectID != "" && e.SubjectID != f.SubjectID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Store persists entries. Append joins the transaction carried by ctx, so a
// failed append aborts the transition that produced it.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, filter Filter) ([]Entry, error)
}
