package domain

import (
	"fmt"
	"strings"

	dErrors "clubid/pkg/domain-errors"
)

// EntityKind is the closed set of organizational entities a person can be linked to.
type EntityKind string

const (
	EntityClub       EntityKind = "club"
	EntitySchool     EntityKind = "school"
	EntityFederation EntityKind = "federation"
)

// IsValid reports whether the kind is one of the known entity kinds.
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityClub, EntitySchool, EntityFederation:
		return true
	}
	return false
}

func (k EntityKind) String() string { return string(k) }

// ParseEntityKind accepts the kind case-insensitively.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown entity type %q", s))
	}
	return k, nil
}

// EntityRef identifies an entity by kind and id.
type EntityRef struct {
	Kind EntityKind `json:"type"`
	ID   EntityID   `json:"id"`
}

func (r EntityRef) String() string { return string(r.Kind) + ":" + r.ID.String() }

func (r EntityRef) IsZero() bool { return r.Kind == "" && r.ID.IsNil() }

// Equal compares kind and id.
func (r EntityRef) Equal(other EntityRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}
