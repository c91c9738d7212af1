// Package store persists entities, rosters and athlete profiles.
package store

import "clubid/pkg/platform/sentinel"

var (
	// ErrNotFound is returned when an entity or profile does not exist.
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict is returned when creating an entity that already exists.
	ErrConflict = sentinel.ErrConflict
)
