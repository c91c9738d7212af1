// Package store persists role requests.
package store

import "clubid/pkg/platform/sentinel"

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict is returned when a pending request for the same person and role exists.
	ErrConflict = sentinel.ErrConflict
)

// DefaultListLimit bounds list queries.
const DefaultListLimit = 200
