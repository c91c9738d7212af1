// Package person persists people and their role grants.
package person

import "clubid/pkg/platform/sentinel"

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict covers duplicate person ids and identity codes already held by someone else.
	ErrConflict = sentinel.ErrConflict
)
