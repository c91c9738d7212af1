// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// Middleware sets the values; handlers read them and build the explicit actor
// that services receive. Services never read the caller's identity from here.
//
//	ctx = requestcontext.WithPersonID(ctx, personID)
//	personID := requestcontext.PersonID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "clubid/pkg/domain"
)

type (
	personIDKey    struct{}
	activeRoleKey  struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// PersonID returns the authenticated person, or the nil id.
func PersonID(ctx context.Context) id.PersonID {
	if v, ok := ctx.Value(personIDKey{}).(id.PersonID); ok {
		return v
	}
	return id.PersonID{}
}

func WithPersonID(ctx context.Context, personID id.PersonID) context.Context {
	return context.WithValue(ctx, personIDKey{}, personID)
}

// ActiveRole returns the active role claimed by the caller's token.
func ActiveRole(ctx context.Context) string {
	v, _ := ctx.Value(activeRoleKey{}).(string)
	return v
}

func WithActiveRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, activeRoleKey{}, role)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped time, falling back to time.Now for workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// WithTime pins the request time; all timestamps of one request share it.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
