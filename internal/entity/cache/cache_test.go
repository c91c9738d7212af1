package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/circuit"
)

type countingResolver struct {
	admin id.PersonID
	err   error
	calls int
}

func (r *countingResolver) ResolveAdmin(context.Context, id.EntityRef) (id.PersonID, error) {
	r.calls++
	return r.admin, r.err
}

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAdminCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	ref := id.EntityRef{Kind: id.EntityClub, ID: id.NewEntityID()}
	resolver := &countingResolver{admin: id.NewPersonID()}
	c := New(unreachableClient(t), resolver, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	got, err := c.ResolveAdmin(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, resolver.admin, got)
	assert.Equal(t, 1, resolver.calls)
}

func TestAdminCachePropagatesResolverErrors(t *testing.T) {
	ref := id.EntityRef{Kind: id.EntitySchool, ID: id.NewEntityID()}
	resolver := &countingResolver{err: dErrors.New(dErrors.CodeNotFound, "school has no administrator")}
	c := New(unreachableClient(t), resolver, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := c.ResolveAdmin(context.Background(), ref)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestKeyIncludesKind(t *testing.T) {
	entity := id.NewEntityID()
	club := key(id.EntityRef{Kind: id.EntityClub, ID: entity})
	school := key(id.EntityRef{Kind: id.EntitySchool, ID: entity})
	assert.NotEqual(t, club, school)
	assert.Equal(t, "clubid:entity_admin:club:"+entity.String(), club)
}

func TestAdminCacheBreakerSkipsRedisOnceOpen(t *testing.T) {
	ref := id.EntityRef{Kind: id.EntityClub, ID: id.NewEntityID()}
	resolver := &countingResolver{admin: id.NewPersonID()}
	breaker := circuit.New("entity_admin_cache", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	c := New(unreachableClient(t), resolver,
		WithBreaker(breaker),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	_, err := c.ResolveAdmin(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, circuit.StateOpen, breaker.State())

	got, err := c.ResolveAdmin(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, resolver.admin, got)
	assert.Equal(t, 2, resolver.calls)
	assert.False(t, breaker.Allow())
}
