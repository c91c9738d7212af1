// Package cache keeps entity administrators in Redis for notification routing.
//
// Authorization always goes through the directory. The cache only decides
// who is told about a proposal, where a briefly stale answer is acceptable.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "clubid/pkg/domain"
	"clubid/pkg/platform/circuit"
)

const (
	keyPrefix  = "clubid:entity_admin:"
	defaultTTL = 5 * time.Minute
)

// AdminResolver resolves the administrator of an entity.
type AdminResolver interface {
	ResolveAdmin(ctx context.Context, ref id.EntityRef) (id.PersonID, error)
}

// AdminCache is a read-through cache in front of an AdminResolver. Redis
// failures fall through to the resolver. With a breaker, repeated failures
// stop Redis traffic until a probe succeeds.
type AdminCache struct {
	client  redis.Cmdable
	next    AdminResolver
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

type Option func(*AdminCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *AdminCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *AdminCache) { c.logger = logger }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *AdminCache) { c.breaker = b }
}

func New(client redis.Cmdable, next AdminResolver, opts ...Option) *AdminCache {
	c := &AdminCache{client: client, next: next, ttl: defaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(ref id.EntityRef) string {
	return keyPrefix + ref.String()
}

func (c *AdminCache) ResolveAdmin(ctx context.Context, ref id.EntityRef) (id.PersonID, error) {
	useRedis := c.allow()
	if useRedis {
		raw, err := c.client.Get(ctx, key(ref)).Result()
		switch {
		case err == nil:
			c.record(nil)
			if admin, perr := id.ParsePersonID(raw); perr == nil {
				return admin, nil
			}
			c.logger.WarnContext(ctx, "discarding malformed cached administrator", "entity", ref.String())
		case errors.Is(err, redis.Nil):
			c.record(nil)
		default:
			c.record(err)
			useRedis = false
			c.logger.WarnContext(ctx, "entity admin cache read failed", "entity", ref.String(), "error", err)
		}
	}

	admin, err := c.next.ResolveAdmin(ctx, ref)
	if err != nil {
		return id.PersonID{}, err
	}
	if !useRedis {
		return admin, nil
	}
	if err := c.client.Set(ctx, key(ref), admin.String(), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "entity admin cache write failed", "entity", ref.String(), "error", err)
	}
	return admin, nil
}

func (c *AdminCache) allow() bool {
	return c.breaker == nil || c.breaker.Allow()
}

func (c *AdminCache) record(err error) {
	if c.breaker != nil {
		c.breaker.Record(err)
	}
}

// Invalidate drops the cached administrator of ref.
func (c *AdminCache) Invalidate(ctx context.Context, ref id.EntityRef) error {
	return c.client.Del(ctx, key(ref)).Err()
}
