package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubid/internal/platform/config"
)

type fixedStats struct{ stats redis.PoolStats }

func (f fixedStats) PoolStats() *redis.PoolStats { return &f.stats }

func TestOpenRequiresURL(t *testing.T) {
	c, err := Open(context.Background(), config.RedisConfig{})
	assert.Nil(t, c)
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestOpenRejectsMalformedURL(t *testing.T) {
	_, err := Open(context.Background(), config.RedisConfig{URL: "http://not-redis"})
	assert.ErrorContains(t, err, "parse redis URL")
}

func TestOverridesKeepParsedDefaultsWhenUnset(t *testing.T) {
	opts := &redis.Options{PoolSize: 40, DialTimeout: time.Second}
	applyOverrides(opts, config.RedisConfig{MinIdleConns: 4})
	assert.Equal(t, 40, opts.PoolSize)
	assert.Equal(t, 4, opts.MinIdleConns)
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestPoolCollectorSamplesAtScrape(t *testing.T) {
	src := &fixedStats{stats: redis.PoolStats{Hits: 7, Misses: 2, TotalConns: 3, IdleConns: 1}}
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(newPoolCollector(src)))

	assert.Equal(t, float64(7), gathered(t, reg, "clubid_redis_pool_hits_total"))

	src.stats.Hits = 10
	assert.Equal(t, float64(10), gathered(t, reg, "clubid_redis_pool_hits_total"))
	assert.Equal(t, float64(3), gathered(t, reg, "clubid_redis_pool_total_conns"))
}

func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		m := f.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
