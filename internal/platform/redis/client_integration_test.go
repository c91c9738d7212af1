//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"clubid/internal/platform/config"
	"clubid/pkg/testutil/containers"
)

func TestOpenAgainstContainer(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()

	c, err := Open(ctx, config.RedisConfig{URL: rc.Addr, PoolSize: 4})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Health(ctx))
	require.Equal(t, 4, c.Options().PoolSize)
	require.NoError(t, c.RegisterMetrics(prometheus.NewRegistry()))
}
