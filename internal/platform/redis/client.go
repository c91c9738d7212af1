package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"clubid/internal/platform/config"
)

var errNotConfigured = errors.New("redis not configured")

// Client is the shared go-redis connection used by the entity admin cache.
type Client struct {
	*redis.Client
}

// Open parses the URL, applies pool overrides and pings before returning.
func Open(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errNotConfigured
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyOverrides(opts, cfg)

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close() //nolint:errcheck // connection never became usable
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{Client: rdb}, nil
}

func applyOverrides(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

func (c *Client) Health(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return errNotConfigured
	}
	return c.Ping(ctx).Err()
}

// RegisterMetrics exports pool statistics, sampled at scrape time.
func (c *Client) RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(newPoolCollector(c.Client)); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return fmt.Errorf("register redis pool collector: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

type poolStatser interface {
	PoolStats() *redis.PoolStats
}

type poolCollector struct {
	src        poolStatser
	hits       *prometheus.Desc
	misses     *prometheus.Desc
	timeouts   *prometheus.Desc
	staleConns *prometheus.Desc
	totalConns *prometheus.Desc
	idleConns  *prometheus.Desc
}

func newPoolCollector(src poolStatser) *poolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("clubid_redis_pool_"+name, help, nil, nil)
	}
	return &poolCollector{
		src:        src,
		hits:       desc("hits_total", "Times a free connection was found in the pool."),
		misses:     desc("misses_total", "Times a free connection was not found in the pool."),
		timeouts:   desc("timeouts_total", "Times a wait for a connection timed out."),
		staleConns: desc("stale_conns_total", "Stale connections removed from the pool."),
		totalConns: desc("total_conns", "Connections currently in the pool."),
		idleConns:  desc("idle_conns", "Idle connections currently in the pool."),
	}
}

func (p *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.hits
	ch <- p.misses
	ch <- p.timeouts
	ch <- p.staleConns
	ch <- p.totalConns
	ch <- p.idleConns
}

func (p *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := p.src.PoolStats()
	ch <- prometheus.MustNewConstMetric(p.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(p.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(p.timeouts, prometheus.CounterValue, float64(s.Timeouts))
	ch <- prometheus.MustNewConstMetric(p.staleConns, prometheus.CounterValue, float64(s.StaleConns))
	ch <- prometheus.MustNewConstMetric(p.totalConns, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(p.idleConns, prometheus.GaugeValue, float64(s.IdleConns))
}
