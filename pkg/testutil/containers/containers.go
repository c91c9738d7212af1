//go:build integration

// Package containers starts the Postgres, Redis and Redpanda fixtures used
// by integration suites. Each fixture is started once per test binary.
package containers

import (
	"sync"
	"testing"
)

type shared[T any] struct {
	mu    sync.Mutex
	value T
	ready bool
}

func (s *shared[T]) get(t *testing.T, start func(*testing.T) T) T {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		s.value = start(t)
		s.ready = true
	}
	return s.value
}

// Manager hands out the package-wide fixtures.
type Manager struct {
	postgres shared[*PostgresContainer]
	kafka    shared[*KafkaContainer]
	redis    shared[*RedisContainer]
}

var manager = &Manager{}

func GetManager() *Manager { return manager }

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return m.postgres.get(t, NewPostgresContainer)
}

func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return m.kafka.get(t, NewKafkaContainer)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return m.redis.get(t, NewRedisContainer)
}
