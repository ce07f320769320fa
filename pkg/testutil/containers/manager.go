//go:build integration

// Package containers starts shared testcontainers for integration tests.
// Containers are created once per test binary and reused across suites.
package containers

import (
	"context"
	"sync"
	"testing"
	"time"
)

// Manager hands out lazily started, shared containers.
type Manager struct {
	pgOnce sync.Once
	pg     *PostgresContainer
	pgErr  error

	redisOnce sync.Once
	redis     *RedisContainer
	redisErr  error

	kafkaOnce sync.Once
	kafka     *KafkaContainer
	kafkaErr  error
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns the shared Postgres container, skipping the test in
// -short mode.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	m.pgOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		m.pg, m.pgErr = startPostgres(ctx)
	})
	if m.pgErr != nil {
		t.Fatalf("failed to start postgres container: %v", m.pgErr)
	}
	return m.pg
}

// GetRedis returns the shared Redis container, skipping the test in -short mode.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	m.redisOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		m.redis, m.redisErr = startRedis(ctx)
	})
	if m.redisErr != nil {
		t.Fatalf("failed to start redis container: %v", m.redisErr)
	}
	return m.redis
}

// GetKafka returns the shared Kafka-compatible broker, skipping the test in
// -short mode.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	m.kafkaOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		m.kafka, m.kafkaErr = startKafka(ctx)
	})
	if m.kafkaErr != nil {
		t.Fatalf("failed to start kafka container: %v", m.kafkaErr)
	}
	return m.kafka
}
