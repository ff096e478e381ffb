// Package kv is the durable key-value storage used for client-side state
// (cart, bearer token, profile). Values are opaque strings, usually JSON.
package kv

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/campusmarket-client/pkg/config"
	"github.com/angelmondragon/campusmarket-client/pkg/db"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"github.com/angelmondragon/campusmarket-client/pkg/migrate"
	"github.com/angelmondragon/campusmarket-client/pkg/redis"
)

// Store is the durable storage surface.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}

// Pinger is implemented by stores backed by a remote server or database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Batcher is implemented by stores that can write several keys atomically.
type Batcher interface {
	SetMany(ctx context.Context, entries map[string]string) error
}

// SetMany writes entries in one batch when store supports it, otherwise one
// key at a time.
func SetMany(ctx context.Context, store Store, entries map[string]string) error {
	if b, ok := store.(Batcher); ok {
		return b.SetMany(ctx, entries)
	}
	for key, value := range entries {
		if err := store.Set(ctx, key, value); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

// Open picks the storage backend configured for this process.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, error) {
	switch cfg.Storage.NormalizedDriver() {
	case config.StorageDriverMemory:
		return NewMemory(), nil
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return NewRedis(client), nil
	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		client, err := db.New(ctx, cfg.Storage, logg)
		if err != nil {
			return nil, fmt.Errorf("open sql storage: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg.Storage, logg, client); err != nil {
			_ = client.Close()
			return nil, err
		}
		return NewSQL(client), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// Memory is a process-local Store. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) SetMany(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range entries {
		m.data[key] = value
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
