package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNotFound marks a missing draft.
var ErrNotFound = errors.New("draft not found")

// DefaultTTL bounds how long an abandoned draft is kept.
const DefaultTTL = 24 * time.Hour

// Store persists drafts by session key.
type Store interface {
	Load(ctx context.Context, key string) (*Draft, error)
	Save(ctx context.Context, key string, d *Draft) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps drafts in redis so they survive process restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed draft store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return "booking_draft:" + key
}

// Load fetches and decodes a draft.
func (s *RedisStore) Load(ctx context.Context, key string) (*Draft, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// Save encodes and stores a draft, refreshing its TTL.
func (s *RedisStore) Save(ctx context.Context, key string, d *Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Delete destroys a draft explicitly (flow abandoned or completed).
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

type memoryEntry struct {
	draft     *Draft
	updatedAt time.Time
}

// MemoryStore is the in-process fallback used when redis is not configured.
type MemoryStore struct {
	entries map[string]*memoryEntry
	mu      sync.RWMutex
	ttl     time.Duration
}

// NewMemoryStore creates an in-memory draft store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{entries: make(map[string]*memoryEntry), ttl: ttl}
}

// Load returns a stored draft, expiring stale entries lazily.
func (s *MemoryStore) Load(_ context.Context, key string) (*Draft, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || time.Since(e.updatedAt) > s.ttl {
		return nil, ErrNotFound
	}
	copied := *e.draft
	return &copied, nil
}

// Save stores a copy of the draft.
func (s *MemoryStore) Save(_ context.Context, key string, d *Draft) error {
	copied := *d
	s.mu.Lock()
	s.entries[key] = &memoryEntry{draft: &copied, updatedAt: time.Now()}
	s.mu.Unlock()
	return nil
}

// Delete removes a draft.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Cleanup removes expired entries and returns how many were dropped.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if time.Since(e.updatedAt) > s.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Manager wraps a Store with the upgrade-on-load step.
type Manager struct {
	store  Store
	logger *zerolog.Logger
}

// NewManager creates a draft manager.
func NewManager(store Store, logger *zerolog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Load returns the draft for the session key, migrated to the current
// schema. A missing draft yields a fresh one rather than an error.
func (m *Manager) Load(ctx context.Context, key string) (*Draft, error) {
	d, err := m.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}

	if Upgrade(d) {
		m.logger.Debug().Str("session", key).Msg("draft migrated to current schema")
		if err := m.store.Save(ctx, key, d); err != nil {
			m.logger.Warn().Err(err).Msg("persist migrated draft")
		}
	}
	return d, nil
}

// Save persists the draft.
func (m *Manager) Save(ctx context.Context, key string, d *Draft) error {
	return m.store.Save(ctx, key, d)
}

// Destroy removes the draft explicitly.
func (m *Manager) Destroy(ctx context.Context, key string) error {
	return m.store.Delete(ctx, key)
}
