package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	redisclient "github.com/diegojoyero/joyeria-backend/pkg/redis"
)

// Storage persists the serialized cart of a single visitor. Load returns nil
// data and no error when nothing was stored yet.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisStorage keeps the cart under the visitor's namespaced storage key.
type RedisStorage struct {
	store kvStore
	key   string
	ttl   time.Duration
}

// NewRedisStorage binds storage to key. The key is normally built with
// redis.Client.CartKey.
func NewRedisStorage(store kvStore, key string, ttl time.Duration) (*RedisStorage, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if key == "" {
		return nil, fmt.Errorf("cart key required")
	}
	return &RedisStorage{store: store, key: key, ttl: ttl}, nil
}

func (s *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	value, err := s.store.Get(ctx, s.key)
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(value), nil
}

func (s *RedisStorage) Save(ctx context.Context, data []byte) error {
	return s.store.Set(ctx, s.key, string(data), s.ttl)
}

// MemoryStorage is a process-local Storage used by tests and by visitors when
// Redis is not configured.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func NewMemoryStorage(initial []byte) *MemoryStorage {
	return &MemoryStorage{data: initial}
}

func (s *MemoryStorage) Load(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		return nil, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *MemoryStorage) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data = append([]byte(nil), data...)
	return nil
}

// FailWith makes every subsequent Load and Save return err. Passing nil
// restores normal behavior.
func (s *MemoryStorage) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Bytes returns the last saved payload.
func (s *MemoryStorage) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
