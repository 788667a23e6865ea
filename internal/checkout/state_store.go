package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redisclient "github.com/diegojoyero/joyeria-backend/pkg/redis"
)

// StateStore persists wizard state per visitor. Load returns nil and no error
// when no state exists.
type StateStore interface {
	Load(ctx context.Context, visitor string) (*State, error)
	Save(ctx context.Context, visitor string, state State) error
	Delete(ctx context.Context, visitor string) error
}

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutKey(visitor string) string
}

// RedisStateStore stores the wizard as JSON under the visitor checkout key.
type RedisStateStore struct {
	kv  redisKV
	ttl time.Duration
}

func NewRedisStateStore(kv redisKV, ttl time.Duration) (*RedisStateStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStateStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisStateStore) Load(ctx context.Context, visitor string) (*State, error) {
	raw, err := s.kv.Get(ctx, s.kv.CheckoutKey(visitor))
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode checkout state: %w", err)
	}
	return &state, nil
}

func (s *RedisStateStore) Save(ctx context.Context, visitor string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.kv.CheckoutKey(visitor), string(payload), s.ttl)
}

func (s *RedisStateStore) Delete(ctx context.Context, visitor string) error {
	return s.kv.Del(ctx, s.kv.CheckoutKey(visitor))
}

// MemoryStateStore keeps state in process memory.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: map[string]State{}}
}

func (s *MemoryStateStore) Load(_ context.Context, visitor string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[visitor]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *MemoryStateStore) Save(_ context.Context, visitor string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[visitor] = state
	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, visitor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, visitor)
	return nil
}
