package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"posagent/internal/model"
)

// Store persists in-progress carts so an agent restart does not lose work.
// The key is the register id ("sell", "buy", ...) — carts on different
// registers must never cross-contaminate.
type Store interface {
	Save(ctx context.Context, register string, lines []model.CartLine) error
	Load(ctx context.Context, register string) ([]model.CartLine, bool, error)
	Clear(ctx context.Context, register string) error
}

// ── Redis store ──────────────────────────────────────────────────────────────

// cartTTL bounds how long an abandoned cart survives. A register left
// mid-sale over a weekend should come back empty, not with stale prices.
const cartTTL = 48 * time.Hour

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store { return &redisStore{rdb: rdb} }

func cartKey(register string) string { return fmt.Sprintf("cart:%s", register) }

func (s *redisStore) Save(ctx context.Context, register string, lines []model.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(register), data, cartTTL).Err()
}

func (s *redisStore) Load(ctx context.Context, register string) ([]model.CartLine, bool, error) {
	data, err := s.rdb.Get(ctx, cartKey(register)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var lines []model.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, false, err
	}
	return lines, true, nil
}

func (s *redisStore) Clear(ctx context.Context, register string) error {
	return s.rdb.Del(ctx, cartKey(register)).Err()
}

// ── In-memory store ──────────────────────────────────────────────────────────

// MemoryStore is the Store used in tests and when no Redis is configured.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]model.CartLine
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]model.CartLine)}
}

func (s *MemoryStore) Save(_ context.Context, register string, lines []model.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[register] = append([]model.CartLine(nil), lines...)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, register string) ([]model.CartLine, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.carts[register]
	return append([]model.CartLine(nil), lines...), ok, nil
}

func (s *MemoryStore) Clear(_ context.Context, register string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, register)
	return nil
}
