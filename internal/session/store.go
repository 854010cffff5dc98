// Package session holds the only client state that outlives a page: the
// auth token and the isAuthenticated flag.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ariefcatur/scent-admin/internal/redisx"
	"github.com/redis/go-redis/v9"
)

const (
	KeyToken         = "token"
	KeyAuthenticated = "isAuthenticated"
)

type Store interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	IsAuthenticated(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[KeyToken], nil
}

func (m *MemoryStore) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[KeyToken] = token
	m.values[KeyAuthenticated] = "true"
	return nil
}

func (m *MemoryStore) IsAuthenticated(context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[KeyAuthenticated] == "true" && m.values[KeyToken] != "", nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, KeyToken)
	delete(m.values, KeyAuthenticated)
	return nil
}

// RedisStore keeps the session in Redis so it survives restarts of the
// console and can be shared by the worker binaries.
type RedisStore struct {
	Redis     *redis.Client
	SessionID string
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf(redisx.KeySession, s.SessionID, k)
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	v, err := s.Redis.Get(ctx, s.key(KeyToken)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	_, err := s.Redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(KeyToken), token, redisx.TTLSession)
		p.Set(ctx, s.key(KeyAuthenticated), "true", redisx.TTLSession)
		return nil
	})
	return err
}

func (s *RedisStore) IsAuthenticated(ctx context.Context) (bool, error) {
	v, err := s.Redis.Get(ctx, s.key(KeyAuthenticated)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil || v != "true" {
		return false, err
	}
	// flag without a token means the token expired or was removed by hand
	return redisx.Exists(ctx, s.Redis, s.key(KeyToken))
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.Redis.Del(ctx, s.key(KeyToken), s.key(KeyAuthenticated)).Err()
}
