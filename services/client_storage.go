package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientStorage is per-session key/value state kept for the browser.
// It is wiped on sign-out and on inactivity expiry.
type ClientStorage interface {
	Set(ctx context.Context, sessionID, key, value string) error
	All(ctx context.Context, sessionID string) (map[string]string, error)
	Clear(ctx context.Context, sessionID string) error
}

type RedisClientStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClientStorage keeps each session's values in a hash that expires
// with the session.
func NewRedisClientStorage(client *redis.Client, ttl time.Duration) *RedisClientStorage {
	return &RedisClientStorage{client: client, ttl: ttl}
}

func clientKey(sessionID string) string { return "client:" + sessionID }

func (s *RedisClientStorage) Set(ctx context.Context, sessionID, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, clientKey(sessionID), key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, clientKey(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("client storage set: %w", err)
	}
	return nil
}

func (s *RedisClientStorage) All(ctx context.Context, sessionID string) (map[string]string, error) {
	vals, err := s.client.HGetAll(ctx, clientKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("client storage read: %w", err)
	}
	return vals, nil
}

func (s *RedisClientStorage) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, clientKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("client storage clear: %w", err)
	}
	return nil
}

type MemoryClientStorage struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryClientStorage() *MemoryClientStorage {
	return &MemoryClientStorage{data: make(map[string]map[string]string)}
}

func (s *MemoryClientStorage) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[sessionID] == nil {
		s.data[sessionID] = make(map[string]string)
	}
	s.data[sessionID][key] = value
	return nil
}

func (s *MemoryClientStorage) All(_ context.Context, sessionID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.data[sessionID]))
	for k, v := range s.data[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryClientStorage) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
	return nil
}
