package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session in one hash; every write extends its TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string, key Key, out interface{}) error {
	data, err := s.client.HGet(ctx, sessionKey(sessionID), string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis hget %s failed: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, key Key, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	hkey := sessionKey(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hkey, string(key), data)
		pipe.Expire(ctx, hkey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s failed: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = string(k)
	}
	if err := s.client.HDel(ctx, sessionKey(sessionID), fields...).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}
