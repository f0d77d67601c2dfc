package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "cart:"
	baseTTL   = 5 * time.Minute
	maxJitter = 60
)

// RedisCache stores each owner's cart as one JSON string.
type RedisCache struct {
	client *redis.Client
	ttl    func() time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ttl: jitteredTTL}
}

// jitteredTTL spreads expiry so carts cached together do not expire together.
func jitteredTTL() time.Duration {
	return baseTTL + time.Duration(rand.Intn(maxJitter))*time.Second
}

func (r *RedisCache) Get(ctx context.Context, owner string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(owner)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("cart cache get %s: %w", owner, err)
	}

	cart := new(domain.Cart)
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("decode cached cart %s: %w", owner, err)
	}
	return cart, nil
}

func (r *RedisCache) Set(ctx context.Context, owner string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", owner, err)
	}
	if err := r.client.Set(ctx, cacheKey(owner), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("cart cache set %s: %w", owner, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, cacheKey(owner)).Err(); err != nil {
		return fmt.Errorf("cart cache delete %s: %w", owner, err)
	}
	return nil
}

func cacheKey(owner string) string {
	return keyPrefix + owner
}
