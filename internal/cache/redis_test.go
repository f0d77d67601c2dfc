package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return cache, mr, cleanup
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		Restaurants: []domain.RestaurantCart{{
			Restaurant: domain.RestaurantRef{ID: 1, Name: "Burger Bros"},
			Items: []domain.CartItem{
				{ID: 7, Menu: domain.MenuRef{ID: 10, FoodName: "Burger", Price: 50000}, Quantity: 2, ItemTotal: 100000},
			},
			Subtotal: 100000,
		}},
		Summary: domain.CartSummary{TotalItems: 2, TotalPrice: 100000, RestaurantCount: 1},
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cartJSON, _ := json.Marshal(sampleCart())
	require.NoError(t, mr.Set(cacheKey("user:1"), string(cartJSON)))

	result, err := cache.Get(context.Background(), "user:1")
	require.NoError(t, err)
	require.Len(t, result.Restaurants, 1)
	assert.Equal(t, int64(7), result.Restaurants[0].Items[0].ID)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(cacheKey("user:1"), `{"cart":[`))

	_, err := cache.Get(context.Background(), "user:1")
	require.ErrorContains(t, err, "decode cached cart user:1")
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.Set(context.Background(), "user:2", sampleCart()))

	stored, err := mr.Get(cacheKey("user:2"))
	require.NoError(t, err)
	var storedCart domain.Cart
	require.NoError(t, json.Unmarshal([]byte(stored), &storedCart))
	assert.Equal(t, int64(100000), storedCart.Summary.TotalPrice)

	ttl := mr.TTL(cacheKey("user:2"))
	assert.True(t, ttl >= 5*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl < 6*time.Minute, "TTL should be base + max jitter")
}

func TestDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user:3", sampleCart()))
	assert.True(t, mr.Exists(cacheKey("user:3")))

	require.NoError(t, cache.Delete(ctx, "user:3"))
	assert.False(t, mr.Exists(cacheKey("user:3")))

	// Deleting non-existent key should not error
	assert.NoError(t, cache.Delete(ctx, "user:3"))
}

func TestOwnersAreIsolated(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user:1", sampleCart()))

	_, err := cache.Get(ctx, "user:2")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Get(ctx, "session:sess-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSet_UsesConfiguredTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	cache.ttl = func() time.Duration { return time.Minute }

	require.NoError(t, cache.Set(context.Background(), "user:4", sampleCart()))
	assert.Equal(t, time.Minute, mr.TTL(cacheKey("user:4")))
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:user:7", cacheKey("user:7"))
}
