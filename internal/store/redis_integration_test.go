package store

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T) *redis.Client {
	ctx := context.Background()
	redisC, err := testcontainers.Run(
		ctx, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	testcontainers.CleanupContainer(t, redisC)
	require.NoError(t, err)

	endpoint, err := redisC.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	s := NewRedisStore(setupRedisContainer(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "sess-it", KeyCheckoutStaging, record{Name: "Burger Bros", Total: 150000}))

	var got record
	require.NoError(t, s.Get(ctx, "sess-it", KeyCheckoutStaging, &got))
	assert.Equal(t, int64(150000), got.Total)

	require.NoError(t, s.Delete(ctx, "sess-it", KeyCheckoutStaging))
	assert.ErrorIs(t, s.Get(ctx, "sess-it", KeyCheckoutStaging, &got), ErrNotFound)
}
