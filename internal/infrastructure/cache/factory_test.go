package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/autodealer/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachable(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	return nil, errors.New("connection refused")
}

func TestIdempotencyStoreFactory_FallsBackToMemory(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "nowhere", Port: 6379})
	f.dial = unreachable

	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
}

func TestIdempotencyStoreFactory_NoFallback(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "nowhere", Port: 6379}, WithInMemoryFallback(false))
	f.dial = unreachable

	_, err := f.CreateStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis required")
}
