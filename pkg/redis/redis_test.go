package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/config"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(&config.RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}

func TestCheckRateLimit_AllowsUpToLimit(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := client.CheckRateLimit(ctx, "1.2.3.4:/locations", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "第 %d 次请求应放行", i+1)
	}

	allowed, err := client.CheckRateLimit(ctx, "1.2.3.4:/locations", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "超过上限应拒绝")
}

func TestCheckRateLimit_KeysAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	allowed, err := client.CheckRateLimit(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = client.CheckRateLimit(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckRateLimit_SetsExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)

	_, err := client.CheckRateLimit(context.Background(), "ttl", 5, 30*time.Second)
	require.NoError(t, err)

	assert.True(t, mr.Exists(rateLimitPrefix+"ttl"))
	assert.Equal(t, 30*time.Second, mr.TTL(rateLimitPrefix+"ttl"))
}
