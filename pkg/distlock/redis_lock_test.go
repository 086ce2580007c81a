package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-insight-sync/internal/config"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	first := NewRedisLock(client, "sync", time.Minute)
	second := NewRedisLock(client, "sync", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "segunda réplica não pega o lock ocupado")

	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "liberar lock alheio não tem efeito")

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_TTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	lock := NewRedisLock(client, "sync", time.Minute)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("lock:sync"))

	extended, err := lock.Extend(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, extended)
	assert.Equal(t, 5*time.Minute, mr.TTL("lock:sync"))

	mr.FastForward(6 * time.Minute)

	other := NewRedisLock(client, "sync", time.Minute)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock expirado fica livre")

	extended, err = lock.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, extended)
}

func TestNewRedisLock_Defaults(t *testing.T) {
	_, client := setupTestRedis(t)

	lock := NewRedisLock(client, "", 0)
	assert.Equal(t, "lock:"+defaultLockKey, lock.key)
	assert.Equal(t, DefaultLockTTL, lock.ttl)
	assert.NotEmpty(t, lock.value)
}

func TestNew(t *testing.T) {
	t.Run("Sem REDIS_URL usa lock local", func(t *testing.T) {
		locker, closeFn, err := New(&config.Config{})
		require.NoError(t, err)
		assert.IsType(t, NoopLock{}, locker)
		assert.NoError(t, closeFn())

		ok, err := locker.Acquire(context.Background())
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Com REDIS_URL conecta no Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{Redis: config.Redis{URL: "redis://" + mr.Addr(), LockKey: "full", LockTTL: time.Minute}}

		locker, closeFn, err := New(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeFn() })

		ok, err := locker.Acquire(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, mr.Exists("lock:full"))
	})

	t.Run("URL inválida", func(t *testing.T) {
		_, _, err := New(&config.Config{Redis: config.Redis{URL: "://"}})
		assert.Error(t, err)
	})
}
