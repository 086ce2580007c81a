package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vfg2006/ads-insight-sync/pkg/utils"
)

const (
	defaultLockKey = "insight-sync:full"
	DefaultLockTTL = 30 * time.Minute
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RedisLock usa SET NX com TTL. O valor identifica o dono, então uma réplica
// nunca libera o lock de outra.
type RedisLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = defaultLockKey
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	value, err := utils.GenerateRecordID()
	if err != nil {
		value = fmt.Sprintf("%d", time.Now().UnixNano())
	}

	return &RedisLock{
		client: client,
		key:    fmt.Sprintf("lock:%s", key),
		value:  value,
		ttl:    ttl,
	}
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("erro ao adquirir lock %s: %w", l.key, err)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil {
		return fmt.Errorf("erro ao liberar lock %s: %w", l.key, err)
	}
	return nil
}

// Extend renova o TTL enquanto o lock ainda for nosso.
func (l *RedisLock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("erro ao renovar lock %s: %w", l.key, err)
	}
	return n == 1, nil
}
