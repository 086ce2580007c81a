// Package distlock garante que só uma instância execute a sincronização
// completa por vez quando há mais de uma réplica do serviço.
package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/internal/config"
)

//go:generate mockgen -source=distlock.go -destination=mocks/distlock.go -package=mocks
type Locker interface {
	// Acquire tenta pegar o lock sem bloquear. true quando conseguiu.
	Acquire(ctx context.Context) (bool, error)
	// Extend renova o TTL enquanto o lock for desta réplica. false quando já foi perdido.
	Extend(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// New devolve um lock Redis quando REDIS_URL está configurada e um lock local
// (sempre livre) caso contrário.
func New(cfg *config.Config) (Locker, func() error, error) {
	if cfg.Redis.URL == "" {
		logrus.Info("REDIS_URL não configurada, lock distribuído desativado")
		return NoopLock{}, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao interpretar REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("erro ao conectar no Redis: %w", err)
	}

	return NewRedisLock(client, cfg.Redis.LockKey, cfg.Redis.LockTTL), client.Close, nil
}

type NoopLock struct{}

func (NoopLock) Acquire(context.Context) (bool, error) { return true, nil }

func (NoopLock) Extend(context.Context, time.Duration) (bool, error) { return true, nil }

func (NoopLock) Release(context.Context) error { return nil }
