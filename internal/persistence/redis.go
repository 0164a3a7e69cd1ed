package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/config"
)

const redisDialCheckTimeout = 2 * time.Second

// Redis holds the cache client. A zero Redis disables the staff cache.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client from REDIS_ADDR, which may be host:port or a
// redis:// URL. An unreachable server is logged, not fatal: the cache
// decorator degrades to the underlying repository.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not set, staff cache disabled")
		return &Redis{}
	}
	opts, err := redisOptions(cfg)
	if err != nil {
		logger.Error("invalid REDIS_ADDR, staff cache disabled", zap.Error(err))
		return &Redis{}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialCheckTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", opts.Addr), zap.Error(err))
	} else {
		logger.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	}
	return &Redis{Client: client}
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		return redis.ParseURL(cfg.Addr)
	}
	return &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, nil
}

func (r *Redis) Enabled() bool { return r != nil && r.Client != nil }

func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errors.New("redis disabled")
	}
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}
