package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"ignist/internal/config"
	"ignist/internal/logging"
)

// RedisOptions parses the URI and applies the pool settings.
func RedisOptions(cfg config.Redis) (*redis.Options, error) {
	opt, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	return opt, nil
}

// ConnectRedis connects to the rate limit store.
func ConnectRedis(ctx context.Context, cfg config.Redis, logger logging.Logger) (*redis.Client, error) {
	opt, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info(ctx, "connected to redis", "addr", opt.Addr)
	return client, nil
}
