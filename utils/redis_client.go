package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisOptions accepts either a redis:// URL or a bare host:port.
// Explicit password and db only apply when the URL does not carry them.
func NewRedisOptions(url, password string, db int) *redis.Options {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Fall back to simple connection
		opts = &redis.Options{
			Addr: url,
			DB:   db,
		}
	}
	if opts.Password == "" {
		opts.Password = password
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 1
	opts.MaxRetries = 3

	return opts
}

// NewRedisClient connects and pings. Unlike a server process the CLI can
// run without its cache, so a failed ping is returned instead of fatal.
func NewRedisClient(ctx context.Context, url, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(NewRedisOptions(url, password, db))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	slog.Debug("connected to redis", "addr", client.Options().Addr)
	return client, nil
}

// RedisHealthCheck performs a health check on Redis connection
func RedisHealthCheck(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}
