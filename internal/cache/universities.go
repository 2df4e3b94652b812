package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campus-events/models"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix  = "autocomplete:universities:"
	DefaultTTL = 10 * time.Minute
)

// Universities caches autocomplete results per normalized query.
type Universities struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewUniversities(client *redis.Client, ttl time.Duration) *Universities {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Universities{Redis: client, TTL: ttl}
}

func Key(query string) string {
	return KeyPrefix + strings.ToLower(strings.TrimSpace(query))
}

// Get reports a miss as ok=false with a nil error.
func (u *Universities) Get(ctx context.Context, query string) ([]models.University, bool, error) {
	raw, err := u.Redis.Get(ctx, Key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached universities: %w", err)
	}

	var universities []models.University
	if err := json.Unmarshal(raw, &universities); err != nil {
		slog.Warn("Dropping unreadable cache entry", "key", Key(query), "error", err)
		u.Redis.Del(ctx, Key(query))
		return nil, false, nil
	}
	return universities, true, nil
}

func (u *Universities) Set(ctx context.Context, query string, universities []models.University) error {
	if universities == nil {
		universities = []models.University{}
	}
	data, err := json.Marshal(universities)
	if err != nil {
		return fmt.Errorf("encode universities: %w", err)
	}
	if err := u.Redis.Set(ctx, Key(query), data, u.TTL).Err(); err != nil {
		return fmt.Errorf("cache universities: %w", err)
	}
	return nil
}
