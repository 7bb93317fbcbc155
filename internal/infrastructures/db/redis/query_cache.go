package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

// QueryCache keeps the last search query a user applied.
type QueryCache struct {
	redis *redis.Client
}

func NewQueryCache(redis *redis.Client) *QueryCache {
	return &QueryCache{redis: redis}
}

func (c *QueryCache) GetLastQuery(ctx context.Context, userID string) (models.SearchQuery, error) {
	data, err := c.redis.Get(ctx, lastQueryKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SearchQuery{}, derr.ErrQueryNotFound
		}
		return models.SearchQuery{}, fmt.Errorf("redis get last query: %w", err)
	}

	var query models.SearchQuery
	if err := json.Unmarshal([]byte(data), &query); err != nil {
		return models.SearchQuery{}, fmt.Errorf("unmarshal cached query: %w", err)
	}

	return query, nil
}

func (c *QueryCache) SetLastQuery(ctx context.Context, userID string, query models.SearchQuery, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	normalized := query
	normalized.CheckIn = normalized.CheckIn.UTC()
	normalized.CheckOut = normalized.CheckOut.UTC()

	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("marshal query for cache: %w", err)
	}

	if err := c.redis.Set(ctx, lastQueryKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set last query: %w", err)
	}

	return nil
}

func lastQueryKey(userID string) string {
	return fmt.Sprintf("last_query:%s", userID)
}
