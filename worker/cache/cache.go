package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mzimer/vidmore/api/models"
)

const (
	statusKeyPrefix = "task:status:"
	statusTTL       = 10 * time.Minute
)

// StatusCache mirrors task status into Redis as the worker moves a task
// through its lifecycle, keeping the status endpoint fresh without a
// round-trip to the store. Keys match the api tree's cache.
type StatusCache struct {
	client *redis.Client
}

func NewStatusCache(client *redis.Client) *StatusCache {
	return &StatusCache{client: client}
}

func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (sc *StatusCache) Set(ctx context.Context, taskID int64, status models.TaskStatus) error {
	return sc.client.Set(ctx, statusKey(taskID), string(status), statusTTL).Err()
}

func statusKey(taskID int64) string {
	return fmt.Sprintf("%s%d", statusKeyPrefix, taskID)
}
