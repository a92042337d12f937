package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mzimer/vidmore/api/database"
	"github.com/mzimer/vidmore/api/models"
)

const (
	statusKeyPrefix = "task:status:"
	statusTTL       = 10 * time.Minute
)

// StatusCache is a read-aside cache for task statuses keyed by task id.
// The store remains the source of truth; entries expire after statusTTL.
type StatusCache struct {
	cache *database.Cache
}

func NewStatusCache(cache *database.Cache) *StatusCache {
	return &StatusCache{cache: cache}
}

func (sc *StatusCache) Get(ctx context.Context, taskID int64) (models.TaskStatus, error) {
	data, err := sc.cache.Get(ctx, statusKey(taskID))
	if err != nil {
		return "", err
	}

	status, ok := models.ParseTaskStatus(data)
	if !ok {
		return "", fmt.Errorf("corrupt cached status %q for task %d", data, taskID)
	}
	return status, nil
}

func (sc *StatusCache) Set(ctx context.Context, taskID int64, status models.TaskStatus) error {
	return sc.cache.Set(ctx, statusKey(taskID), string(status), statusTTL)
}

func (sc *StatusCache) Delete(ctx context.Context, taskID int64) error {
	return sc.cache.Del(ctx, statusKey(taskID))
}

func statusKey(taskID int64) string {
	return fmt.Sprintf("%s%d", statusKeyPrefix, taskID)
}
