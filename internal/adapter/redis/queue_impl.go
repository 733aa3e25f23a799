package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

const crawlQueueKey = "trackscope:queue"

// QueueRepoImpl keeps crawl jobs as JSON entries of a Redis list.
type QueueRepoImpl struct {
	client redis.Cmdable
	key    string
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client redis.Cmdable) *QueueRepoImpl {
	return &QueueRepoImpl{client: client, key: crawlQueueKey}
}

// Push adds a job to the left side of the list.
func (r *QueueRepoImpl) Push(ctx context.Context, job entity.CrawlJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return r.client.LPush(ctx, r.key, data).Err()
}

// Pop removes the oldest job from the right side of the list. An empty
// queue yields repository.ErrNotFound.
func (r *QueueRepoImpl) Pop(ctx context.Context) (*entity.CrawlJob, error) {
	data, err := r.client.RPop(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var job entity.CrawlJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %q: %w", data, err)
	}
	return &job, nil
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}
