package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mathviz/internal/domain"
)

// RedisQueue implements domain.JobQueue on a Redis list. Enqueue pushes to
// the left, Dequeue pops from the right, which gives FIFO ordering for the
// single-consumer worker loop.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a pending queue stored under key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "job_queue"
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	if err := q.client.LPush(ctx, q.key, id).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		id, err := q.client.RPop(ctx, q.key).Result()
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrQueueEmpty
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		return id, nil
	}

	vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrQueueEmpty
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(vals) < 2 {
		return "", fmt.Errorf("unexpected BRPOP response: %v", vals)
	}
	return vals[1], nil
}

var _ domain.JobQueue = (*RedisQueue)(nil)
