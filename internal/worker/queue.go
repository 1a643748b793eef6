package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue is the list transport jobs travel over. Push adds to the head, Pop
// blocks on the tail of the first non-empty queue.
type Queue interface {
	Push(ctx context.Context, queue string, data []byte) error
	Pop(ctx context.Context, timeout time.Duration, queues ...string) (queue, data string, err error)
	Len(ctx context.Context, queue string) (int64, error)
}

// ErrEmpty is returned by Pop when the timeout passed without a job.
var ErrEmpty = errors.New("queue empty")

type redisQueue struct{ rdb *redis.Client }

// NewRedisQueue backs the queue with Redis lists (LPUSH / BRPOP).
func NewRedisQueue(rdb *redis.Client) Queue { return &redisQueue{rdb: rdb} }

func (q *redisQueue) Push(ctx context.Context, queue string, data []byte) error {
	return q.rdb.LPush(ctx, queue, data).Err()
}

func (q *redisQueue) Pop(ctx context.Context, timeout time.Duration, queues ...string) (string, string, error) {
	result, err := q.rdb.BRPop(ctx, timeout, queues...).Result()
	if errors.Is(err, redis.Nil) {
		return "", "", ErrEmpty
	}
	if err != nil {
		return "", "", err
	}
	if len(result) < 2 {
		return "", "", ErrEmpty
	}
	return result[0], result[1], nil
}

func (q *redisQueue) Len(ctx context.Context, queue string) (int64, error) {
	return q.rdb.LLen(ctx, queue).Result()
}
