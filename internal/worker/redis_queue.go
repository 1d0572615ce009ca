package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// claimScript pops the single oldest task whose ready-time has passed. Pop and
// remove happen in one script so no two workers ever receive the same task.
var claimScript = redis.NewScript(`
local items = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #items == 0 then
    return false
end
redis.call('ZREM', KEYS[1], items[1])
return items[1]
`)

// RedisQueue is a delayed task queue on a Redis sorted set. The member is the
// JSON-encoded task and the score is its ready-time in unix milliseconds, so
// retry backoff falls out of ordinary range queries.
type RedisQueue struct {
	client       *redis.Client
	key          string
	pollInterval time.Duration
}

// NewRedisQueue connects to redisURL and schedules tasks under the given key.
func NewRedisQueue(redisURL, key string, pollInterval time.Duration) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &RedisQueue{
		client:       redis.NewClient(opts),
		key:          key,
		pollInterval: pollInterval,
	}, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task, delay time.Duration) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}
	readyAt := time.Now().Add(delay).UnixMilli()
	if err := q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(readyAt),
		Member: payload,
	}).Err(); err != nil {
		return fmt.Errorf("scheduling task: %w", err)
	}
	return nil
}

// Dequeue polls for the next ready task. It blocks until one is available or
// the context is done.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Task, error) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		task, err := q.tryClaim(ctx)
		if err != nil {
			return nil, err
		}
		if task != nil {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *RedisQueue) tryClaim(ctx context.Context) (*Task, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	raw, err := claimScript.Run(ctx, q.client, []string{q.key}, now).Text()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming task: %w", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return &task, nil
}

var _ Queue = (*RedisQueue)(nil)
