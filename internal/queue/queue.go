package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// ErrEmpty is returned by Dequeue when no job arrived within the wait
var ErrEmpty = errors.New("queue empty")

// ImportQueue is the redis-backed job queue the API enqueues imports
// onto and the worker drains. One list, JSON payloads, LPUSH/BRPOP so
// jobs run in submission order.
type ImportQueue struct {
	rdb *redis.Client
	key string
}

// NewImportQueue creates a new ImportQueue
func NewImportQueue(rdb *redis.Client, key string) *ImportQueue {
	return &ImportQueue{rdb: rdb, key: key}
}

// Enqueue assigns the job an ID and pushes it
func (q *ImportQueue) Enqueue(ctx context.Context, req domain.ImportRequest) (*domain.ImportJob, error) {
	job := &domain.ImportJob{
		ID:      uuid.New().String(),
		Request: req,
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal import job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return nil, fmt.Errorf("enqueue import job: %w", err)
	}
	return job, nil
}

// Dequeue blocks up to wait for the next job
func (q *ImportQueue) Dequeue(ctx context.Context, wait time.Duration) (*domain.ImportJob, error) {
	res, err := q.rdb.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue import job: %w", err)
	}

	// BRPOP returns [key, value]
	var job domain.ImportJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode import job: %w", err)
	}
	return &job, nil
}
