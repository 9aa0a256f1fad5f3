// Package queue carries jobs and their results over Redis.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mardev60/shortZ-tube/internal/types"
)

type Job struct {
	ID              string    `json:"id"`
	VideoURL        string    `json:"videoUrl"`
	DurationSeconds float64   `json:"duration"`
	UserID          string    `json:"userId,omitempty"`
	EnqueuedAt      time.Time `json:"enqueuedAt"`
}

const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

type Result struct {
	JobID  string                   `json:"jobId"`
	Status string                   `json:"status"`
	Shorts []types.ProcessedSegment `json:"shorts,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

type RedisQueue struct {
	client        *redis.Client
	name          string
	resultChannel string
}

func NewRedisQueue(client *redis.Client, name, resultChannel string) *RedisQueue {
	return &RedisQueue{client: client, name: name, resultChannel: resultChannel}
}

// Enqueue pushes job, assigning an ID when it has none.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) (Job, error) {
	if err := job.validate(); err != nil {
		return Job{}, err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	b, err := json.Marshal(job)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, b).Err(); err != nil {
		return Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// Dequeue blocks up to timeout. It returns (nil, nil) when nothing arrived.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("invalid queue result")
	}
	return decodeJob([]byte(res[1]))
}

func (q *RedisQueue) PublishResult(ctx context.Context, r Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return q.client.Publish(ctx, q.resultChannel, b).Err()
}

func decodeJob(b []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	if err := job.validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (j Job) validate() error {
	if j.VideoURL == "" {
		return errors.New("job: videoUrl is required")
	}
	if j.DurationSeconds <= 0 {
		return fmt.Errorf("job: duration must be > 0, got %g", j.DurationSeconds)
	}
	return nil
}
