// Package queue provides a Redis-backed job queue for collection sweeps.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/viafly/viafly/config"
)

const jobTTL = 24 * time.Hour

// Job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrJobNotFound is returned when a job record has expired or never existed.
var ErrJobNotFound = errors.New("job not found")

// Job represents a queued unit of work.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    string          `json:"result,omitempty"`
}

// Queue defines the interface for a job queue.
type Queue interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) (string, error)
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	Ack(ctx context.Context, jobID, result string) error
	Nack(ctx context.Context, jobID string, cause error) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	Stats(ctx context.Context) (map[string]int64, error)
	Close() error
}

// RedisQueue implements Queue on a Redis list plus per-job records.
type RedisQueue struct {
	client *redis.Client
	name   string
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue connects to Redis and returns a queue bound to the
// configured list name.
func NewRedisQueue(cfg config.RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisQueue{client: client, name: cfg.QueueName}, nil
}

// NewRedisQueueWithClient wraps an existing client, mainly for tests.
func NewRedisQueueWithClient(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name}
}

// Enqueue stores the job record and pushes its ID onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
		Status:    StatusPending,
	}
	if err := q.persistJob(ctx, job); err != nil {
		return "", err
	}

	if err := q.client.LPush(ctx, q.name, job.ID).Err(); err != nil {
		return "", fmt.Errorf("push job to queue: %w", err)
	}
	if err := q.client.SAdd(ctx, q.statusKey(StatusPending), job.ID).Err(); err != nil {
		return "", fmt.Errorf("record pending job: %w", err)
	}
	return job.ID, nil
}

// Dequeue blocks up to timeout for the next job. A nil job with nil error
// means the wait timed out.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop job from queue: %w", err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	jobID := res[1]

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job.Status = StatusProcessing
	if err := q.persistJob(ctx, job); err != nil {
		return nil, err
	}
	if err := q.client.SMove(ctx, q.statusKey(StatusPending), q.statusKey(StatusProcessing), jobID).Err(); err != nil {
		return nil, fmt.Errorf("mark job processing: %w", err)
	}
	return job, nil
}

// Ack marks a job completed, recording where its output went.
func (q *RedisQueue) Ack(ctx context.Context, jobID, result string) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = StatusCompleted
	job.Result = result
	if err := q.persistJob(ctx, job); err != nil {
		return err
	}
	if err := q.client.SMove(ctx, q.statusKey(StatusProcessing), q.statusKey(StatusCompleted), jobID).Err(); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	return nil
}

// Nack marks a job failed with the causing error.
func (q *RedisQueue) Nack(ctx context.Context, jobID string, cause error) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = StatusFailed
	if cause != nil {
		job.Error = cause.Error()
	}
	if err := q.persistJob(ctx, job); err != nil {
		return err
	}
	if err := q.client.SMove(ctx, q.statusKey(StatusProcessing), q.statusKey(StatusFailed), jobID).Err(); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// GetJob fetches a persisted job record by ID.
func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	raw, err := q.client.Get(ctx, q.jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}

	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// Stats reports job counts per status.
func (q *RedisQueue) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64)
	for _, status := range []string{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		n, err := q.client.SCard(ctx, q.statusKey(status)).Result()
		if err != nil {
			return nil, fmt.Errorf("count %s jobs: %w", status, err)
		}
		stats[status] = n
	}
	return stats, nil
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Client returns the underlying Redis client so other components can share
// the connection.
func (q *RedisQueue) Client() *redis.Client {
	return q.client
}

func (q *RedisQueue) persistJob(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job for storage: %w", err)
	}
	if err := q.client.Set(ctx, q.jobKey(job.ID), raw, jobTTL).Err(); err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

func (q *RedisQueue) jobKey(jobID string) string {
	return fmt.Sprintf("%s:job:%s", q.name, jobID)
}

func (q *RedisQueue) statusKey(status string) string {
	return fmt.Sprintf("%s:%s", q.name, status)
}
