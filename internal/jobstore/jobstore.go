// Package jobstore is the Redis-backed cache behind the async upload
// endpoint: one job per uploaded CSV, polled by id until it finishes
// (spec.md §6, SPEC_FULL.md §11 "job store").
package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"degiro-returns/internal/aggregate"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is the record stored under one job id.
type Job struct {
	ID        string            `json:"id"`
	Status    Status            `json:"status"`
	Summary   *aggregate.Summary `json:"summary,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
	ErrorMsg  string            `json:"error,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store wraps a Redis client with the TTL and key-naming conventions the
// rest of this package assumes.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(id string) string {
	return fmt.Sprintf("degiro-returns:job:%s", id)
}

// Save writes (or overwrites) a job's current state, resetting its TTL.
func (s *Store) Save(ctx context.Context, job Job) error {
	job.UpdatedAt = time.Now()
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, key(job.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Get fetches a job by id. ok is false if the job has expired or never
// existed — the HTTP layer turns that into 404.
func (s *Store) Get(ctx context.Context, id string) (job Job, ok bool, err error) {
	raw, err := s.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, fmt.Errorf("get job %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, false, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return job, true, nil
}
