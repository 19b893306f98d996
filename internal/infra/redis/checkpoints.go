package redis

import (
	"context"
	"fmt"

	"github.com/europeana/metis-tools/internal/infra/storage"
)

// CheckpointStore implements storage.CheckpointStore with one Redis set per job.
type CheckpointStore struct {
	client *Client
}

// NewCheckpointStore creates a new Redis-backed checkpoint store.
func NewCheckpointStore(client *Client) *CheckpointStore {
	return &CheckpointStore{client: client}
}

// IsDone reports whether key was marked done for job.
func (s *CheckpointStore) IsDone(ctx context.Context, job, key string) (bool, error) {
	ok, err := s.client.rdb.SIsMember(ctx, s.client.checkpointKey(job), key).Result()
	if err != nil {
		return false, fmt.Errorf("sismember failed: %w", err)
	}
	return ok, nil
}

// MarkDone records key as done for job.
func (s *CheckpointStore) MarkDone(ctx context.Context, job, key string) error {
	setKey := s.client.checkpointKey(job)
	if err := s.client.rdb.SAdd(ctx, setKey, key).Err(); err != nil {
		return fmt.Errorf("sadd failed: %w", err)
	}
	if s.client.ttl > 0 {
		if err := s.client.rdb.Expire(ctx, setKey, s.client.ttl).Err(); err != nil {
			return fmt.Errorf("expire failed: %w", err)
		}
	}
	return nil
}

// Reset forgets every checkpoint of job.
func (s *CheckpointStore) Reset(ctx context.Context, job string) error {
	if err := s.client.rdb.Del(ctx, s.client.checkpointKey(job)).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)
