package jobs

import (
	"context"

	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// checkpoints wraps a CheckpointStore so every call is retried.
// A nil store disables checkpointing.
type checkpoints struct {
	store storage.CheckpointStore
	retry *retry.Executor
	job   string
}

func newCheckpoints(store storage.CheckpointStore, exec *retry.Executor, job string) checkpoints {
	return checkpoints{store: store, retry: exec.Named(job + "_checkpoint"), job: job}
}

func (c checkpoints) isDone(ctx context.Context, key string) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	return retry.Do(ctx, c.retry, func(ctx context.Context) (bool, error) {
		return c.store.IsDone(ctx, c.job, key)
	})
}

func (c checkpoints) markDone(ctx context.Context, key string) error {
	if c.store == nil {
		return nil
	}
	return c.retry.Run(ctx, func(ctx context.Context) error {
		return c.store.MarkDone(ctx, c.job, key)
	})
}

func (c checkpoints) reset(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.retry.Run(ctx, func(ctx context.Context) error {
		return c.store.Reset(ctx, c.job)
	})
}
