package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// Depublisher marks datasets as depublished.
type Depublisher struct {
	datasets    storage.DatasetRepository
	checkpoints checkpoints
	retry       *retry.Executor
	now         func() time.Time
	log         *slog.Logger
}

// NewDepublisher creates a Depublisher. checkpointStore may be nil.
func NewDepublisher(
	datasets storage.DatasetRepository,
	checkpointStore storage.CheckpointStore,
	exec *retry.Executor,
) *Depublisher {
	return &Depublisher{
		datasets:    datasets,
		checkpoints: newCheckpoints(checkpointStore, exec, JobDepublish),
		retry:       exec.Named("depublish_dataset"),
		now:         time.Now,
		log:         slog.Default().With("job", JobDepublish),
	}
}

// ResetCheckpoints forgets which datasets earlier runs depublished.
func (d *Depublisher) ResetCheckpoints(ctx context.Context) error {
	return d.checkpoints.reset(ctx)
}

// Run depublishes every dataset in datasetIDs. A dataset whose retries run
// out is counted as failed and the job moves on. Cancellation stops the job.
func (d *Depublisher) Run(ctx context.Context, datasetIDs []string) (Summary, error) {
	summary := Summary{Job: JobDepublish}

	for _, id := range datasetIDs {
		done, err := d.checkpoints.isDone(ctx, id)
		if err != nil {
			if errors.Is(err, retry.ErrCancelled) {
				return summary, err
			}
			summary.failed(id, err)
			continue
		}
		if done {
			d.log.Debug("Dataset already depublished", "dataset", id)
			summary.skipped()
			continue
		}

		at := d.now()
		found, err := retry.Do(ctx, d.retry, func(ctx context.Context) (bool, error) {
			err := d.datasets.Depublish(ctx, id, at)
			if errors.Is(err, storage.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		})
		if err != nil {
			if errors.Is(err, retry.ErrCancelled) {
				return summary, err
			}
			d.log.Error("Failed to depublish dataset", "dataset", id, "error", err)
			summary.failed(id, err)
			continue
		}
		if !found {
			d.log.Warn("Dataset not found", "dataset", id)
			summary.skipped()
			continue
		}

		if err := d.checkpoints.markDone(ctx, id); err != nil {
			if errors.Is(err, retry.ErrCancelled) {
				return summary, err
			}
			d.log.Warn("Failed to checkpoint dataset", "dataset", id, "error", err)
		}
		d.log.Info("Depublished dataset", "dataset", id)
		summary.processed()
	}

	return summary, nil
}
