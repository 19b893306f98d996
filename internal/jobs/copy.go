package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// Copier copies the records of datasets from one database to another.
type Copier struct {
	source      storage.RecordRepository
	target      storage.RecordRepository
	checkpoints checkpoints
	readRetry   *retry.Executor
	writeRetry  *retry.Executor
	batchSize   int
	log         *slog.Logger
}

// NewCopier creates a Copier moving batchSize records per round trip.
// checkpointStore may be nil.
func NewCopier(
	source, target storage.RecordRepository,
	checkpointStore storage.CheckpointStore,
	exec *retry.Executor,
	batchSize int,
) *Copier {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Copier{
		source:      source,
		target:      target,
		checkpoints: newCheckpoints(checkpointStore, exec, JobCopy),
		readRetry:   exec.Named("read_records"),
		writeRetry:  exec.Named("write_records"),
		batchSize:   batchSize,
		log:         slog.Default().With("job", JobCopy),
	}
}

// ResetCheckpoints forgets which datasets earlier runs copied.
func (c *Copier) ResetCheckpoints(ctx context.Context) error {
	return c.checkpoints.reset(ctx)
}

// Run copies every dataset in datasetIDs. A dataset whose retries run out
// is counted as failed and the job moves on. Cancellation stops the job.
func (c *Copier) Run(ctx context.Context, datasetIDs []string) (Summary, error) {
	summary := Summary{Job: JobCopy}

	for _, id := range datasetIDs {
		done, err := c.checkpoints.isDone(ctx, id)
		if err != nil {
			if errors.Is(err, retry.ErrCancelled) {
				return summary, err
			}
			summary.failed(id, err)
			continue
		}
		if done {
			c.log.Debug("Dataset already copied", "dataset", id)
			summary.skipped()
			continue
		}

		copied, err := c.copyDataset(ctx, id)
		summary.Records += copied
		if err != nil {
			if errors.Is(err, retry.ErrCancelled) {
				return summary, err
			}
			c.log.Error("Failed to copy dataset", "dataset", id, "copied", copied, "error", err)
			summary.failed(id, err)
			continue
		}

		if err := c.checkpoints.markDone(ctx, id); err != nil {
			if errors.Is(err, retry.ErrCancelled) {
				return summary, err
			}
			c.log.Warn("Failed to checkpoint dataset", "dataset", id, "error", err)
		}
		c.log.Info("Copied dataset", "dataset", id, "records", copied)
		summary.processed()
	}

	return summary, nil
}

func (c *Copier) copyDataset(ctx context.Context, datasetID string) (int64, error) {
	var (
		after  string
		copied int64
	)

	for {
		page, err := retry.Do(ctx, c.readRetry, func(ctx context.Context) ([]domain.Record, error) {
			return c.source.ListByDataset(ctx, datasetID, after, c.batchSize)
		})
		if err != nil {
			return copied, fmt.Errorf("failed to read records after %q: %w", after, err)
		}
		if len(page) == 0 {
			return copied, nil
		}

		if err := c.writeRetry.Run(ctx, func(ctx context.Context) error {
			return c.target.SaveBatch(ctx, page)
		}); err != nil {
			return copied, fmt.Errorf("failed to write records after %q: %w", after, err)
		}

		copied += int64(len(page))
		if len(page) < c.batchSize {
			return copied, nil
		}
		after = page[len(page)-1].RecordID
	}
}
