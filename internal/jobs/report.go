package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/outcome"
	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// Reporter scans execution histories and keeps the latest outcome per
// plugin type and dataset.
type Reporter struct {
	executions  storage.ExecutionRepository
	retry       *retry.Executor
	pageSize    int
	concurrency int
	log         *slog.Logger
}

// NewReporter creates a Reporter reading pageSize executions per query.
func NewReporter(executions storage.ExecutionRepository, exec *retry.Executor, pageSize int) *Reporter {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Reporter{
		executions:  executions,
		retry:       exec.Named("list_executions"),
		pageSize:    pageSize,
		concurrency: 4,
		log:         slog.Default().With("job", JobReport),
	}
}

// Collect reads the history of every plugin type in plugins.
// Plugin types are scanned concurrently into one aggregator.
func (r *Reporter) Collect(ctx context.Context, plugins []domain.PluginType) (*outcome.Aggregator, error) {
	agg := outcome.NewAggregator()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, plugin := range plugins {
		g.Go(func() error {
			return r.collectPlugin(ctx, agg, plugin)
		})
	}

	if err := g.Wait(); err != nil {
		return agg, err
	}
	r.log.Info("Collected outcomes", "plugins", len(plugins), "retained", agg.Len())
	return agg, nil
}

func (r *Reporter) collectPlugin(ctx context.Context, agg *outcome.Aggregator, plugin domain.PluginType) error {
	var after domain.RunID
	scanned := 0

	for {
		page, err := retry.Do(ctx, r.retry, func(ctx context.Context) ([]domain.Execution, error) {
			return r.executions.ListByPlugin(ctx, plugin, after, r.pageSize)
		})
		if err != nil {
			return fmt.Errorf("failed to list %s executions: %w", plugin, err)
		}

		for _, e := range page {
			if _, err := agg.Record(domain.OutcomeFromExecution(e)); err != nil {
				r.log.Warn("Skipping execution", "run_id", e.RunID, "error", err)
			}
		}
		scanned += len(page)

		if len(page) < r.pageSize {
			break
		}
		after = page[len(page)-1].RunID
	}

	r.log.Debug("Scanned plugin history", "plugin", plugin, "executions", scanned)
	return nil
}
