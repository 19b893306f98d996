package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

var errFlaky = errors.New("connection reset by peer")

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func testExecutor(limit retry.Limit) *retry.Executor {
	return retry.New("test", retry.Policy{Limit: limit, Delay: time.Second}, retry.WithSleep(noSleep))
}

// flakyExecutions fails the first failures calls before delegating.
type flakyExecutions struct {
	storage.ExecutionRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyExecutions) ListByPlugin(ctx context.Context, plugin domain.PluginType, after domain.RunID, limit int) ([]domain.Execution, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, errFlaky
	}
	return f.ExecutionRepository.ListByPlugin(ctx, plugin, after, limit)
}

// flakyDatasets always fails for the datasets listed in broken.
type flakyDatasets struct {
	storage.DatasetRepository
	broken map[string]bool
	calls  map[string]int
}

func (f *flakyDatasets) Depublish(ctx context.Context, id string, at time.Time) error {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[id]++
	if f.broken[id] {
		return errFlaky
	}
	return f.DatasetRepository.Depublish(ctx, id, at)
}

// flakyRecords fails the first failures SaveBatch calls before delegating.
type flakyRecords struct {
	storage.RecordRepository
	failures int
	calls    int
}

func (f *flakyRecords) SaveBatch(ctx context.Context, records []domain.Record) error {
	f.calls++
	if f.calls <= f.failures {
		return errFlaky
	}
	return f.RecordRepository.SaveBatch(ctx, records)
}

// vanishingTags lists stored tags but reports every write as not found,
// as if the tag was deleted between the read and the update.
type vanishingTags struct {
	storage.MappingTagRepository
	writes int
}

func (v *vanishingTags) SetNamespace(ctx context.Context, id int64, ns domain.Namespace) error {
	v.writes++
	return fmt.Errorf("mapping tag %d: %w", id, storage.ErrNotFound)
}
