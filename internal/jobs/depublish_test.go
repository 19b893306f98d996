package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage/memory"
)

func seedDatasets(store *memory.MemoryStorage, ids ...string) {
	for _, id := range ids {
		store.AddDataset(domain.Dataset{ID: id, Name: "dataset " + id, Published: true})
	}
}

func TestDepublisher_Run(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedDatasets(store, "1", "2")
	datasets := memory.NewDatasetRepo(store)

	d := NewDepublisher(datasets, memory.NewCheckpointStore(store), testExecutor(2))
	summary, err := d.Run(context.Background(), []string{"1", "missing", "2"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Processed != 2 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %s", summary)
	}
	for _, id := range []string{"1", "2"} {
		ds, _ := datasets.Get(context.Background(), id)
		if ds.Published || ds.DepublishedAt == nil {
			t.Errorf("dataset %s still published", id)
		}
	}
}

func TestDepublisher_SkipsCheckpointedDatasets(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedDatasets(store, "1", "2")
	checkpoints := memory.NewCheckpointStore(store)

	first := NewDepublisher(memory.NewDatasetRepo(store), checkpoints, testExecutor(0))
	if _, err := first.Run(context.Background(), []string{"1"}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	repo := &flakyDatasets{DatasetRepository: memory.NewDatasetRepo(store)}
	second := NewDepublisher(repo, checkpoints, testExecutor(0))
	summary, err := second.Run(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if summary.Skipped != 1 || summary.Processed != 1 {
		t.Errorf("summary = %s", summary)
	}
	if repo.calls["1"] != 0 {
		t.Errorf("checkpointed dataset was depublished again")
	}

	if err := second.ResetCheckpoints(context.Background()); err != nil {
		t.Fatalf("ResetCheckpoints failed: %v", err)
	}
	summary, _ = second.Run(context.Background(), []string{"1"})
	if summary.Processed != 1 {
		t.Errorf("after reset: summary = %s", summary)
	}
}

func TestDepublisher_ExhaustionSkipsDataset(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedDatasets(store, "1", "2", "3")
	repo := &flakyDatasets{
		DatasetRepository: memory.NewDatasetRepo(store),
		broken:            map[string]bool{"2": true},
	}

	d := NewDepublisher(repo, nil, testExecutor(2))
	summary, err := d.Run(context.Background(), []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Processed != 2 || summary.Failed != 1 {
		t.Errorf("summary = %s", summary)
	}
	if repo.calls["2"] != 3 {
		t.Errorf("broken dataset attempts = %d, want 3", repo.calls["2"])
	}
	if len(summary.Failures) != 1 || summary.Failures[0].Key != "2" {
		t.Errorf("failures = %+v", summary.Failures)
	}
}

func TestDepublisher_CancellationStopsJob(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedDatasets(store, "1", "2")
	repo := &flakyDatasets{
		DatasetRepository: memory.NewDatasetRepo(store),
		broken:            map[string]bool{"1": true},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDepublisher(repo, nil, testExecutor(retry.Unbounded))
	_, err := d.Run(ctx, []string{"1", "2"})
	if !errors.Is(err, retry.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if repo.calls["2"] != 0 {
		t.Errorf("job continued after cancellation")
	}
}
