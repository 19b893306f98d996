package outcome

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/europeana/metis-tools/internal/core/domain"
)

func newOutcome(category domain.PluginType, dataset string, run domain.RunID) domain.Outcome {
	return domain.OutcomeFromExecution(domain.Execution{
		RunID:      run,
		DatasetID:  dataset,
		PluginType: category,
		Status:     domain.ExecutionStatusFinished,
	})
}

func TestRecord_KeepsMostRecentRegardlessOfOrder(t *testing.T) {
	orders := map[string][]domain.RunID{
		"chronological":         {1, 2, 3, 4, 5},
		"reverse chronological": {5, 4, 3, 2, 1},
		"shuffled":              {3, 1, 5, 2, 4},
	}

	for name, runs := range orders {
		t.Run(name, func(t *testing.T) {
			agg := NewAggregator()
			for _, run := range runs {
				if _, err := agg.Record(newOutcome(domain.PluginTypePublish, "dataset-1", run)); err != nil {
					t.Fatalf("Record failed: %v", err)
				}
			}

			view := agg.Get(domain.PluginTypePublish)
			if view.Len() != 1 {
				t.Fatalf("len = %d, want 1", view.Len())
			}
			if got := view.At(0).RunID; got != 5 {
				t.Errorf("retained run = %d, want 5", got)
			}
		})
	}
}

func TestRecord_ReportsWhetherRetained(t *testing.T) {
	agg := NewAggregator()

	kept, _ := agg.Record(newOutcome(domain.PluginTypeHarvest, "d", 10))
	if !kept {
		t.Errorf("first outcome should be retained")
	}
	kept, _ = agg.Record(newOutcome(domain.PluginTypeHarvest, "d", 9))
	if kept {
		t.Errorf("older outcome should not be retained")
	}
	kept, _ = agg.Record(newOutcome(domain.PluginTypeHarvest, "d", 11))
	if !kept {
		t.Errorf("newer outcome should be retained")
	}
}

func TestRecord_TieKeepsFirstSeen(t *testing.T) {
	agg := NewAggregator()

	first := newOutcome(domain.PluginTypeEnrichment, "d", 7)
	first.Payload.Status = domain.ExecutionStatusFailed
	second := newOutcome(domain.PluginTypeEnrichment, "d", 7)
	second.Payload.Status = domain.ExecutionStatusFinished

	_, _ = agg.Record(first)
	kept, _ := agg.Record(second)
	if kept {
		t.Errorf("tied outcome should not replace the existing one")
	}

	got, _ := agg.Get(domain.PluginTypeEnrichment).Lookup("d")
	if got.Payload.Status != domain.ExecutionStatusFailed {
		t.Errorf("status = %s, want first-seen FAILED", got.Payload.Status)
	}
}

func TestRecord_RejectsInvalidKeys(t *testing.T) {
	agg := NewAggregator()

	if _, err := agg.Record(newOutcome("", "d", 1)); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("empty category: err = %v, want ErrInvalidOutcome", err)
	}
	if _, err := agg.Record(newOutcome(domain.PluginTypePreview, "", 1)); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("empty dataset: err = %v, want ErrInvalidOutcome", err)
	}
	if agg.Len() != 0 {
		t.Errorf("invalid outcomes must not be stored")
	}
}

func TestGet_EmptyCategory(t *testing.T) {
	agg := NewAggregator()
	_, _ = agg.Record(newOutcome(domain.PluginTypePublish, "d", 1))

	view := agg.Get(domain.PluginTypeDepublish)
	if view.Len() != 0 {
		t.Errorf("len = %d, want 0", view.Len())
	}
	if view.Outcomes() == nil {
		t.Errorf("Outcomes() should be empty, not nil")
	}
	data, err := view.MarshalJSON()
	if err != nil || string(data) != "[]" {
		t.Errorf("MarshalJSON = %s, %v; want []", data, err)
	}
}

func TestGet_SortedByDataset(t *testing.T) {
	agg := NewAggregator()
	for i, id := range []string{"30", "100", "2", "21"} {
		_, _ = agg.Record(newOutcome(domain.PluginTypeTransformation, id, domain.RunID(i+1)))
	}

	view := agg.Get(domain.PluginTypeTransformation)
	want := []string{"100", "2", "21", "30"}
	for i, id := range want {
		if view.At(i).DatasetID != id {
			t.Errorf("position %d = %s, want %s", i, view.At(i).DatasetID, id)
		}
	}

	if _, ok := view.Lookup("21"); !ok {
		t.Errorf("Lookup(21) should find the outcome")
	}
	if _, ok := view.Lookup("22"); ok {
		t.Errorf("Lookup(22) should not find an outcome")
	}
}

func TestGet_ViewIsImmutable(t *testing.T) {
	agg := NewAggregator()
	_, _ = agg.Record(newOutcome(domain.PluginTypePublish, "a", 1))

	view := agg.Get(domain.PluginTypePublish)
	copied := view.Outcomes()
	copied[0].DatasetID = "mutated"

	_, _ = agg.Record(newOutcome(domain.PluginTypePublish, "a", 2))
	_, _ = agg.Record(newOutcome(domain.PluginTypePublish, "b", 3))

	if view.Len() != 1 || view.At(0).DatasetID != "a" || view.At(0).RunID != 1 {
		t.Errorf("view changed after later records: %+v", view.At(0))
	}
}

func TestCategories_InterleavedRecords(t *testing.T) {
	agg := NewAggregator()
	_, _ = agg.Record(newOutcome(domain.PluginTypePublish, "a", 4))
	_, _ = agg.Record(newOutcome(domain.PluginTypeHarvest, "a", 1))
	_, _ = agg.Record(newOutcome(domain.PluginTypePublish, "b", 2))
	_, _ = agg.Record(newOutcome(domain.PluginTypeHarvest, "a", 3))

	categories := agg.Categories()
	if len(categories) != 2 || categories[0] != domain.PluginTypeHarvest || categories[1] != domain.PluginTypePublish {
		t.Errorf("categories = %v", categories)
	}
	if agg.Len() != 3 {
		t.Errorf("len = %d, want 3", agg.Len())
	}
	if got, _ := agg.Get(domain.PluginTypeHarvest).Lookup("a"); got.RunID != 3 {
		t.Errorf("harvest run = %d, want 3", got.RunID)
	}
}

func TestRecord_ConcurrentProducers(t *testing.T) {
	agg := NewAggregator()

	const producers = 8
	const runs = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for r := 0; r < runs; r++ {
				run := domain.RunID(r*producers + p)
				for d := 0; d < 5; d++ {
					_, _ = agg.Record(newOutcome(domain.PluginTypeMediaProcess, fmt.Sprintf("dataset-%d", d), run))
				}
			}
		}(p)
	}
	wg.Wait()

	view := agg.Get(domain.PluginTypeMediaProcess)
	if view.Len() != 5 {
		t.Fatalf("len = %d, want 5", view.Len())
	}
	want := domain.RunID(runs*producers - 1)
	for i := 0; i < view.Len(); i++ {
		if view.At(i).RunID != want {
			t.Errorf("%s retained run %d, want %d", view.At(i).DatasetID, view.At(i).RunID, want)
		}
	}
}
