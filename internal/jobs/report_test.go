package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage/memory"
)

func seedExecutions(store *memory.MemoryStorage) {
	// Run ids are assigned out of dataset order on purpose.
	for _, e := range []domain.Execution{
		{RunID: 5, DatasetID: "b", PluginType: domain.PluginTypePublish, Status: domain.ExecutionStatusFinished},
		{RunID: 1, DatasetID: "a", PluginType: domain.PluginTypePublish, Status: domain.ExecutionStatusFailed},
		{RunID: 3, DatasetID: "a", PluginType: domain.PluginTypePublish, Status: domain.ExecutionStatusFinished},
		{RunID: 2, DatasetID: "b", PluginType: domain.PluginTypePublish, Status: domain.ExecutionStatusFailed},
		{RunID: 4, DatasetID: "a", PluginType: domain.PluginTypeHarvest, Status: domain.ExecutionStatusRunning},
		{RunID: 6, DatasetID: "c", PluginType: domain.PluginTypePublish, Status: domain.ExecutionStatusCancelled},
	} {
		store.AddExecution(e)
	}
}

func TestReporter_CollectKeepsLatestRun(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedExecutions(store)

	// A page size of 2 forces several round trips per plugin type.
	reporter := NewReporter(memory.NewExecutionRepo(store), testExecutor(3), 2)
	agg, err := reporter.Collect(context.Background(), domain.AllPluginTypes)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	publish := agg.Get(domain.PluginTypePublish)
	if publish.Len() != 3 {
		t.Fatalf("publish outcomes = %d, want 3", publish.Len())
	}
	want := map[string]domain.RunID{"a": 3, "b": 5, "c": 6}
	for id, run := range want {
		o, ok := publish.Lookup(id)
		if !ok || o.RunID != run {
			t.Errorf("dataset %s: run = %d, want %d", id, o.RunID, run)
		}
	}

	if agg.Get(domain.PluginTypeHarvest).Len() != 1 {
		t.Errorf("expected one harvest outcome")
	}
	if agg.Get(domain.PluginTypeDepublish).Len() != 0 {
		t.Errorf("expected no depublish outcomes")
	}
}

func TestReporter_RetriesTransientFailures(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedExecutions(store)

	repo := &flakyExecutions{ExecutionRepository: memory.NewExecutionRepo(store), failures: 2}
	reporter := NewReporter(repo, testExecutor(5), 10)

	agg, err := reporter.Collect(context.Background(), []domain.PluginType{domain.PluginTypePublish})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if agg.Get(domain.PluginTypePublish).Len() != 3 {
		t.Errorf("expected 3 publish outcomes after retries")
	}
}

func TestReporter_ExhaustionFailsCollection(t *testing.T) {
	store := memory.NewMemoryStorage()
	repo := &flakyExecutions{ExecutionRepository: memory.NewExecutionRepo(store), failures: 100}
	reporter := NewReporter(repo, testExecutor(1), 10)

	_, err := reporter.Collect(context.Background(), []domain.PluginType{domain.PluginTypePublish})
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestWriteTable(t *testing.T) {
	color.NoColor = true

	store := memory.NewMemoryStorage()
	seedExecutions(store)
	agg, err := NewReporter(memory.NewExecutionRepo(store), testExecutor(0), 10).
		Collect(context.Background(), domain.AllPluginTypes)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, agg); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"HARVEST (1 datasets)", "PUBLISH (3 datasets)", "FINISHED", "CANCELLED", "RUNNING"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "HARVEST") > strings.Index(out, "PUBLISH") {
		t.Errorf("plugin types should be printed in sorted order")
	}
}

func TestWriteTable_Empty(t *testing.T) {
	store := memory.NewMemoryStorage()
	agg, _ := NewReporter(memory.NewExecutionRepo(store), testExecutor(0), 10).
		Collect(context.Background(), domain.AllPluginTypes)

	var buf bytes.Buffer
	if err := WriteTable(&buf, agg); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No executions found") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	store := memory.NewMemoryStorage()
	seedExecutions(store)
	agg, _ := NewReporter(memory.NewExecutionRepo(store), testExecutor(0), 10).
		Collect(context.Background(), domain.AllPluginTypes)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, agg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded map[string][]domain.Outcome
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	publish := decoded[string(domain.PluginTypePublish)]
	if len(publish) != 3 || publish[0].DatasetID != "a" || publish[2].DatasetID != "c" {
		t.Errorf("publish = %+v", publish)
	}
}
