package outcome

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/metrics"
)

// ErrInvalidOutcome is returned when an outcome has no category or dataset id.
var ErrInvalidOutcome = errors.New("invalid outcome")

// Aggregator keeps, per (category, dataset), only the outcome of the most
// recent run. Outcomes may arrive in any order and from several goroutines.
type Aggregator struct {
	mu    sync.Mutex
	store map[domain.PluginType]map[string]domain.Outcome
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		store: make(map[domain.PluginType]map[string]domain.Outcome),
	}
}

// Record merges o into the store. It replaces the retained outcome only when
// o has a strictly greater run id; on a tie the first one seen is kept.
// It reports whether o is now the retained outcome for its key.
func (a *Aggregator) Record(o domain.Outcome) (bool, error) {
	if o.Category == "" || o.DatasetID == "" {
		return false, fmt.Errorf("%w: category=%q dataset=%q", ErrInvalidOutcome, o.Category, o.DatasetID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	byDataset, ok := a.store[o.Category]
	if !ok {
		byDataset = make(map[string]domain.Outcome)
		a.store[o.Category] = byDataset
	}

	existing, ok := byDataset[o.DatasetID]
	if ok && !o.RunID.After(existing.RunID) {
		metrics.OutcomesRecorded.WithLabelValues(string(o.Category), "superseded").Inc()
		return false, nil
	}

	byDataset[o.DatasetID] = o
	metrics.OutcomesRecorded.WithLabelValues(string(o.Category), "retained").Inc()
	return true, nil
}

// Get returns the retained outcomes of category ordered by dataset id.
// The view is empty if nothing was recorded for category.
func (a *Aggregator) Get(category domain.PluginType) View {
	a.mu.Lock()
	defer a.mu.Unlock()

	byDataset := a.store[category]
	outcomes := make([]domain.Outcome, 0, len(byDataset))
	for _, o := range byDataset {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].DatasetID < outcomes[j].DatasetID
	})
	return View{category: category, outcomes: outcomes}
}

// Categories returns every category with at least one outcome, sorted.
func (a *Aggregator) Categories() []domain.PluginType {
	a.mu.Lock()
	defer a.mu.Unlock()

	categories := make([]domain.PluginType, 0, len(a.store))
	for c := range a.store {
		categories = append(categories, c)
	}
	domain.SortPluginTypes(categories)
	return categories
}

// Len returns the number of retained outcomes across all categories.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, byDataset := range a.store {
		n += len(byDataset)
	}
	return n
}
