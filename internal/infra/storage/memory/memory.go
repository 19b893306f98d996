package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// MemoryStorage backs every repository with maps. It is used by tests and
// by dry runs.
type MemoryStorage struct {
	datasets    map[string]*domain.Dataset
	executions  []domain.Execution
	records     map[string]map[string]domain.Record
	tags        []domain.MappingTag
	checkpoints map[string]map[string]struct{}
	nextRunID   domain.RunID
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		datasets:    make(map[string]*domain.Dataset),
		records:     make(map[string]map[string]domain.Record),
		checkpoints: make(map[string]map[string]struct{}),
	}
}

// AddDataset stores a dataset.
func (s *MemoryStorage) AddDataset(ds domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.ID] = &ds
}

// AddExecution appends an execution and assigns it the next run id when
// it has none.
func (s *MemoryStorage) AddExecution(e domain.Execution) domain.RunID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.RunID == 0 {
		s.nextRunID++
		e.RunID = s.nextRunID
	} else if e.RunID > s.nextRunID {
		s.nextRunID = e.RunID
	}
	s.executions = append(s.executions, e)
	return e.RunID
}

// AddTag stores a mapping tag and returns its id.
func (s *MemoryStorage) AddTag(tag string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.tags) + 1)
	s.tags = append(s.tags, domain.MappingTag{ID: id, Tag: tag})
	return id
}

// Tag returns the stored tag with the given id.
func (s *MemoryStorage) Tag(id int64) (domain.MappingTag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 1 || int(id) > len(s.tags) {
		return domain.MappingTag{}, false
	}
	return s.tags[id-1], true
}

// -----------------------------------------------------------------------------
// Execution Repository
// -----------------------------------------------------------------------------

type ExecutionRepo struct {
	store *MemoryStorage
}

func NewExecutionRepo(store *MemoryStorage) *ExecutionRepo {
	return &ExecutionRepo{store: store}
}

func (r *ExecutionRepo) ListByPlugin(
	ctx context.Context,
	plugin domain.PluginType,
	afterRunID domain.RunID,
	limit int,
) ([]domain.Execution, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.Execution
	for _, e := range r.store.executions {
		if e.PluginType == plugin && e.RunID > afterRunID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Dataset Repository
// -----------------------------------------------------------------------------

type DatasetRepo struct {
	store *MemoryStorage
}

func NewDatasetRepo(store *MemoryStorage) *DatasetRepo {
	return &DatasetRepo{store: store}
}

func (r *DatasetRepo) Get(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ds, ok := r.store.datasets[datasetID]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, storage.ErrNotFound)
	}
	c := *ds
	return &c, nil
}

func (r *DatasetRepo) Depublish(ctx context.Context, datasetID string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ds, ok := r.store.datasets[datasetID]
	if !ok {
		return fmt.Errorf("dataset %s: %w", datasetID, storage.ErrNotFound)
	}
	ds.Published = false
	ds.DepublishedAt = &at
	return nil
}

// -----------------------------------------------------------------------------
// Record Repository
// -----------------------------------------------------------------------------

type RecordRepo struct {
	store *MemoryStorage
}

func NewRecordRepo(store *MemoryStorage) *RecordRepo {
	return &RecordRepo{store: store}
}

func (r *RecordRepo) ListByDataset(
	ctx context.Context,
	datasetID string,
	afterRecordID string,
	limit int,
) ([]domain.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.Record
	for id, rec := range r.store.records[datasetID] {
		if id > afterRecordID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RecordRepo) SaveBatch(ctx context.Context, records []domain.Record) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range records {
		byID, ok := r.store.records[rec.DatasetID]
		if !ok {
			byID = make(map[string]domain.Record)
			r.store.records[rec.DatasetID] = byID
		}
		byID[rec.RecordID] = rec
	}
	return nil
}

func (r *RecordRepo) CountByDataset(ctx context.Context, datasetID string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.records[datasetID])), nil
}

// -----------------------------------------------------------------------------
// Mapping Tag Repository
// -----------------------------------------------------------------------------

type MappingTagRepo struct {
	store *MemoryStorage
}

func NewMappingTagRepo(store *MemoryStorage) *MappingTagRepo {
	return &MappingTagRepo{store: store}
}

func (r *MappingTagRepo) ListUnresolved(ctx context.Context, afterID int64, limit int) ([]domain.MappingTag, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.MappingTag
	for _, t := range r.store.tags {
		if t.Namespace == nil && t.ID > afterID {
			out = append(out, t)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MappingTagRepo) SetNamespace(ctx context.Context, id int64, ns domain.Namespace) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if id < 1 || int(id) > len(r.store.tags) {
		return fmt.Errorf("mapping tag %d: %w", id, storage.ErrNotFound)
	}
	v := string(ns)
	r.store.tags[id-1].Namespace = &v
	return nil
}

// -----------------------------------------------------------------------------
// Checkpoint Store
// -----------------------------------------------------------------------------

type CheckpointStore struct {
	store *MemoryStorage
}

func NewCheckpointStore(store *MemoryStorage) *CheckpointStore {
	return &CheckpointStore{store: store}
}

func (c *CheckpointStore) IsDone(ctx context.Context, job, key string) (bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	_, ok := c.store.checkpoints[job][key]
	return ok, nil
}

func (c *CheckpointStore) MarkDone(ctx context.Context, job, key string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	done, ok := c.store.checkpoints[job]
	if !ok {
		done = make(map[string]struct{})
		c.store.checkpoints[job] = done
	}
	done[key] = struct{}{}
	return nil
}

func (c *CheckpointStore) Reset(ctx context.Context, job string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.checkpoints, job)
	return nil
}

var (
	_ storage.ExecutionRepository  = (*ExecutionRepo)(nil)
	_ storage.DatasetRepository    = (*DatasetRepo)(nil)
	_ storage.RecordRepository     = (*RecordRepo)(nil)
	_ storage.MappingTagRepository = (*MappingTagRepo)(nil)
	_ storage.CheckpointStore      = (*CheckpointStore)(nil)
)
