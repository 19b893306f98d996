package storage

import (
	"context"
	"errors"
	"time"

	"github.com/europeana/metis-tools/internal/core/domain"
)

var (
	// ErrNotFound is returned when a dataset or row doesn't exist
	ErrNotFound = errors.New("not found")
)

// ExecutionRepository reads the execution history of datasets
type ExecutionRepository interface {
	// ListByPlugin returns up to limit executions of a plugin type with a run id
	// greater than afterRunID, ordered by run id
	ListByPlugin(
		ctx context.Context,
		plugin domain.PluginType,
		afterRunID domain.RunID,
		limit int,
	) ([]domain.Execution, error)
}

// DatasetRepository handles dataset publication state
type DatasetRepository interface {
	// Get retrieves a dataset by id
	Get(ctx context.Context, datasetID string) (*domain.Dataset, error)

	// Depublish marks a dataset as no longer published
	Depublish(ctx context.Context, datasetID string, at time.Time) error
}

// RecordRepository handles record storage operations
type RecordRepository interface {
	// ListByDataset returns up to limit records of a dataset with a record id
	// greater than afterRecordID, ordered by record id
	ListByDataset(
		ctx context.Context,
		datasetID string,
		afterRecordID string,
		limit int,
	) ([]domain.Record, error)

	// SaveBatch inserts or replaces records
	SaveBatch(ctx context.Context, records []domain.Record) error

	// CountByDataset returns the number of records stored for a dataset
	CountByDataset(ctx context.Context, datasetID string) (int64, error)
}

// MappingTagRepository handles mapping tags awaiting namespace classification
type MappingTagRepository interface {
	// ListUnresolved returns up to limit tags without a namespace whose id is
	// greater than afterID, ordered by id
	ListUnresolved(ctx context.Context, afterID int64, limit int) ([]domain.MappingTag, error)

	// SetNamespace stores the namespace of a tag
	SetNamespace(ctx context.Context, id int64, ns domain.Namespace) error
}

// CheckpointStore remembers which items a job already finished, so a rerun
// can skip them
type CheckpointStore interface {
	IsDone(ctx context.Context, job, key string) (bool, error)
	MarkDone(ctx context.Context, job, key string) error
	Reset(ctx context.Context, job string) error
}
