package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// DatasetRepo implements storage.DatasetRepository using PostgreSQL.
type DatasetRepo struct {
	db *DB
}

// NewDatasetRepo creates a new PostgreSQL dataset repository.
func NewDatasetRepo(db *DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Get retrieves a dataset by id.
func (r *DatasetRepo) Get(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	var ds domain.Dataset
	err := r.db.GetContext(ctx, &ds,
		`SELECT dataset_id, name, published, depublished_at FROM datasets WHERE dataset_id = $1`,
		datasetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return &ds, nil
}

// Depublish marks a dataset as depublished.
func (r *DatasetRepo) Depublish(ctx context.Context, datasetID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE datasets SET published = FALSE, depublished_at = $2 WHERE dataset_id = $1`,
		datasetID, at)
	if err != nil {
		return fmt.Errorf("failed to depublish dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to depublish dataset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("dataset %s: %w", datasetID, storage.ErrNotFound)
	}
	return nil
}
