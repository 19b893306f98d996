package postgres

import (
	"context"
	"fmt"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// ExecutionRepo implements storage.ExecutionRepository using PostgreSQL.
type ExecutionRepo struct {
	db *DB
}

// NewExecutionRepo creates a new PostgreSQL execution repository.
func NewExecutionRepo(db *DB) *ExecutionRepo {
	return &ExecutionRepo{db: db}
}

// ListByPlugin returns one page of the execution history of a plugin type.
func (r *ExecutionRepo) ListByPlugin(
	ctx context.Context,
	plugin domain.PluginType,
	afterRunID domain.RunID,
	limit int,
) ([]domain.Execution, error) {
	query := `
		SELECT id, dataset_id, plugin_type, status, records_processed, error_msg, started_at, finished_at
		FROM executions
		WHERE plugin_type = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`

	var executions []domain.Execution
	if err := r.db.SelectContext(ctx, &executions, query, string(plugin), int64(afterRunID), limit); err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return executions, nil
}

var (
	_ storage.ExecutionRepository  = (*ExecutionRepo)(nil)
	_ storage.DatasetRepository    = (*DatasetRepo)(nil)
	_ storage.RecordRepository     = (*RecordRepo)(nil)
	_ storage.MappingTagRepository = (*MappingTagRepo)(nil)
)
