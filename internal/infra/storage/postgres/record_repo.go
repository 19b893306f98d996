package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/europeana/metis-tools/internal/core/domain"
)

// RecordRepo implements storage.RecordRepository using PostgreSQL.
type RecordRepo struct {
	db *DB
}

// NewRecordRepo creates a new PostgreSQL record repository.
func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// recordRow scans jsonb as text so both drivers behave the same.
type recordRow struct {
	DatasetID string    `db:"dataset_id"`
	RecordID  string    `db:"record_id"`
	Payload   string    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ListByDataset returns one page of a dataset's records.
func (r *RecordRepo) ListByDataset(
	ctx context.Context,
	datasetID string,
	afterRecordID string,
	limit int,
) ([]domain.Record, error) {
	query := `
		SELECT dataset_id, record_id, payload::text AS payload, updated_at
		FROM records
		WHERE dataset_id = $1 AND record_id > $2
		ORDER BY record_id ASC
		LIMIT $3
	`

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, datasetID, afterRecordID, limit); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = domain.Record{
			DatasetID: row.DatasetID,
			RecordID:  row.RecordID,
			Payload:   json.RawMessage(row.Payload),
			UpdatedAt: row.UpdatedAt,
		}
	}
	return records, nil
}

// SaveBatch upserts records in a single transaction.
func (r *RecordRepo) SaveBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO records (dataset_id, record_id, payload, updated_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (dataset_id, record_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record upsert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, rec := range records {
		payload := string(rec.Payload)
		if payload == "" {
			payload = "{}"
		}
		if _, err := stmt.ExecContext(ctx, rec.DatasetID, rec.RecordID, payload, rec.UpdatedAt); err != nil {
			return fmt.Errorf("failed to save record %s/%s: %w", rec.DatasetID, rec.RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// CountByDataset returns the number of records of a dataset.
func (r *RecordRepo) CountByDataset(ctx context.Context, datasetID string) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM records WHERE dataset_id = $1`, datasetID); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}
