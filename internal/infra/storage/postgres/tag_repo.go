package postgres

import (
	"context"
	"fmt"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/infra/storage"
)

// MappingTagRepo implements storage.MappingTagRepository using PostgreSQL.
type MappingTagRepo struct {
	db *DB
}

// NewMappingTagRepo creates a new PostgreSQL mapping tag repository.
func NewMappingTagRepo(db *DB) *MappingTagRepo {
	return &MappingTagRepo{db: db}
}

// ListUnresolved returns one page of tags without a namespace.
func (r *MappingTagRepo) ListUnresolved(ctx context.Context, afterID int64, limit int) ([]domain.MappingTag, error) {
	query := `
		SELECT id, tag, namespace
		FROM mapping_tags
		WHERE namespace IS NULL AND id > $1
		ORDER BY id ASC
		LIMIT $2
	`

	var tags []domain.MappingTag
	if err := r.db.SelectContext(ctx, &tags, query, afterID, limit); err != nil {
		return nil, fmt.Errorf("failed to list mapping tags: %w", err)
	}
	return tags, nil
}

// SetNamespace stores the namespace a tag resolved to.
func (r *MappingTagRepo) SetNamespace(ctx context.Context, id int64, ns domain.Namespace) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mapping_tags SET namespace = $2, updated_at = NOW() WHERE id = $1`,
		id, string(ns))
	if err != nil {
		return fmt.Errorf("failed to set namespace: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mapping tag %d: %w", id, storage.ErrNotFound)
	}
	return nil
}
