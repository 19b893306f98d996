package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/namespace"
	"github.com/europeana/metis-tools/internal/core/retry"
	"github.com/europeana/metis-tools/internal/infra/storage"
	"github.com/europeana/metis-tools/internal/metrics"
)

// Dereferencer classifies stored mapping tags into namespaces.
type Dereferencer struct {
	tags       storage.MappingTagRepository
	resolver   *namespace.Resolver
	separator  string
	readRetry  *retry.Executor
	writeRetry *retry.Executor
	batchSize  int
	log        *slog.Logger
}

// NewDereferencer creates a Dereferencer splitting tags at separator.
func NewDereferencer(
	tags storage.MappingTagRepository,
	resolver *namespace.Resolver,
	separator string,
	exec *retry.Executor,
	batchSize int,
) *Dereferencer {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Dereferencer{
		tags:       tags,
		resolver:   resolver,
		separator:  separator,
		readRetry:  exec.Named("read_mapping_tags"),
		writeRetry: exec.Named("write_mapping_tag"),
		batchSize:  batchSize,
		log:        slog.Default().With("job", JobDereference),
	}
}

// Run resolves every unresolved tag once. Tags no binding classifies are
// data errors: they are logged, counted as failed and left untouched.
func (d *Dereferencer) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Job: JobDereference}
	var after int64

	for {
		page, err := retry.Do(ctx, d.readRetry, func(ctx context.Context) ([]domain.MappingTag, error) {
			return d.tags.ListUnresolved(ctx, after, d.batchSize)
		})
		if err != nil {
			return summary, fmt.Errorf("failed to read mapping tags after %d: %w", after, err)
		}

		for _, tag := range page {
			after = tag.ID
			if err := d.resolveTag(ctx, tag, &summary); err != nil {
				return summary, err
			}
		}

		if len(page) < d.batchSize {
			return summary, nil
		}
	}
}

func (d *Dereferencer) resolveTag(ctx context.Context, tag domain.MappingTag, summary *Summary) error {
	key := strconv.FormatInt(tag.ID, 10)

	ns, err := d.resolver.Resolve(tag.Tag, d.separator)
	if errors.Is(err, namespace.ErrNoMatch) {
		metrics.TagsResolved.WithLabelValues("unmatched").Inc()
		d.log.Warn("Unclassifiable mapping tag", "id", tag.ID, "tag", tag.Tag)
		summary.failed(key, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to classify tag %q: %w", tag.Tag, err)
	}

	found, err := retry.Do(ctx, d.writeRetry, func(ctx context.Context) (bool, error) {
		err := d.tags.SetNamespace(ctx, tag.ID, ns)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		if errors.Is(err, retry.ErrCancelled) {
			return err
		}
		d.log.Error("Failed to store namespace", "id", tag.ID, "error", err)
		summary.failed(key, err)
		return nil
	}
	if !found {
		d.log.Warn("Mapping tag no longer exists", "id", tag.ID, "tag", tag.Tag)
		summary.skipped()
		return nil
	}

	metrics.TagsResolved.WithLabelValues("resolved").Inc()
	summary.processed()
	return nil
}
