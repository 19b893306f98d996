package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/europeana/metis-tools/internal/core/config"
	"github.com/europeana/metis-tools/internal/core/retry"
	redisclient "github.com/europeana/metis-tools/internal/infra/redis"
	"github.com/europeana/metis-tools/internal/infra/storage"
	"github.com/europeana/metis-tools/internal/infra/storage/postgres"
	"github.com/europeana/metis-tools/internal/metrics"
)

// app holds what a command needs for one run and closes it afterwards.
type app struct {
	cfg     *config.AppConfig
	retry   *retry.Executor
	closers []func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		retry: retry.New(cmd.Name(), cfg.Retry),
	}

	if cfg.Metrics.Port > 0 {
		server := metrics.NewServer(cfg.Metrics.Port)
		server.Start()
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Stop(ctx)
		})
		slog.Info("Serving metrics", "port", cfg.Metrics.Port)
	}

	return a, nil
}

// openDB connects to a database, retrying while it is unreachable.
// Invalid configuration fails at once.
func (a *app) openDB(ctx context.Context, name string, cfg postgres.Config) (*postgres.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%s url is not set", name)
	}

	db, err := postgres.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", name, err)
	}

	if err := a.retry.Named("connect_"+name).Run(ctx, db.Health); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
	}

	a.closers = append(a.closers, db.Close)
	return db, nil
}

// checkpointStore returns the Redis checkpoint store, or nil when Redis is
// not configured.
func (a *app) checkpointStore(ctx context.Context) (storage.CheckpointStore, error) {
	if a.cfg.Redis.URL == "" {
		slog.Info("Redis not configured, checkpoints disabled")
		return nil, nil
	}

	client, err := redisclient.Open(a.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	if err := a.retry.Named("connect_redis").Run(ctx, client.Ping); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.closers = append(a.closers, client.Close)
	return redisclient.NewCheckpointStore(client), nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

// readDatasetIDs merges ids given as arguments with ids listed one per line
// in path. Blank lines and lines starting with # are ignored. Duplicates are
// dropped, the first occurrence keeps its position.
func readDatasetIDs(args []string, path string) ([]string, error) {
	ids := make([]string, 0, len(args))
	seen := make(map[string]bool)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || strings.HasPrefix(id, "#") || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for _, arg := range args {
		add(arg)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset list: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			add(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read dataset list: %w", err)
		}
	}

	if len(ids) == 0 {
		return nil, errors.New("no dataset ids given")
	}
	return ids, nil
}

func parseLimitFlag(s string) (retry.Limit, error) {
	limit, err := retry.ParseLimit(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --retry-limit: %w", err)
	}
	return limit, nil
}
