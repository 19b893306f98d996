package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/europeana/metis-tools/internal/core/config"
)

var (
	cfgPath    string
	isDebug    bool
	retryLimit string
	retryDelay time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "metis-tools",
	Short: "Administrative jobs for the Metis datastore",
	Long: `metis-tools runs one-off administrative jobs against the Metis datastore:
reporting the latest execution outcome per dataset, depublishing datasets,
copying records between databases, classifying mapping tags and migrating
the schema.

Every call to the database or Redis is retried under the configured retry
policy. Interrupt with Ctrl-C to stop a job between attempts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&retryLimit, "retry-limit", "", "override the retry limit (a number or \"unbounded\")")
	rootCmd.PersistentFlags().DurationVar(&retryDelay, "retry-delay", 0, "override the delay between retries")
}

// loadConfig reads the config file, applies flag overrides and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return nil, err
	}

	if err := applyRetryOverrides(cmd, cfg); err != nil {
		stylelog.InitDefault()
		return nil, err
	}

	setupLogging(cfg, cmd.Name())
	return cfg, nil
}

func applyRetryOverrides(cmd *cobra.Command, cfg *config.AppConfig) error {
	flags := cmd.Flags()
	if flags.Changed("retry-limit") {
		limit, err := parseLimitFlag(retryLimit)
		if err != nil {
			return err
		}
		cfg.Retry.Limit = limit
	}
	if flags.Changed("retry-delay") {
		cfg.Retry.Delay = retryDelay
	}
	if err := cfg.Retry.Validate(); err != nil {
		return fmt.Errorf("invalid retry flags: %w", err)
	}
	return nil
}

func setupLogging(cfg *config.AppConfig, command string) {
	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	if cfg.Logging.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
	} else {
		stylelog.InitDefault(&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
	}

	slog.SetDefault(slog.Default().With("run_id", uuid.NewString(), "command", command))
	slog.Debug("Logger initialized", "level", slogLevel.String(), "retry", cfg.Retry.String())
}
