package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/europeana/metis-tools/internal/infra/storage/postgres"
	"github.com/europeana/metis-tools/internal/jobs"
)

var (
	copyFile  string
	copyReset bool
)

var copyCmd = &cobra.Command{
	Use:   "copy [dataset_id...]",
	Short: "Copy dataset records from source_database to database",
	Long: `Copy the records of datasets from source_database into database in pages of
jobs.batch_size. Every page read and page write is retried on its own; a
dataset whose retries run out is skipped and reported.`,
	RunE: runCopy,
}

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().StringVarP(&copyFile, "file", "f", "", "file with one dataset id per line")
	copyCmd.Flags().BoolVar(&copyReset, "reset-checkpoints", false, "forget datasets finished by earlier runs")
}

func runCopy(cmd *cobra.Command, args []string) error {
	ids, err := readDatasetIDs(args, copyFile)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	source, err := a.openDB(ctx, "source_database", a.cfg.SourceDatabase)
	if err != nil {
		return err
	}
	target, err := a.openDB(ctx, "database", a.cfg.Database)
	if err != nil {
		return err
	}
	checkpoints, err := a.checkpointStore(ctx)
	if err != nil {
		return err
	}

	copier := jobs.NewCopier(
		postgres.NewRecordRepo(source),
		postgres.NewRecordRepo(target),
		checkpoints,
		a.retry,
		a.cfg.Jobs.BatchSize,
	)
	if copyReset {
		if err := copier.ResetCheckpoints(ctx); err != nil {
			return err
		}
	}

	summary, err := copier.Run(ctx, ids)
	slog.Info("Copy finished", "summary", summary)
	return err
}
