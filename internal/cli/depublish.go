package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/europeana/metis-tools/internal/infra/storage/postgres"
	"github.com/europeana/metis-tools/internal/jobs"
)

var (
	depublishFile  string
	depublishReset bool
)

var depublishCmd = &cobra.Command{
	Use:   "depublish [dataset_id...]",
	Short: "Mark datasets as depublished",
	Long: `Mark datasets as depublished. Dataset ids come from the arguments and/or a
file with one id per line. When Redis is configured, datasets finished by an
earlier run are skipped.`,
	RunE: runDepublish,
}

func init() {
	rootCmd.AddCommand(depublishCmd)
	depublishCmd.Flags().StringVarP(&depublishFile, "file", "f", "", "file with one dataset id per line")
	depublishCmd.Flags().BoolVar(&depublishReset, "reset-checkpoints", false, "forget datasets finished by earlier runs")
}

func runDepublish(cmd *cobra.Command, args []string) error {
	ids, err := readDatasetIDs(args, depublishFile)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	db, err := a.openDB(ctx, "database", a.cfg.Database)
	if err != nil {
		return err
	}
	checkpoints, err := a.checkpointStore(ctx)
	if err != nil {
		return err
	}

	depublisher := jobs.NewDepublisher(postgres.NewDatasetRepo(db), checkpoints, a.retry)
	if depublishReset {
		if err := depublisher.ResetCheckpoints(ctx); err != nil {
			return err
		}
	}

	summary, err := depublisher.Run(ctx, ids)
	slog.Info("Depublish finished", "summary", summary)
	return err
}
