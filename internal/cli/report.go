package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/outcome"
	"github.com/europeana/metis-tools/internal/infra/storage/postgres"
	"github.com/europeana/metis-tools/internal/jobs"
)

var (
	reportPlugins []string
	reportOutput  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest execution outcome of every dataset per plugin type",
	Long: `Scan the execution history and keep, for every plugin type and dataset, only
the execution of the most recent run. The result is printed as a table and
optionally written to a JSON file.

Examples:
  metis-tools report
  metis-tools report --plugin PUBLISH --plugin DEPUBLISH --output summary.json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringSliceVar(&reportPlugins, "plugin", nil, "plugin types to report (default all)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write a JSON summary to this file (overrides report.output)")
}

func runReport(cmd *cobra.Command, args []string) error {
	plugins, err := parsePlugins(reportPlugins)
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

	reporter := jobs.NewReporter(postgres.NewExecutionRepo(db), a.retry, a.cfg.Jobs.BatchSize)
	agg, err := reporter.Collect(ctx, plugins)
	if err != nil {
		return err
	}

	if err := jobs.WriteTable(cmd.OutOrStdout(), agg); err != nil {
		return err
	}

	output := a.cfg.Report.Output
	if reportOutput != "" {
		output = reportOutput
	}
	if output == "" {
		return nil
	}

	if err := writeReportFile(output, agg); err != nil {
		return err
	}
	slog.Info("Wrote report", "path", output, "outcomes", agg.Len())
	return nil
}

// writeReportFile writes the JSON summary to path. A failed close is
// reported, since it can mean the data never reached the disk.
func writeReportFile(path string, agg *outcome.Aggregator) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := jobs.WriteJSON(f, agg); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	return nil
}

func parsePlugins(names []string) ([]domain.PluginType, error) {
	if len(names) == 0 {
		return domain.AllPluginTypes, nil
	}
	plugins := make([]domain.PluginType, 0, len(names))
	for _, name := range names {
		p, ok := domain.ParsePluginType(name)
		if !ok {
			return nil, fmt.Errorf("unknown plugin type %q", name)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}
