package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/europeana/metis-tools/internal/core/namespace"
	"github.com/europeana/metis-tools/internal/infra/storage/postgres"
	"github.com/europeana/metis-tools/internal/jobs"
)

var dereferenceSeparator string

var dereferenceCmd = &cobra.Command{
	Use:   "dereference",
	Short: "Classify unresolved mapping tags into namespaces",
	Long: `Resolve every mapping tag without a namespace by its longest configured
prefix. Tags that no prefix matches are reported as data errors and left
unresolved.`,
	Args: cobra.NoArgs,
	RunE: runDereference,
}

func init() {
	rootCmd.AddCommand(dereferenceCmd)
	dereferenceCmd.Flags().StringVar(&dereferenceSeparator, "separator", "", "separator between prefix and local name (overrides namespaces.separator)")
}

func runDereference(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	// Ambiguous configuration must stop the process before any work starts.
	resolver, err := namespace.NewResolver(a.cfg.Namespaces.Bindings)
	if err != nil {
		return fmt.Errorf("invalid namespace configuration: %w", err)
	}

	separator := a.cfg.Namespaces.Separator
	if dereferenceSeparator != "" {
		separator = dereferenceSeparator
	}

	ctx := cmd.Context()
	db, err := a.openDB(ctx, "database", a.cfg.Database)
	if err != nil {
		return err
	}

	d := jobs.NewDereferencer(postgres.NewMappingTagRepo(db), resolver, separator, a.retry, a.cfg.Jobs.BatchSize)
	summary, err := d.Run(ctx)
	slog.Info("Dereference finished", "summary", summary, "bindings", resolver.Len())
	return err
}
