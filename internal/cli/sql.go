package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var sqlSource bool

var sqlCmd = &cobra.Command{
	Use:   "sql [file]",
	Short: "Execute a SQL script against the database",
	Long: `Execute the statements of a SQL file in one call. Useful for one-off fixes
such as resetting publication flags from a prepared script.`,
	Args: cobra.ExactArgs(1),
	RunE: runSQL,
}

func init() {
	rootCmd.AddCommand(sqlCmd)
	sqlCmd.Flags().BoolVar(&sqlSource, "source", false, "run against source_database instead of database")
}

func runSQL(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read sql file: %w", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	name, dbCfg := "database", a.cfg.Database
	if sqlSource {
		name, dbCfg = "source_database", a.cfg.SourceDatabase
	}

	ctx := cmd.Context()
	db, err := a.openDB(ctx, name, dbCfg)
	if err != nil {
		return err
	}

	// Scripts are not assumed idempotent, so they run exactly once.
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", args[0], err)
	}

	slog.Info("Executed sql script", "file", args[0], "database", name)
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully executed %s\n", args[0])
	return nil
}
