package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateSource bool

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect schema migrations",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateSource, "source", false, "run against source_database instead of database")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	name, dbCfg := "database", a.cfg.Database
	if migrateSource {
		name, dbCfg = "source_database", a.cfg.SourceDatabase
	}

	ctx := cmd.Context()
	db, err := a.openDB(ctx, name, dbCfg)
	if err != nil {
		return err
	}

	switch args[0] {
	case "up":
		err = db.MigrateUp(ctx)
	case "down":
		err = db.MigrateDown(ctx)
	case "status":
		err = db.MigrationStatus(ctx)
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}
	if err != nil {
		return err
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version of %s: %d\n", name, version)
	return nil
}
