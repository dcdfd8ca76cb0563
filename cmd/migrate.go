package main

import (
	"os"
	"os/signal"
	root "phishvault"
	"phishvault/internal/config"
	"phishvault/pkg/logger"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCommand constructs the 'migrate' subcommand. It brings the scans
// schema and the River tables to their latest version, or only reports the
// schema version with --check.
func migrateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates the database to the latest version",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			before, err := strg.SchemaVersion(ctx)
			if err != nil {
				logger.Fatal(ctx, "could not read schema version", zap.Error(err))
			}

			if check, _ := cmd.Flags().GetBool("check"); check {
				logger.Info(ctx, "schema version", zap.Int64("version", before))
				if before == 0 {
					os.Exit(1) //nolint: gocritic
				}

				return
			}

			if err := strg.Migrate(ctx, root.Migrations, "migrations"); err != nil {
				logger.Fatal(ctx, "could not migrate database", zap.Error(err))
			}

			after, err := strg.SchemaVersion(ctx)
			if err != nil {
				logger.Fatal(ctx, "could not read schema version", zap.Error(err))
			}
			logger.Info(ctx, "database is up to date", zap.Int64("from", before), zap.Int64("to", after))
		},
	}

	cmd.Flags().Bool("check", false, "Only report the schema version; exits 1 when the schema was never migrated")

	return cmd
}
