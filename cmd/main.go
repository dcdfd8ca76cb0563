// Command phishvault runs the scan API and workers (serve), scans a single
// URL from the terminal (inspect), migrates the database and signs tokens.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"phishvault/internal/config"
	"phishvault/pkg/capture"
	"phishvault/pkg/capture/chromium"
	"phishvault/pkg/logger"
	"phishvault/pkg/screenshot"
	"phishvault/pkg/scoring"
	"phishvault/pkg/storage/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getPostgres connects to the configured database; the returned func closes it.
func getPostgres(ctx context.Context, cfg *config.Config) (*postgres.PgSQL, func()) {
	pgsql, err := postgres.New(ctx, postgres.Options{
		Username:           cfg.Database.Username,
		Password:           cfg.Database.Password,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Database:           cfg.Database.DatabaseName,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:    cfg.Database.ConnMaxIdleTime,
		MaxOpenConnections: cfg.Database.MaxOpenConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		SslMode:            cfg.Database.SslMode,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create postgres storage", zap.Error(err))
	}

	return pgsql, func() {
		logger.Info(ctx, "closing postgres client...")
		if err = pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}
}

// getCaptureAgent creates the browser driver and the capture agent on top of
// it, and returns a cleanup function that stops the browser.
func getCaptureAgent(ctx context.Context, cfg *config.Config, withScreenshots bool) (*capture.Agent, func()) {
	driver := chromium.New(chromium.Options{
		ExecPath:     cfg.Browser.ExecPath,
		Headless:     cfg.Browser.Headless,
		NoSandbox:    cfg.Browser.NoSandbox,
		Proxy:        cfg.Browser.Proxy,
		UserAgent:    cfg.Browser.UserAgent,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
	})

	var shots capture.ScreenshotStore
	if withScreenshots && cfg.Screenshots.Enabled {
		store, err := screenshot.NewFileStore(cfg.Screenshots.Dir, cfg.Screenshots.URLPrefix)
		if err != nil {
			logger.Fatal(ctx, "could not create screenshot store", zap.Error(err))
		}
		shots = store
	}

	agent := capture.NewAgent(driver, shots, capture.Options{
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		FormWaitTimeout:   cfg.Browser.FormWaitTimeout,
		SnapshotTimeout:   cfg.Browser.SnapshotTimeout,
	})

	return agent, func() {
		logger.Info(ctx, "stopping browser...")
		if err := driver.Close(); err != nil {
			logger.Warn(ctx, "could not stop browser", zap.Error(err))
		}
	}
}

// getScoringEngine builds the scoring engine from the configured table.
func getScoringEngine(ctx context.Context, cfg *config.Config) *scoring.Engine {
	table, err := cfg.ScoringTable()
	if err != nil {
		logger.Fatal(ctx, "could not build scoring table", zap.Error(err))
	}

	engine, err := scoring.New(table)
	if err != nil {
		logger.Fatal(ctx, "could not create scoring engine", zap.Error(err))
	}
	logger.Debug(ctx, "scoring engine ready", zap.Stringer("table", table))

	return engine
}

func main() {
	// filled by PersistentPreRunE before any command runs
	cfg := &config.Config{}
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "phishvault",
		Short:         "Headless browser URL threat scanner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("could not load config file %s: %w", configPath, err)
			}
			*cfg = *loaded

			logger.Setup(cfg.Environment)
			if err := logger.SetLevel(cfg.LogLevel); err != nil {
				return err
			}
			logger.Debug(cmd.Context(), "config loaded",
				zap.String("path", configPath), zap.String("command", cmd.Name()))

			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "config file path")

	rootCmd.AddCommand(
		migrateCommand(cfg),
		serveCommand(cfg),
		inspectCommand(cfg),
		JWTCommand(cfg),
	)

	ctx := context.Background()
	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Get(ctx).Sync()
	if err != nil {
		log.Println(err)
		os.Exit(1) //nolint: gocritic
	}
}
