package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"phishvault/internal/api"
	"phishvault/internal/api/handler/v1handler"
	"phishvault/internal/config"
	"phishvault/internal/scanner"
	"phishvault/internal/worker"
	"phishvault/pkg/logger"
	"phishvault/pkg/metrics"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			mp, err := metrics.NewMeterProvider(prometheus.DefaultRegisterer)
			if err != nil {
				logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
			}
			otel.SetMeterProvider(mp)
			scanMetrics, err := metrics.NewScans(mp)
			if err != nil {
				logger.Fatal(ctx, "could not create scan metrics", zap.Error(err))
			}

			agent, closeBrowser := getCaptureAgent(ctx, cfg, true)
			defer closeBrowser()

			sc := scanner.New(scanner.Deps{
				Storage:  strg,
				Capturer: agent,
				Engine:   getScoringEngine(ctx, cfg),
				Metrics:  scanMetrics,
			}, scanner.NewOptions(cfg))

			server, err := api.NewServer(api.Deps{Deps: v1handler.Deps{Scanner: sc}}, api.NewOptions(cfg))
			if err != nil {
				logger.Fatal(ctx, "could not create webserver", zap.Error(err))
			}

			// river gets a context that outlives the signal so Stop can drain running jobs
			logger.Info(ctx, "starting workers...")
			riverClient, err := worker.Start(context.WithoutCancel(ctx), strg.Pool, sc, worker.NewOptions(cfg))
			if err != nil {
				logger.Fatal(ctx, "could not start workers", zap.Error(err))
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("could not start webserver: %w", err)
				}

				return nil
			})
			g.Go(func() error {
				// wait for interrupt or a failed webserver
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
				defer cancel()

				var errs []error
				logger.Info(ctx, "stopping webserver...")
				if err := server.Shutdown(shutdownCtx); err != nil {
					errs = append(errs, fmt.Errorf("could not stop webserver: %w", err))
				}
				logger.Info(ctx, "stopping workers...")
				if err := riverClient.Stop(shutdownCtx); err != nil {
					errs = append(errs, fmt.Errorf("could not stop workers: %w", err))
				}
				if err := mp.Shutdown(shutdownCtx); err != nil {
					errs = append(errs, fmt.Errorf("could not stop meter provider: %w", err))
				}

				return errors.Join(errs...)
			})

			if err := g.Wait(); err != nil {
				logger.Error(ctx, "shutdown with errors", zap.Error(err))
			}
		},
	}

	return cmd
}
