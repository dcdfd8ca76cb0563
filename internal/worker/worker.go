package worker

import (
	"context"
	"fmt"
	"phishvault/internal/config"
	"phishvault/internal/scanner"
	"phishvault/pkg/logger"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Options configure the background job runner.
type Options struct {
	// MaxWorkers is the number of scans processed concurrently.
	MaxWorkers int
	// CapturesPerSecond paces the captures started by this process. Zero
	// disables pacing.
	CapturesPerSecond float64
	// JobTimeout bounds a single processing attempt. Zero keeps River's default.
	JobTimeout time.Duration
}

// NewOptions constructs an Options value from the provided application config.
// The job timeout leaves room for every browser phase of a capture.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxWorkers:        cfg.Worker.MaxWorkers,
		CapturesPerSecond: cfg.Worker.CapturesPerSecond,
		JobTimeout: cfg.Browser.NavigationTimeout + cfg.Browser.FormWaitTimeout +
			2*cfg.Browser.SnapshotTimeout + time.Minute,
	}
}

// Start registers the scan worker and starts a River client working the
// captures queue. The client stops when ctx is done or Stop is called.
func Start(ctx context.Context,
	dbPool *pgxpool.Pool,
	sc scanner.Scanner,
	opts Options) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewScanWorker(sc, opts.CapturesPerSecond, opts.JobTimeout))

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			scanner.QueueCaptures: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  logger.Slog(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}
