package scanner

import (
	"context"
	"errors"
	"fmt"
	"phishvault/internal/config"
	"phishvault/pkg/domain"
	"phishvault/pkg/logger"
	"phishvault/pkg/metrics"
	"phishvault/pkg/scoring"
	"phishvault/pkg/serrors"
	"phishvault/pkg/storage"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is used when a listing asks for no limit.
	DefaultPageSize = 20
	// MaxPageSize caps the size of a listing page.
	MaxPageSize = 100
)

var tracer = otel.Tracer("phishvault/internal/scanner")

// Options configure how scan jobs are enqueued and processed.
// These settings are typically derived from application configuration.
type Options struct {
	// MaxAttempts is the maximum number of attempts the background worker should
	// make when processing a scan job before marking it failed.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxAttempts: cfg.Scanner.MaxAttempts,
	}
}

// Deps groups the collaborators of the scanner.
type Deps struct {
	Storage  storage.Storage
	Capturer Capturer
	Engine   *scoring.Engine
	// Metrics is optional; a nil value records nothing.
	Metrics *metrics.Scans
}

// scanner is the concrete implementation of the Scanner interface.
// It coordinates persistence, capture and scoring.
type scanner struct {
	// options holds runtime configuration that affects enqueueing and retries.
	options Options
	deps    Deps
}

// New returns a Scanner backed by deps.
func New(deps Deps, options Options) Scanner {
	if deps.Metrics == nil {
		// noop instruments never fail to build
		deps.Metrics, _ = metrics.NewScans(noop.NewMeterProvider())
	}

	return &scanner{options: options, deps: deps}
}

// Enqueue stores a new pending scan for the given URL and user and enqueues a
// background job to process it, both in one transaction.
func (s *scanner) Enqueue(ctx context.Context, userID domain.UserID, URL string) (*domain.Scan, error) {
	var scan *domain.Scan
	URL, err := NormalizeURL(URL)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid URL")
	}

	if err := s.deps.Storage.WithTx(ctx, func(tx storage.AllStorage) error {
		res, err := tx.StoreScans(ctx, domain.Scan{
			UserID: userID,
			URL:    URL,
			Status: domain.ScanStatusPending,
		})
		if err != nil {
			return fmt.Errorf("could not store scan: %w", err)
		}
		scan = &res[0]

		if _, err := tx.AddJob(ctx, NewProcessScanArgs(scan.ID, s.options.MaxAttempts), nil); err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not enqueue URL: %w", err)
	}

	logger.Info(ctx, "scan enqueued", zap.String("scanID", scan.ID.String()), zap.String("URL", URL))

	return scan, nil
}

// Process runs exactly one capture and one scoring for a pending scan and
// stores the outcome. A scan that is missing, deleted or no longer pending
// yields a not-found error. A fatal capture fault is recorded on the scan,
// which turns failed once it has used up its attempts, and is returned so
// the job is retried.
func (s *scanner) Process(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error) {
	ctx = logger.WithFields(ctx, zap.String("scanID", scanID.String()))

	scan, err := s.deps.Storage.PendingScan(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("could not get pending scan: %w", err)
	}
	if scan == nil {
		return nil, serrors.With(serrors.ErrNotFound, "no pending scan %s", scanID)
	}

	inspection, err := s.inspect(ctx, scan.URL)
	if err != nil {
		msg := err.Error()
		if _, uerr := s.deps.Storage.UpdatePendingScan(ctx, scanID, storage.ScanUpdates{
			Status:      domain.ScanStatusFailed,
			LastError:   &msg,
			MaxAttempts: s.options.MaxAttempts,
		}); uerr != nil {
			return nil, errors.Join(err, fmt.Errorf("could not record failed attempt: %w", uerr))
		}

		return nil, fmt.Errorf("could not capture %s: %w", scan.URL, err)
	}

	noError := ""
	updated, err := s.deps.Storage.UpdatePendingScan(ctx, scanID, storage.ScanUpdates{
		Status:      domain.ScanStatusCompleted,
		Signals:     &inspection.Signals,
		Result:      &inspection.Result,
		Fingerprint: &inspection.Fingerprint,
		LastError:   &noError,
	})
	if err != nil {
		return nil, fmt.Errorf("could not store scan result: %w", err)
	}
	if updated == nil {
		// deleted while capturing
		return nil, serrors.With(serrors.ErrNotFound, "scan %s is no longer pending", scanID)
	}

	logger.Info(ctx, "scan completed",
		zap.String("verdict", string(updated.Result.Verdict)),
		zap.Int("score", updated.Result.Score))

	return updated, nil
}

// Inspect captures and scores URL without persisting anything.
func (s *scanner) Inspect(ctx context.Context, URL string) (*Inspection, error) {
	URL, err := NormalizeURL(URL)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid URL")
	}

	return s.inspect(logger.WithFields(ctx, zap.String("URL", URL)), URL)
}

// inspect runs one capture and one scoring of URL inside their own spans and
// records the pipeline metrics.
func (s *scanner) inspect(ctx context.Context, URL string) (*Inspection, error) {
	captureCtx, span := tracer.Start(ctx, "scanner.capture", trace.WithAttributes(attribute.String("url.full", URL)))
	start := time.Now()
	bundle, err := s.deps.Capturer.Capture(captureCtx, URL)
	s.deps.Metrics.CaptureDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "capture failed")
		span.End()

		return nil, fmt.Errorf("could not capture URL: %w", err)
	}
	if bundle.Degraded() {
		s.deps.Metrics.CaptureErrors.Add(ctx, 1)
		span.SetAttributes(attribute.StringSlice("capture.errors", bundle.CaptureErrors))
	}
	span.End()

	_, span = tracer.Start(ctx, "scanner.score")
	result := s.deps.Engine.Score(bundle)
	span.SetAttributes(
		attribute.Int("score", result.Score),
		attribute.String("verdict", string(result.Verdict)))
	span.End()

	s.deps.Metrics.Completed.Add(ctx, 1, metric.WithAttributes(attribute.String("verdict", string(result.Verdict))))

	return &Inspection{
		URL:         URL,
		Signals:     bundle,
		Result:      result,
		Fingerprint: bundle.Fingerprint(),
	}, nil
}

// UserScans returns a page of scans for the given user narrowed by filter.
// It supports cursor-based pagination using an RFC3339Nano timestamp string and
// returns the next cursor when more results are available.
func (s *scanner) UserScans(ctx context.Context,
	userID domain.UserID,
	filter Filter,
	cursor string,
	limit uint) ([]domain.Scan, string, error) {
	var cursorTime time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
		}
		cursorTime = t
	}
	if filter.Verdict != "" && !filter.Verdict.Valid() {
		return nil, "", serrors.With(serrors.ErrBadRequest, "invalid verdict %q", filter.Verdict)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, "", serrors.With(serrors.ErrBadRequest, "invalid date range")
	}

	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	page, err := s.deps.Storage.UserScans(ctx, userID, storage.ScanFilter{
		Status:  filter.Status,
		Verdict: filter.Verdict,
		From:    filter.From,
		To:      filter.To,
		Cursor:  cursorTime,
		Limit:   limit,
	})
	if err != nil {
		return nil, "", fmt.Errorf("could not get user scans: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = page.NextCursor.UTC().Format(time.RFC3339Nano)
	}

	return page.Scans, next, nil
}

// Result fetches a single scan by ID for the given user. It returns a
// not-found error when no matching scan exists.
func (s *scanner) Result(ctx context.Context, userID domain.UserID, scanID domain.ScanID) (*domain.Scan, error) {
	res, err := s.deps.Storage.ScanByID(ctx, userID, scanID)
	if err != nil {
		return nil, fmt.Errorf("could not get scan results: %w", err)
	}
	if res == nil {
		return nil, serrors.With(serrors.ErrNotFound, "scan not found")
	}

	return res, nil
}

// LatestByURL returns the user's most recent completed scan of URL.
func (s *scanner) LatestByURL(ctx context.Context, userID domain.UserID, URL string) (*domain.Scan, error) {
	URL, err := NormalizeURL(URL)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid URL")
	}

	res, err := s.deps.Storage.LastCompletedScanByURL(ctx, userID, URL)
	if err != nil {
		return nil, fmt.Errorf("could not get latest scan: %w", err)
	}
	if res == nil {
		return nil, serrors.With(serrors.ErrNotFound, "no completed scan for URL")
	}

	return res, nil
}

// Summary counts the user's completed scans per verdict.
func (s *scanner) Summary(ctx context.Context,
	userID domain.UserID,
	from, to time.Time) (domain.VerdictSummary, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return domain.VerdictSummary{}, serrors.With(serrors.ErrBadRequest, "invalid date range")
	}

	summary, err := s.deps.Storage.VerdictSummary(ctx, userID, from, to)
	if err != nil {
		return domain.VerdictSummary{}, fmt.Errorf("could not get verdict summary: %w", err)
	}

	return summary, nil
}

// Delete removes a scan belonging to the given user. If the scan does not
// exist, a not-found error is returned. A pending job for the scan cancels
// itself once it finds the scan deleted.
func (s *scanner) Delete(ctx context.Context, userID domain.UserID, scanID domain.ScanID) error {
	res, err := s.deps.Storage.DeleteScan(ctx, userID, scanID)
	if err != nil {
		return fmt.Errorf("could not delete scan: %w", err)
	}
	if res == nil {
		return serrors.With(serrors.ErrNotFound, "scan not found")
	}

	return nil
}
