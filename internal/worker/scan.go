package worker

import (
	"context"
	"fmt"
	"phishvault/internal/scanner"
	"phishvault/pkg/domain"
	"phishvault/pkg/logger"
	"phishvault/pkg/serrors"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxPacingWait is the longest a job blocks for a capture slot before it is
// snoozed and its worker slot released.
const maxPacingWait = time.Second

// ScanWorker is a River worker that processes pending scans through a
// scanner.Scanner. Each job captures and scores exactly one scan.
//
// Captures started by one process can be paced with a token bucket. A job
// that would wait longer than maxPacingWait for a token is snoozed instead,
// so a burst of jobs does not pin every worker slot while idle.
//
// Error handling: if the scan is gone, deleted or no longer pending the job is
// canceled. Any other error is returned and River retries the job until it
// reaches its max attempts; the scan record turns failed on the last one.
type ScanWorker struct {
	river.WorkerDefaults[scanner.ProcessScanArgs]

	scanner scanner.Scanner
	// limiter paces captures; nil disables pacing.
	limiter *rate.Limiter
	timeout time.Duration
}

// NewScanWorker constructs a ScanWorker. A capturesPerSecond of zero disables
// pacing and a zero timeout keeps River's default job timeout.
func NewScanWorker(scanner scanner.Scanner, capturesPerSecond float64, timeout time.Duration) *ScanWorker {
	w := &ScanWorker{scanner: scanner, timeout: timeout}
	if capturesPerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(capturesPerSecond), 1)
	}

	return w
}

// Timeout bounds a single attempt of the job.
func (w *ScanWorker) Timeout(*river.Job[scanner.ProcessScanArgs]) time.Duration {
	return w.timeout
}

// Work processes a single scan and maps errors to River actions.
func (w *ScanWorker) Work(ctx context.Context, job *river.Job[scanner.ProcessScanArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.String("scanID", job.Args.ScanID.String()),
		zap.Int("attempt", job.Attempt))

	delay, err := w.reserve(ctx)
	if err != nil {
		return fmt.Errorf("could not wait for capture slot: %w", err)
	}
	if delay > 0 {
		logger.Debug(ctx, "capture rate exceeded, snoozing job", zap.Duration("delay", delay))

		return river.JobSnooze(delay) //nolint: wrapcheck
	}

	if _, err := w.scanner.Process(ctx, domain.ScanID(job.Args.ScanID)); err != nil {
		if serrors.Permanent(err) {
			logger.Info(ctx, "scan cannot be processed, canceling job", zap.Error(err))

			return river.JobCancel(err) //nolint: wrapcheck
		}

		logger.Error(ctx, "error in processing scan", zap.Error(err))

		return fmt.Errorf("could not process scan: %w", err)
	}

	logger.Info(ctx, "scan processed successfully")

	return nil
}

// reserve takes a capture token. It waits for short delays and returns the
// delay, without consuming a token, when the wait would exceed maxPacingWait.
func (w *ScanWorker) reserve(ctx context.Context) (time.Duration, error) {
	if w.limiter == nil {
		return 0, nil
	}

	r := w.limiter.Reserve()
	delay := r.Delay()
	if delay > maxPacingWait {
		r.Cancel()

		return delay, nil
	}
	if delay == 0 {
		return 0, nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()

		return 0, ctx.Err()
	case <-timer.C:
		return 0, nil
	}
}
