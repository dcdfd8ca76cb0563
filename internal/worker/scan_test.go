package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"phishvault/internal/scanner"
	mockscanner "phishvault/internal/scanner/mock"
	"phishvault/internal/worker"
	"phishvault/pkg/domain"
	"phishvault/pkg/logger"
	"phishvault/pkg/serrors"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func makeJob(id int64, scanID uuid.UUID) *river.Job[scanner.ProcessScanArgs] {
	return &river.Job[scanner.ProcessScanArgs]{
		JobRow: &rivertype.JobRow{ID: id, Attempt: 1},
		Args:   scanner.ProcessScanArgs{ScanID: scanID},
	}
}

func TestScanWorker_Work_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockscanner.NewMockScanner(ctrl)
	w := worker.NewScanWorker(mock, 0, 0)

	id := uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ScanID(id)).
		Return(&domain.Scan{ID: domain.ScanID(id), Status: domain.ScanStatusCompleted}, nil)

	require.NoError(t, w.Work(context.Background(), makeJob(1, id)))
}

func TestScanWorker_Work_NotPendingCancels(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockscanner.NewMockScanner(ctrl)
	w := worker.NewScanWorker(mock, 0, 0)

	id := uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ScanID(id)).
		Return(nil, serrors.With(serrors.ErrNotFound, "no pending scan"))

	err := w.Work(context.Background(), makeJob(2, id))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestScanWorker_Work_BadRequestCancels(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockscanner.NewMockScanner(ctrl)
	w := worker.NewScanWorker(mock, 0, 0)

	id := uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ScanID(id)).
		Return(nil, serrors.With(serrors.ErrBadRequest, "bad url"))

	var cancelErr *river.JobCancelError
	require.ErrorAs(t, w.Work(context.Background(), makeJob(3, id)), &cancelErr)
}

func TestScanWorker_Work_CaptureFaultRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockscanner.NewMockScanner(ctrl)
	w := worker.NewScanWorker(mock, 0, 0)

	id := uuid.New()
	fault := serrors.With(serrors.ErrUnavailable, "browser crashed")
	mock.EXPECT().Process(gomock.Any(), domain.ScanID(id)).Return(nil, fault)

	err := w.Work(context.Background(), makeJob(4, id))
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrUnavailable)

	var cancelErr *river.JobCancelError
	require.False(t, errors.As(err, &cancelErr), "capture faults must be retried")
	var snoozeErr *river.JobSnoozeError
	require.False(t, errors.As(err, &snoozeErr))
}

func TestScanWorker_Pacing_SnoozesWhenBudgetExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockscanner.NewMockScanner(ctrl)
	// one capture every ten seconds
	w := worker.NewScanWorker(mock, 0.1, 0)

	first, second := uuid.New(), uuid.New()
	mock.EXPECT().Process(gomock.Any(), domain.ScanID(first)).Return(&domain.Scan{}, nil)

	require.NoError(t, w.Work(context.Background(), makeJob(5, first)))

	// the second job must not reach the scanner
	err := w.Work(context.Background(), makeJob(6, second))
	var snoozeErr *river.JobSnoozeError
	require.ErrorAs(t, err, &snoozeErr)
	require.Greater(t, snoozeErr.Duration, 5*time.Second)
	require.LessOrEqual(t, snoozeErr.Duration, 10*time.Second)
}

func TestScanWorker_Pacing_WaitsForShortDelays(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockscanner.NewMockScanner(ctrl)
	// a token every 200ms
	w := worker.NewScanWorker(mock, 5, 0)

	mock.EXPECT().Process(gomock.Any(), gomock.Any()).Return(&domain.Scan{}, nil).Times(2)

	start := time.Now()
	require.NoError(t, w.Work(context.Background(), makeJob(7, uuid.New())))
	require.NoError(t, w.Work(context.Background(), makeJob(8, uuid.New())))
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestScanWorker_Pacing_CanceledWhileWaiting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := mockscanner.NewMockScanner(ctrl)
	w := worker.NewScanWorker(mock, 2, 0)

	mock.EXPECT().Process(gomock.Any(), gomock.Any()).Return(&domain.Scan{}, nil).Times(1)
	require.NoError(t, w.Work(context.Background(), makeJob(9, uuid.New())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Work(ctx, makeJob(10, uuid.New()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestScanWorker_Timeout(t *testing.T) {
	w := worker.NewScanWorker(nil, 0, 90*time.Second)
	require.Equal(t, 90*time.Second, w.Timeout(makeJob(11, uuid.New())))
}
