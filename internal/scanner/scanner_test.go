package scanner_test

import (
	"context"
	"errors"
	"phishvault/internal/scanner"
	"testing"
	"time"

	mockscanner "phishvault/internal/scanner/mock"
	mockstorage "phishvault/pkg/storage/mock"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"phishvault/pkg/domain"
	"phishvault/pkg/scoring"
	"phishvault/pkg/serrors"
	"phishvault/pkg/storage"
)

const (
	url = "https://example.com/"
)

type testScanner struct {
	ctrl     *gomock.Controller
	storage  *mockstorage.MockStorage
	capturer *mockscanner.MockCapturer
	engine   *scoring.Engine
	scanner  scanner.Scanner
}

func newTestScanner(t *testing.T) testScanner {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mockstorage.NewMockStorage(ctrl)
	capturer := mockscanner.NewMockCapturer(ctrl)
	engine, err := scoring.New(scoring.DefaultTable())
	if err != nil {
		t.Fatalf("could not create engine: %v", err)
	}
	s := scanner.New(scanner.Deps{
		Storage:  st,
		Capturer: capturer,
		Engine:   engine,
	}, scanner.Options{MaxAttempts: 3})

	return testScanner{ctrl: ctrl, storage: st, capturer: capturer, engine: engine, scanner: s}
}

// helper to wire Storage.WithTx to execute callback with a MockAllStorage.
func expectWithTx(
	t *testing.T,
	ctrl *gomock.Controller,
	m *mockstorage.MockStorage,
	fn func(tx *mockstorage.MockAllStorage)) {
	t.Helper()

	m.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cb func(storage.AllStorage) error) error {
			// provide a tx mock that implements AllStorage
			tx := mockstorage.NewMockAllStorage(ctrl)
			if fn != nil {
				fn(tx)
			}

			return cb(tx)
		},
	)
}

func phishingBundle() domain.SignalBundle {
	b := domain.NewSignalBundle("https://example.com/")
	b.FinalURL = "https://example.com/login"
	b.RedirectChain = []string{"https://a.test/", "https://b.test/", "https://c.test/", "https://example.com/login"}
	b.RenderedHTML = `<html><body><form action="https://evil.test/collect">` +
		`<input type="password" name="pass"></form></body></html>`

	return b
}

func TestScanner_Enqueue_JobAdded(t *testing.T) {
	ts := newTestScanner(t)

	userID := domain.UserID{}
	scanID := domain.ScanID(uuid.New())

	expectWithTx(t, ts.ctrl, ts.storage, func(tx *mockstorage.MockAllStorage) {
		// Expect storing the scan
		tx.EXPECT().StoreScans(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, scans ...domain.Scan) ([]domain.Scan, error) {
				ret := scans
				if len(ret) != 1 {
					t.Fatalf("expected one scan input")
				}
				ret[0].ID = scanID

				return ret, nil
			},
		)
		// Expect a job keyed by the new scan id
		tx.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).DoAndReturn(
			func(_ context.Context, args scanner.ProcessScanArgs, _ any) (bool, error) {
				if args.ScanID != uuid.UUID(scanID) {
					t.Fatalf("job scan id = %s, want %s", args.ScanID, scanID)
				}
				if got := args.InsertOpts().MaxAttempts; got != 3 {
					t.Fatalf("max attempts = %d", got)
				}

				return true, nil
			},
		)
	})

	scan, err := ts.scanner.Enqueue(context.Background(), userID, "HTTPS://Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scan == nil {
		t.Fatalf("expected scan, got nil")
	}
	if scan.URL != url {
		t.Fatalf("expected url %q got %q", url, scan.URL)
	}
	if scan.Status != domain.ScanStatusPending {
		t.Fatalf("expected status PENDING, got %s", scan.Status)
	}
}

func TestScanner_Enqueue_InvalidURL(t *testing.T) {
	ts := newTestScanner(t)
	// no storage calls expected

	for _, in := range []string{"http://[::1", "ftp://example.com/", "example.com", ""} {
		_, err := ts.scanner.Enqueue(context.Background(), domain.UserID{}, in)
		if err == nil {
			t.Fatalf("%q: expected error", in)
		}
		if !errors.Is(err, serrors.ErrBadRequest) {
			t.Fatalf("%q: expected ErrBadRequest, got %v", in, err)
		}
	}
}

func TestScanner_Enqueue_PropagatesErrors(t *testing.T) {
	ts := newTestScanner(t)
	userID := domain.UserID{}

	// error from StoreScans
	expectWithTx(t, ts.ctrl, ts.storage, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().StoreScans(gomock.Any(), gomock.Any()).Return(nil, errors.New("store err"))
	})
	if _, err := ts.scanner.Enqueue(context.Background(), userID, url); err == nil {
		t.Fatalf("expected error from StoreScans")
	}

	// error from AddJob
	expectWithTx(t, ts.ctrl, ts.storage, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().StoreScans(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, scans ...domain.Scan) ([]domain.Scan, error) {
				return scans, nil
			},
		)
		tx.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).Return(false, errors.New("add err"))
	})
	if _, err := ts.scanner.Enqueue(context.Background(), userID, url); err == nil {
		t.Fatalf("expected error from AddJob")
	}
}

func TestScanner_Process_Completed(t *testing.T) {
	ts := newTestScanner(t)
	id := domain.ScanID(uuid.New())
	bundle := phishingBundle()
	want := ts.engine.Score(bundle)

	ts.storage.EXPECT().PendingScan(gomock.Any(), id).
		Return(&domain.Scan{ID: id, URL: url, Status: domain.ScanStatusPending}, nil)
	ts.capturer.EXPECT().Capture(gomock.Any(), url).Return(bundle, nil)
	ts.storage.EXPECT().UpdatePendingScan(gomock.Any(), id, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.ScanID, updates storage.ScanUpdates) (*domain.Scan, error) {
			if updates.Status != domain.ScanStatusCompleted {
				t.Fatalf("status = %s", updates.Status)
			}
			if updates.Signals == nil || updates.Result == nil || updates.Fingerprint == nil {
				t.Fatalf("expected signals, result and fingerprint: %+v", updates)
			}
			if *updates.Fingerprint != bundle.Fingerprint() {
				t.Fatalf("fingerprint = %q", *updates.Fingerprint)
			}
			if updates.LastError == nil || *updates.LastError != "" {
				t.Fatalf("expected last error to be cleared")
			}

			return &domain.Scan{
				ID:      id,
				URL:     url,
				Status:  updates.Status,
				Signals: *updates.Signals,
				Result:  *updates.Result,
			}, nil
		},
	)

	scan, err := ts.scanner.Process(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scan.Status != domain.ScanStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", scan.Status)
	}
	if scan.Result.Score != want.Score || scan.Result.Verdict != want.Verdict {
		t.Fatalf("result = %+v, want %+v", scan.Result, want)
	}
	if scan.Result.Verdict == domain.VerdictSafe {
		t.Fatalf("expected a non-safe verdict for a phishing bundle")
	}
}

func TestScanner_Process_NotPending(t *testing.T) {
	ts := newTestScanner(t)
	id := domain.ScanID(uuid.New())

	ts.storage.EXPECT().PendingScan(gomock.Any(), id).Return(nil, nil)

	_, err := ts.scanner.Process(context.Background(), id)
	if !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanner_Process_DeletedWhileCapturing(t *testing.T) {
	ts := newTestScanner(t)
	id := domain.ScanID(uuid.New())

	ts.storage.EXPECT().PendingScan(gomock.Any(), id).Return(&domain.Scan{ID: id, URL: url}, nil)
	ts.capturer.EXPECT().Capture(gomock.Any(), url).Return(domain.NewSignalBundle(url), nil)
	ts.storage.EXPECT().UpdatePendingScan(gomock.Any(), id, gomock.Any()).Return(nil, nil)

	_, err := ts.scanner.Process(context.Background(), id)
	if !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanner_Process_CaptureFault(t *testing.T) {
	ts := newTestScanner(t)
	id := domain.ScanID(uuid.New())
	fault := serrors.With(serrors.ErrUnavailable, "browser crashed")

	ts.storage.EXPECT().PendingScan(gomock.Any(), id).Return(&domain.Scan{ID: id, URL: url}, nil)
	ts.capturer.EXPECT().Capture(gomock.Any(), url).Return(domain.SignalBundle{}, fault)
	ts.storage.EXPECT().UpdatePendingScan(gomock.Any(), id, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.ScanID, updates storage.ScanUpdates) (*domain.Scan, error) {
			if updates.Status != domain.ScanStatusFailed {
				t.Fatalf("status = %s", updates.Status)
			}
			if updates.MaxAttempts != 3 {
				t.Fatalf("max attempts = %d", updates.MaxAttempts)
			}
			if updates.LastError == nil || *updates.LastError == "" {
				t.Fatalf("expected last error")
			}
			if updates.Signals != nil || updates.Result != nil {
				t.Fatalf("no result expected on failure")
			}

			return &domain.Scan{ID: id, Status: domain.ScanStatusPending, Attempts: 1}, nil
		},
	)

	_, err := ts.scanner.Process(context.Background(), id)
	if !errors.Is(err, serrors.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestScanner_Process_StorageErrors(t *testing.T) {
	ts := newTestScanner(t)
	id := domain.ScanID(uuid.New())

	ts.storage.EXPECT().PendingScan(gomock.Any(), id).Return(nil, errors.New("boom"))
	if _, err := ts.scanner.Process(context.Background(), id); err == nil {
		t.Fatalf("expected error from PendingScan")
	}

	ts.storage.EXPECT().PendingScan(gomock.Any(), id).Return(&domain.Scan{ID: id, URL: url}, nil)
	ts.capturer.EXPECT().Capture(gomock.Any(), url).Return(domain.NewSignalBundle(url), nil)
	ts.storage.EXPECT().UpdatePendingScan(gomock.Any(), id, gomock.Any()).Return(nil, errors.New("boom"))
	if _, err := ts.scanner.Process(context.Background(), id); err == nil {
		t.Fatalf("expected error from UpdatePendingScan")
	}
}

func TestScanner_Inspect(t *testing.T) {
	ts := newTestScanner(t)
	bundle := phishingBundle()

	ts.capturer.EXPECT().Capture(gomock.Any(), url).Return(bundle, nil)

	got, err := ts.scanner.Inspect(context.Background(), "https://EXAMPLE.com:443")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != url {
		t.Fatalf("url = %q", got.URL)
	}
	if got.Fingerprint != bundle.Fingerprint() {
		t.Fatalf("fingerprint mismatch")
	}
	want := ts.engine.Score(bundle)
	if got.Result.Score != want.Score || got.Result.Details() != want.Details() {
		t.Fatalf("result = %+v, want %+v", got.Result, want)
	}

	// invalid input never reaches the browser
	if _, err := ts.scanner.Inspect(context.Background(), "mailto:a@b.c"); !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}

	// capture faults surface unchanged in kind
	ts.capturer.EXPECT().Capture(gomock.Any(), url).
		Return(domain.SignalBundle{}, serrors.With(serrors.ErrUnavailable, "no browser"))
	if _, err := ts.scanner.Inspect(context.Background(), url); !errors.Is(err, serrors.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestScanner_UserScans_SuccessAndPagination(t *testing.T) {
	ts := newTestScanner(t)
	userID := domain.UserID{}
	cursorTime := time.Now().Add(-time.Hour).UTC()
	cursor := cursorTime.Format(time.RFC3339Nano)
	from := cursorTime.Add(-24 * time.Hour)
	filter := scanner.Filter{Status: domain.ScanStatusCompleted, Verdict: domain.VerdictMalicious, From: from}

	next := cursorTime.Add(-time.Minute)
	page := storage.UserScans{
		Scans:      []domain.Scan{{URL: "https://a"}},
		NextCursor: &next,
	}

	ts.storage.EXPECT().UserScans(gomock.Any(), userID, storage.ScanFilter{
		Status:  domain.ScanStatusCompleted,
		Verdict: domain.VerdictMalicious,
		From:    from,
		Cursor:  cursorTime,
		Limit:   10,
	}).Return(page, nil)

	scans, nextCursor, err := ts.scanner.UserScans(context.Background(), userID, filter, cursor, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scans) != 1 || scans[0].URL != "https://a" {
		t.Fatalf("unexpected scans: %+v", scans)
	}
	parsed, err := time.Parse(time.RFC3339Nano, nextCursor)
	if err != nil {
		t.Fatalf("next cursor %q is not a timestamp: %v", nextCursor, err)
	}
	if !parsed.Equal(next) {
		t.Fatalf("next cursor = %s, want %s", parsed, next)
	}
}

func TestScanner_UserScans_Limits(t *testing.T) {
	ts := newTestScanner(t)

	ts.storage.EXPECT().UserScans(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.UserID, f storage.ScanFilter) (storage.UserScans, error) {
			if f.Limit != scanner.DefaultPageSize {
				t.Fatalf("limit = %d", f.Limit)
			}

			return storage.UserScans{}, nil
		},
	)
	if _, next, err := ts.scanner.UserScans(context.Background(), domain.UserID{}, scanner.Filter{}, "", 0); err != nil || next != "" {
		t.Fatalf("unexpected: next=%q err=%v", next, err)
	}

	ts.storage.EXPECT().UserScans(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.UserID, f storage.ScanFilter) (storage.UserScans, error) {
			if f.Limit != scanner.MaxPageSize {
				t.Fatalf("limit = %d", f.Limit)
			}

			return storage.UserScans{}, nil
		},
	)
	if _, _, err := ts.scanner.UserScans(context.Background(), domain.UserID{}, scanner.Filter{}, "", 5000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScanner_UserScans_BadRequests(t *testing.T) {
	ts := newTestScanner(t)
	now := time.Now()

	cases := []struct {
		name   string
		filter scanner.Filter
		cursor string
	}{
		{name: "invalid cursor", cursor: "not-a-time"},
		{name: "invalid verdict", filter: scanner.Filter{Verdict: "Evil"}},
		{name: "inverted range", filter: scanner.Filter{From: now, To: now.Add(-time.Hour)}},
	}
	for _, tc := range cases {
		_, _, err := ts.scanner.UserScans(context.Background(), domain.UserID{}, tc.filter, tc.cursor, 5)
		if err == nil || !errors.Is(err, serrors.ErrBadRequest) {
			t.Fatalf("%s: expected ErrBadRequest, got %v", tc.name, err)
		}
	}
}

func TestScanner_Result(t *testing.T) {
	ts := newTestScanner(t)
	userID := domain.UserID{}
	id := domain.ScanID{}

	// found
	ts.storage.EXPECT().ScanByID(gomock.Any(), userID, id).Return(&domain.Scan{URL: "https://x"}, nil)
	scan, err := ts.scanner.Result(context.Background(), userID, id)
	if err != nil || scan == nil || scan.URL != "https://x" {
		t.Fatalf("unexpected: scan=%+v err=%v", scan, err)
	}

	// not found
	ts.storage.EXPECT().ScanByID(gomock.Any(), userID, id).Return(nil, nil)
	_, err = ts.scanner.Result(context.Background(), userID, id)
	if err == nil || !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// storage error
	ts.storage.EXPECT().ScanByID(gomock.Any(), userID, id).Return(nil, errors.New("boom"))
	_, err = ts.scanner.Result(context.Background(), userID, id)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestScanner_LatestByURL(t *testing.T) {
	ts := newTestScanner(t)
	userID := domain.UserID(uuid.New())

	// lookups use the normalized URL
	ts.storage.EXPECT().LastCompletedScanByURL(gomock.Any(), userID, url).
		Return(&domain.Scan{URL: url, Status: domain.ScanStatusCompleted}, nil)
	scan, err := ts.scanner.LatestByURL(context.Background(), userID, "https://example.com:443/#top")
	if err != nil || scan.URL != url {
		t.Fatalf("unexpected: scan=%+v err=%v", scan, err)
	}

	ts.storage.EXPECT().LastCompletedScanByURL(gomock.Any(), userID, url).Return(nil, nil)
	if _, err := ts.scanner.LatestByURL(context.Background(), userID, url); !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := ts.scanner.LatestByURL(context.Background(), userID, "nope"); !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestScanner_Summary(t *testing.T) {
	ts := newTestScanner(t)
	userID := domain.UserID(uuid.New())
	from := time.Now().Add(-time.Hour)
	to := time.Now()
	want := domain.VerdictSummary{Total: 3, Safe: 1, Suspicious: 1, Malicious: 1}

	ts.storage.EXPECT().VerdictSummary(gomock.Any(), userID, from, to).Return(want, nil)
	got, err := ts.scanner.Summary(context.Background(), userID, from, to)
	if err != nil || got != want {
		t.Fatalf("unexpected: summary=%+v err=%v", got, err)
	}

	if _, err := ts.scanner.Summary(context.Background(), userID, to, from); !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}

	ts.storage.EXPECT().VerdictSummary(gomock.Any(), userID, time.Time{}, time.Time{}).
		Return(domain.VerdictSummary{}, errors.New("boom"))
	if _, err := ts.scanner.Summary(context.Background(), userID, time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestScanner_Delete(t *testing.T) {
	ts := newTestScanner(t)
	userID := domain.UserID{}
	id := domain.ScanID{}

	// success
	ts.storage.EXPECT().DeleteScan(gomock.Any(), userID, id).Return(&domain.Scan{}, nil)
	if err := ts.scanner.Delete(context.Background(), userID, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// not found
	ts.storage.EXPECT().DeleteScan(gomock.Any(), userID, id).Return(nil, nil)
	err := ts.scanner.Delete(context.Background(), userID, id)
	if err == nil || !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// storage error
	ts.storage.EXPECT().DeleteScan(gomock.Any(), userID, id).Return(nil, errors.New("boom"))
	if err := ts.scanner.Delete(context.Background(), userID, id); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
