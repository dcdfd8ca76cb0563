package storage

import (
	"context"
	"phishvault/pkg/domain"
	"time"
)

// ScanUpdates describes a set of optional fields that can be applied to a
// pending scan. Only non-nil fields will be updated.
type ScanUpdates struct {
	// Status is the new status to set for the scan.
	Status domain.ScanStatus
	// Signals, when provided, replaces the stored signal bundle.
	Signals *domain.SignalBundle
	// Result, when provided, replaces the stored score result. The verdict and
	// score columns follow it.
	Result *domain.ScoreResult
	// Fingerprint, when provided, sets the fingerprint of the captured signals.
	Fingerprint *string
	// LastError, when provided, sets the last error text. An empty string value
	// indicates the error should be cleared (set to NULL).
	LastError *string
	// MaxAttempts, when provided alongside a Failed status, ensures that status
	// is only updated to Failed once the attempts after increment reach this
	// threshold; before that the scan stays Pending. A value <= 0 disables
	// this guard.
	MaxAttempts int
}

// ScanFilter narrows a listing of a user's scans. Zero values mean "no filter".
type ScanFilter struct {
	// Status keeps only scans with the given status.
	Status domain.ScanStatus
	// Verdict keeps only completed scans with the given verdict.
	Verdict domain.Verdict
	// From and To bound created_at, both inclusive.
	From time.Time
	To   time.Time
	// Cursor keeps scans created strictly before it.
	Cursor time.Time
	// Limit caps the page size.
	Limit uint
}

// UserScans groups a page of scans returned for a user together with an
// optional NextCursor used for pagination.
type UserScans struct {
	// Scans contains the current page of scan records.
	Scans []domain.Scan
	// NextCursor points to the timestamp to be used as the cursor for fetching
	// the next page. It is nil when there is no next page.
	NextCursor *time.Time
}

// ScanStorage defines CRUD and query operations related to scans. Soft-deleted
// rows are invisible to every method.
type ScanStorage interface {
	// StoreScans inserts one or more scans and returns the stored rows as they
	// exist in the database (including generated fields).
	StoreScans(ctx context.Context, scans ...domain.Scan) ([]domain.Scan, error)
	// PendingScan fetches a pending scan by its ID regardless of owner. Returns
	// nil when the scan does not exist, is deleted or is no longer pending.
	PendingScan(ctx context.Context, ID domain.ScanID) (*domain.Scan, error)
	// UpdatePendingScan applies updates to a pending scan and returns the
	// updated row, or nil when the scan is no longer pending.
	// Notes:
	// - Attempts is incremented by 1 and updated_at is set automatically.
	// - If Status is Failed and MaxAttempts > 0, status is only set to Failed
	//   when the attempts after increment reach MaxAttempts; otherwise status
	//   remains Pending.
	UpdatePendingScan(ctx context.Context, ID domain.ScanID, updates ScanUpdates) (*domain.Scan, error)
	// DeleteScan performs a soft delete for the given scan ID and user ID and
	// returns the deleted scan, or nil if it was not found.
	DeleteScan(ctx context.Context, userID domain.UserID, ID domain.ScanID) (*domain.Scan, error)
	// UserScans returns a page of scans for a user ordered from newest to
	// oldest and narrowed by filter.
	UserScans(ctx context.Context, userID domain.UserID, filter ScanFilter) (UserScans, error)
	// ScanByID fetches a scan by its ID for the given user. Returns nil when not found.
	ScanByID(ctx context.Context, userID domain.UserID, ID domain.ScanID) (*domain.Scan, error)
	// LastCompletedScanByURL returns the user's most recent completed scan of
	// URL, or nil when there is none.
	LastCompletedScanByURL(ctx context.Context, userID domain.UserID, URL string) (*domain.Scan, error)
	// VerdictSummary counts the user's completed scans per verdict, optionally
	// bounded by creation time.
	VerdictSummary(ctx context.Context, userID domain.UserID, from, to time.Time) (domain.VerdictSummary, error)
}
