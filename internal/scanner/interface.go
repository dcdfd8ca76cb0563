package scanner

import (
	"context"
	"phishvault/pkg/domain"
	"time"
)

// Filter narrows a listing of a user's scans. Zero values mean "no filter".
type Filter struct {
	Status  domain.ScanStatus
	Verdict domain.Verdict
	// From and To bound the creation time, both inclusive.
	From time.Time
	To   time.Time
}

// Inspection is the outcome of a capture that was scored but not stored.
type Inspection struct {
	URL         string              `json:"url"`
	Signals     domain.SignalBundle `json:"signals"`
	Result      domain.ScoreResult  `json:"result"`
	Fingerprint string              `json:"fingerprint"`
}

//go:generate mockgen -package mockscanner -source=interface.go -destination=mock/mockscanner.go
type Scanner interface {
	// Enqueue stores a pending scan of URL and schedules its processing.
	Enqueue(ctx context.Context, userID domain.UserID, URL string) (*domain.Scan, error)
	// Process captures and scores a pending scan. It is invoked by the worker.
	Process(ctx context.Context, scanID domain.ScanID) (*domain.Scan, error)
	// Inspect captures and scores URL without persisting anything.
	Inspect(ctx context.Context, URL string) (*Inspection, error)
	UserScans(ctx context.Context,
		userID domain.UserID,
		filter Filter,
		cursor string,
		limit uint) ([]domain.Scan, string, error)
	Result(ctx context.Context, userID domain.UserID, scanID domain.ScanID) (*domain.Scan, error)
	// LatestByURL returns the user's most recent completed scan of URL.
	LatestByURL(ctx context.Context, userID domain.UserID, URL string) (*domain.Scan, error)
	Summary(ctx context.Context, userID domain.UserID, from, to time.Time) (domain.VerdictSummary, error)
	Delete(ctx context.Context, userID domain.UserID, scanID domain.ScanID) error
}

// Capturer produces the signal bundle of a URL. *capture.Agent implements it.
type Capturer interface {
	Capture(ctx context.Context, rawURL string) (domain.SignalBundle, error)
}
