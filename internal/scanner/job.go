package scanner

import (
	"phishvault/pkg/domain"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// QueueCaptures is the River queue scan jobs run on. Its worker count bounds
// the number of browser contexts open at once.
const QueueCaptures = "captures"

// ProcessScanArgs is the River job that captures and scores one scan.
type ProcessScanArgs struct {
	ScanID uuid.UUID `json:"scan_id" river:"unique"`

	// not serialized; only shapes the insert
	maxAttempts int
}

// NewProcessScanArgs returns the job for scanID. A maxAttempts <= 0 keeps
// River's default.
func NewProcessScanArgs(scanID domain.ScanID, maxAttempts int) ProcessScanArgs {
	return ProcessScanArgs{ScanID: uuid.UUID(scanID), maxAttempts: maxAttempts}
}

func (args ProcessScanArgs) Kind() string { return "process_scan" }

// InsertOpts places the job on QueueCaptures and keeps it unique per scan for
// as long as the scan can still be processed or has been.
func (args ProcessScanArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueCaptures,
		MaxAttempts: args.maxAttempts,
		Tags:        []string{"scan"},
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStateCompleted,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
