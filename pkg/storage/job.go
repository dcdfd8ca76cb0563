package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage inserts background jobs next to the data they refer to.
type JobStorage interface {
	// AddJob enqueues a job. On a TxStorage the job commits or rolls back with
	// the transaction. It returns false when a unique job with the same args
	// is already queued.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
