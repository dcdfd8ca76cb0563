package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanID identifies a scan. It is also the unique key of its processing job.
type ScanID uuid.UUID

func (id ScanID) String() string { return uuid.UUID(id).String() }

// ScanStatus moves PENDING -> COMPLETED, or PENDING -> FAILED once attempts run out.
type ScanStatus string

const (
	// ScanStatusPending: stored and queued, not captured yet.
	ScanStatusPending ScanStatus = "PENDING"
	// ScanStatusCompleted: Signals and Result are set.
	ScanStatusCompleted ScanStatus = "COMPLETED"
	// ScanStatusFailed: the browser engine kept failing; see LastError.
	ScanStatusFailed ScanStatus = "FAILED"
)

// Scan is the persisted record of one scan request. It wraps the captured
// bundle and its score and is only mutated by the storage layer.
type Scan struct {
	ID ScanID `json:"id"`
	// UserID owns the scan; every query is scoped to it.
	UserID UserID `json:"userId"`

	// URL is the normalized target URL.
	URL string `json:"url"`
	Status ScanStatus `json:"status"`
	// Signals is the bundle produced by the capture agent.
	Signals SignalBundle `json:"signals"`
	// Result is the scoring outcome for Signals.
	Result ScoreResult `json:"result"`
	// Fingerprint identifies Signals; equal fingerprints imply equal results.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Attempts counts processing runs, including the one that completed it.
	Attempts uint `json:"attempts"`
	// LastError stores the most recent fatal capture error, if any.
	LastError string `json:"-"`

	// CreatedAt doubles as the pagination cursor.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// DeletedAt is zero for live scans.
	DeletedAt time.Time `json:"-"`
}

// VerdictSummary counts a user's completed scans per verdict.
type VerdictSummary struct {
	Total      int64 `json:"total"`
	Safe       int64 `json:"safe"`
	Suspicious int64 `json:"suspicious"`
	Malicious  int64 `json:"malicious"`
}
