package domain

import "strings"

// Verdict is the categorical risk label derived from a score.
type Verdict string

const (
	// VerdictSafe means the score stayed below the suspicious threshold.
	VerdictSafe Verdict = "Safe"
	// VerdictSuspicious means the score reached the suspicious threshold.
	VerdictSuspicious Verdict = "Suspicious"
	// VerdictMalicious means the score reached the malicious threshold.
	VerdictMalicious Verdict = "Malicious"
)

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictSafe, VerdictSuspicious, VerdictMalicious:
		return true
	default:
		return false
	}
}

// ScoreResult is the explainable outcome of scoring a SignalBundle.
type ScoreResult struct {
	// Score is the sum of all triggered rule weights.
	Score int `json:"score"`
	// Verdict is a pure function of Score.
	Verdict Verdict `json:"verdict"`
	// Notes holds one entry per triggered contribution in rule order.
	Notes []string `json:"notes"`
}

// Details joins the notes for display.
func (r ScoreResult) Details() string {
	return strings.Join(r.Notes, "; ")
}
