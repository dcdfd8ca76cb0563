package scoring

import (
	"fmt"
	"phishvault/pkg/domain"
	"phishvault/pkg/serrors"
)

// RuleID identifies a scoring rule. It doubles as the configuration key used
// to override the rule's weight.
type RuleID string

const (
	RuleRedirects          RuleID = "redirects"
	RuleJSLogs             RuleID = "js-logs"
	RuleCookies            RuleID = "cookies"
	RulePasswordField      RuleID = "password-field"
	RuleCredentialField    RuleID = "credential-field"
	RuleHiddenAuthField    RuleID = "hidden-auth-field"
	RuleExternalFormAction RuleID = "external-form-action"
	RuleInsecureFormAction RuleID = "insecure-form-action"
	RulePhishingKeyword    RuleID = "phishing-keyword"
	RuleFingerprinting     RuleID = "fingerprinting"
	RuleSuspiciousScript   RuleID = "suspicious-script-src"
	RuleBrandImpersonation RuleID = "brand-impersonation"
	RuleAntiAnalysis       RuleID = "anti-analysis"
	RuleDelayedExecution   RuleID = "delayed-execution"
)

// Table holds every tunable number of the engine: per-rule weights, the
// count limits used by rules 1 and 3, the delay limit of the delayed execution
// rule and the verdict thresholds.
type Table struct {
	// Weights maps a rule to the score it adds per contribution.
	Weights map[RuleID]int
	// MaxRedirects is the longest redirect chain that does not count as suspicious.
	MaxRedirects int
	// MaxCookies is the largest cookie count that does not count as suspicious.
	MaxCookies int
	// MinDelayMillis is the smallest setTimeout delay treated as delayed execution.
	MinDelayMillis int
	// SuspiciousAt is the lowest score classified as Suspicious.
	SuspiciousAt int
	// MaliciousAt is the lowest score classified as Malicious.
	MaliciousAt int
}

// DefaultTable returns the canonical weights and thresholds.
func DefaultTable() Table {
	return Table{
		Weights: map[RuleID]int{
			RuleRedirects:          2,
			RuleJSLogs:             3,
			RuleCookies:            1,
			RulePasswordField:      3,
			RuleCredentialField:    2,
			RuleHiddenAuthField:    2,
			RuleExternalFormAction: 3,
			RuleInsecureFormAction: 3,
			RulePhishingKeyword:    1,
			RuleFingerprinting:     2,
			RuleSuspiciousScript:   2,
			RuleBrandImpersonation: 1,
			RuleAntiAnalysis:       3,
			RuleDelayedExecution:   2,
		},
		MaxRedirects:   3,
		MaxCookies:     5,
		MinDelayMillis: 10000,
		SuspiciousAt:   4,
		MaliciousAt:    7,
	}
}

// WithWeights returns a copy of t where the given weights replace the
// defaults. Unknown rule ids and negative weights are rejected.
func (t Table) WithWeights(overrides map[string]int) (Table, error) {
	weights := make(map[RuleID]int, len(t.Weights))
	for id, w := range t.Weights {
		weights[id] = w
	}
	for key, w := range overrides {
		id := RuleID(key)
		if _, ok := weights[id]; !ok {
			return Table{}, serrors.With(serrors.ErrBadRequest, "unknown scoring rule %q", key)
		}
		weights[id] = w
	}
	t.Weights = weights

	return t, t.Validate()
}

// Validate checks that the table can only produce non-negative scores and
// that the thresholds are ordered.
func (t Table) Validate() error {
	for id, w := range t.Weights {
		if w < 0 {
			return serrors.With(serrors.ErrBadRequest, "weight of rule %q must not be negative", id)
		}
	}
	if t.SuspiciousAt <= 0 || t.MaliciousAt < t.SuspiciousAt {
		return serrors.With(serrors.ErrBadRequest,
			"invalid thresholds: suspicious=%d malicious=%d", t.SuspiciousAt, t.MaliciousAt)
	}
	if t.MaxRedirects < 0 || t.MaxCookies < 0 || t.MinDelayMillis <= 0 {
		return serrors.With(serrors.ErrBadRequest, "invalid limits in scoring table")
	}

	return nil
}

// Weight returns the weight configured for id, or zero when absent.
func (t Table) Weight(id RuleID) int {
	return t.Weights[id]
}

// Verdict maps a score to its verdict.
func (t Table) Verdict(score int) domain.Verdict {
	switch {
	case score >= t.MaliciousAt:
		return domain.VerdictMalicious
	case score >= t.SuspiciousAt:
		return domain.VerdictSuspicious
	default:
		return domain.VerdictSafe
	}
}

func (t Table) String() string {
	return fmt.Sprintf("suspicious>=%d malicious>=%d rules=%d", t.SuspiciousAt, t.MaliciousAt, len(t.Weights))
}
