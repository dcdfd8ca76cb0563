// Package scoring turns a captured SignalBundle into an explainable verdict.
//
// The engine is a fold over an ordered list of independent rules. Each rule
// contributes zero or more weighted notes; the weights are summed and the sum
// is mapped to a verdict through the thresholds of a Table. Scoring is pure:
// the same bundle always yields the same ScoreResult.
package scoring

import (
	"fmt"
	"phishvault/pkg/domain"
)

// Engine scores signal bundles. It is immutable and safe for concurrent use.
type Engine struct {
	table Table
	rules []Rule
}

// New returns an engine running DefaultRules weighted by table.
func New(table Table) (*Engine, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring table: %w", err)
	}

	return &Engine{table: table, rules: DefaultRules(table)}, nil
}

// NewWithRules returns an engine evaluating rules in the given order.
func NewWithRules(table Table, rules ...Rule) (*Engine, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring table: %w", err)
	}

	return &Engine{table: table, rules: append([]Rule(nil), rules...)}, nil
}

// Table returns the table the engine was built with.
func (e *Engine) Table() Table { return e.table }

// Score evaluates every rule against b and sums their contributions.
func (e *Engine) Score(b domain.SignalBundle) domain.ScoreResult {
	in := NewInput(b)

	result := domain.ScoreResult{Notes: []string{}}
	for _, rule := range e.rules {
		for _, c := range rule.Evaluate(in) {
			if c.Weight < 0 {
				continue
			}
			result.Score += c.Weight
			result.Notes = append(result.Notes, c.Note)
		}
	}
	result.Verdict = e.table.Verdict(result.Score)

	return result
}
