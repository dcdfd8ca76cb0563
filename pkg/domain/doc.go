// Package domain contains the core entities shared by the capture agent, the
// scoring engine and the persistence layer: signal bundles, score results,
// verdicts and scan records. The types carry no infrastructure concerns.
package domain
