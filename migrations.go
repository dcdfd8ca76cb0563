// Package phishvault holds assets shared by every binary built from this module.
package phishvault

import "embed"

// Migrations contains the goose SQL migrations applied by the migrate command.
//
//go:embed migrations/*.sql
var Migrations embed.FS
