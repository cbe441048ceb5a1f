// Package migrations holds the sqlite schema applied at startup.
package migrations

import "embed"

// FS contains every NNN_name.sql migration
//
//go:embed *.sql
var FS embed.FS
