// Package migrations holds the SQLite schema scripts, named NNN_name.up.sql
// with a matching .down.sql.
package migrations

import "embed"

// FS holds the migration scripts in version order by name.
//
//go:embed *.sql
var FS embed.FS
