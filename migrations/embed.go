// Package migrations embeds the SQL schema applied by internal/platform/migrate.
package migrations

import "embed"

// FS holds the ordered up/down migration files.
//
//go:embed *.sql
var FS embed.FS
