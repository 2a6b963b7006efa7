// Package migrations embeds the database schema migrations.
package migrations

import "embed"

// FS holds the .up.sql migration files, applied in sorted order.
//
//go:embed *.up.sql
var FS embed.FS
