// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds the numbered *.up.sql / *.down.sql files
//
//go:embed *.sql
var FS embed.FS
