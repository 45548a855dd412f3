package migrations

import "embed"

// FS holds the goose migrations applied by cmd/migrate.
//
//go:embed *.sql
var FS embed.FS
