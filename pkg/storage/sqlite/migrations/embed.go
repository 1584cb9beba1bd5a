package migrations

import "embed"

// FS holds the SQLite schema for posts and post metadata.
//
//go:embed *.sql
var FS embed.FS
