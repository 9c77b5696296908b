package migrations

import "embed"

// FS contains the SQLite schema, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
