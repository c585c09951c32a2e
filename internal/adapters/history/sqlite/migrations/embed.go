package migrations

import "embed"

// FS contains the embedded session history migrations.
//
//go:embed *.sql
var FS embed.FS
