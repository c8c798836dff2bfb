package migrations

import "embed"

// FS contains the embedded directory schema.
//
//go:embed *.sql
var FS embed.FS
