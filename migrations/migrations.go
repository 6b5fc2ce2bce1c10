// Package migrations embeds the SQL migrations of the local journal database.
package migrations

import "embed"

// FS holds every goose migration file.
//
//go:embed *.sql
var FS embed.FS
