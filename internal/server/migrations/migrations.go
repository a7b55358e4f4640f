// Package migrations embeds the goose migrations of the sync receiver's
// Postgres database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
