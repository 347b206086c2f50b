// Package migrations embeds the SQL schema migrations applied by goose.
// The statements are written to run unchanged on PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
