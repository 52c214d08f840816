// Package migrations embeds the SQL migrations for the local history store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
