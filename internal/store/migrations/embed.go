// Package migrations embeds the SQL schema migrations for the phonebook cache.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
