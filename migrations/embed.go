// Package migrations embeds the goose SQL migrations for the reservation
// schema so the API binary can migrate on start and tests can build the
// schema without a filesystem path.
package migrations

import "embed"

// FS holds all *.sql migration files. Pass it to goose.NewProvider.
//
//go:embed *.sql
var FS embed.FS
