// Package migrations embeds the Postgres schema of the sync journal.
// The server applies it on start when DATABASE_URL is set; the integration
// tests apply it in TestMain.
package migrations

import "embed"

// FS holds the goose *.sql files. Pass it to goose.NewProvider.
//
//go:embed *.sql
var FS embed.FS
