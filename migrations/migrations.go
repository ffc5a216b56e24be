// Package migrations embeds the catalog schema for every supported database.
package migrations

import "embed"

// Embedded migration files bundled at compile time so the catalog can be
// created from the single binary.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
