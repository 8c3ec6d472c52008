package db

import "embed"

// EmbedMigrations holds the goose migration scripts compiled into the
// binary, so a deployment never needs the migrations directory on disk.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
