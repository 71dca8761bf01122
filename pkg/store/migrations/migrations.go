// Package migrations embeds the PostgreSQL schema migrations.
//
// The SQLite backend does not use these files; it is migrated via GORM
// AutoMigrate because SQLite has no declarative partitioning.
package migrations

import "embed"

// FS contains the SQL migration files.
//
//go:embed *.sql
var FS embed.FS
