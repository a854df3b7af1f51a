// SPDX-License-Identifier: GPL-3.0-or-later
package migrations

import (
	"embed"

	"github.com/rubenv/sql-migrate"
)

//go:embed sql/*.sql
var files embed.FS

func Source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: files,
		Root:       "sql",
	}
}
