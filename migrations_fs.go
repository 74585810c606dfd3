package apimodules

import (
	"io/fs"

	"github.com/lunchpaillola/api-module-library/migrations"
)

// GetMigrationsFS returns the embedded credential and entity schema,
// including sqlite alternatives under data/sql/migrations/sqlite.
func GetMigrationsFS() fs.FS {
	return migrations.FS()
}
