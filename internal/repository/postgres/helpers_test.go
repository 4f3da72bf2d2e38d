package postgres

import (
	"io/fs"

	"github.com/pratik-mahalle/soar/migrations"
)

func migrationsFS() fs.FS {
	return migrations.GetFS()
}
