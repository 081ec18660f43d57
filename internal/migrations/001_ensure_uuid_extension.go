package migrations

import (
	"gorm.io/gorm"
)

// Migration001EnsureUUIDExtension enables uuid-ossp so text id columns can
// default to uuid_generate_v4() when rows are inserted outside the app
// (seed scripts, manual fixes).
func Migration001EnsureUUIDExtension() Migration {
	return Migration{
		ID:   "001_ensure_uuid_extension",
		Name: "Ensure uuid-ossp extension exists",
		Up: func(db *gorm.DB) error {
			return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
		},
		Down: func(db *gorm.DB) error {
			// Leave the extension in place; other databases may share it.
			return nil
		},
	}
}
