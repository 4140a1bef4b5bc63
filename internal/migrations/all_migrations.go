// Package migrations holds the ordered list of data migrations for this
// deployment.
package migrations

import (
	"github.com/docuseek/indexcore/internal/migration"
)

// All returns the ordered list of migrations.
// Order matters - migrations are executed in slice order.
// Add new migrations to this list in chronological order.
func All() []migration.Migration {
	return []migration.Migration{
		&ForceReindexLegacyPages{},
	}
}
