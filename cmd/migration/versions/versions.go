package versions

import (
	"platebook/platebook/schema"

	"gorm.io/gorm"
)

// Migration_1_builtin_groups ensures the admin, user and no_auth groups
// exist. Safe to rerun.
func Migration_1_builtin_groups(txn *gorm.DB) error {
	for _, name := range schema.BuiltinGroups() {
		if _, err := schema.GroupByNameOrCreate(name, txn); err != nil {
			return err
		}
	}
	return nil
}
