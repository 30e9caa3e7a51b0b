package schema

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertByName inserts the entry unless another row already holds the name,
// then reads back whichever row won. The unique index on name makes this
// safe under concurrent callers, both end up with the same row.
func upsertByName[T any](db *gorm.DB, name string, fresh T) (T, error) {
	var zero T

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
	if result.Error != nil {
		return zero, NewDbError("creating entry", result.Error)
	}

	var entry T
	result = db.First(&entry, "name = ?", name)
	if result.Error != nil {
		return zero, NewDbError("retrieving entry after upsert", result.Error)
	}

	return entry, nil
}

func IngredientByNameOrCreate(name string, db *gorm.DB) (Ingredient, error) {
	return upsertByName(db, name, Ingredient{Id: uuid.NewString(), Name: name})
}

func IngredientGroupByNameOrCreate(name string, db *gorm.DB) (IngredientGroup, error) {
	return upsertByName(db, name, IngredientGroup{Id: uuid.NewString(), Name: name})
}

func DimensionByNameOrCreate(name string, db *gorm.DB) (Dimension, error) {
	return upsertByName(db, name, Dimension{Id: uuid.NewString(), Name: name})
}

func CategoryByNameOrCreate(name string, db *gorm.DB) (Category, error) {
	return upsertByName(db, name, Category{Id: uuid.NewString(), Name: name})
}

func CompilationByNameOrCreate(name string, db *gorm.DB) (Compilation, error) {
	return upsertByName(db, name, Compilation{Id: uuid.NewString(), Name: name})
}

func GroupByNameOrCreate(name string, db *gorm.DB) (Group, error) {
	return upsertByName(db, name, Group{Id: uuid.NewString(), Name: name})
}
