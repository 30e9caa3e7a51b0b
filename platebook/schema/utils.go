package schema

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

func GetUser(userId string, db *gorm.DB, preloads ...string) (User, error) {
	for _, preload := range preloads {
		db = db.Preload(preload)
	}

	var user User
	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, fmt.Errorf("%w: user %v", ErrNotFound, userId)
		}
		return User{}, NewDbError("retrieving user", result.Error)
	}

	return user, nil
}

func GetRecipe(recipeId string, db *gorm.DB, preloads ...string) (Recipe, error) {
	for _, preload := range preloads {
		db = db.Preload(preload)
	}

	var recipe Recipe
	result := db.First(&recipe, "id = ?", recipeId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Recipe{}, fmt.Errorf("%w: recipe %v", ErrNotFound, recipeId)
		}
		return Recipe{}, NewDbError("retrieving recipe", result.Error)
	}

	return recipe, nil
}

func GetGroupByName(name string, db *gorm.DB) (Group, error) {
	var group Group
	result := db.First(&group, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Group{}, fmt.Errorf("%w: group %v", ErrNotFound, name)
		}
		return Group{}, NewDbError("retrieving group", result.Error)
	}

	return group, nil
}

// UserGroupNames returns the names of the groups the user currently belongs
// to. Memberships past their expiration are skipped even if cmd/sweep has
// not removed the rows yet.
func UserGroupNames(userId string, db *gorm.DB) ([]string, error) {
	var names []string
	result := db.Model(&UserGroup{}).
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("user_groups.user_id = ?", userId).
		Where("user_groups.expires_at IS NULL OR user_groups.expires_at > ?", time.Now().UTC()).
		Pluck("groups.name", &names)
	if result.Error != nil {
		return nil, NewDbError("listing user groups", result.Error)
	}

	return names, nil
}

func IsAdmin(userId string, db *gorm.DB) (bool, error) {
	names, err := UserGroupNames(userId, db)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == AdminGroup {
			return true, nil
		}
	}
	return false, nil
}
