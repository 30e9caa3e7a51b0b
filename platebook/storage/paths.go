package storage

import "fmt"

func UserImageBase(userId string) string {
	return fmt.Sprintf("users/%v/avatar", userId)
}

func RecipeImageBase(recipeId string) string {
	return fmt.Sprintf("recipes/%v/cover", recipeId)
}

func CategoryImageBase(categoryId string) string {
	return fmt.Sprintf("categories/%v/cover", categoryId)
}

func CompilationImageBase(compilationId string) string {
	return fmt.Sprintf("compilations/%v/cover", compilationId)
}

func ArticleImageBase(articleId string) string {
	return fmt.Sprintf("articles/%v/cover", articleId)
}

func StoryImageBase(storyId, itemId string) string {
	return fmt.Sprintf("stories/%v/%v", storyId, itemId)
}

func StoryThumbnailBase(storyId string) string {
	return fmt.Sprintf("stories/%v/thumbnail", storyId)
}
