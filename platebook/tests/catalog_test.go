package tests

import (
	"errors"
	"testing"
)

func TestCategoryListing(t *testing.T) {
	env := setupTestEnv(t)

	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	withImage, err := alice.createRecipe(recipeParams{Title: "granola", Categories: []string{"breakfast"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := alice.uploadRecipeImage(withImage); err != nil {
		t.Fatal(err)
	}

	// A category whose only recipe has no image has no cover to show.
	if _, err := alice.createRecipe(recipeParams{Title: "ramen", Categories: []string{"dinner"}}); err != nil {
		t.Fatal(err)
	}

	categories, err := env.newClient().listCategories()
	if err != nil {
		t.Fatal(err)
	}

	if len(categories) != 1 || categories[0].Name != "breakfast" {
		t.Fatalf("expected only breakfast, got %v", categories)
	}
	if len(categories[0].ImageURLs) == 0 {
		t.Fatal("expected cover image urls")
	}
}

func TestGetCategory(t *testing.T) {
	env := setupTestEnv(t)

	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	recipeId, err := alice.createRecipe(recipeParams{Title: "oats", Categories: []string{"breakfast"}})
	if err != nil {
		t.Fatal(err)
	}

	// The category exists even while no visible recipe can supply a cover.
	category, err := env.newClient().getCategory("breakfast")
	if err != nil {
		t.Fatal(err)
	}
	if category.Name != "breakfast" || len(category.ImageURLs) != 0 {
		t.Fatalf("unexpected category %+v", category)
	}

	if err := alice.uploadRecipeImage(recipeId); err != nil {
		t.Fatal(err)
	}

	category, err = env.newClient().getCategory("breakfast")
	if err != nil {
		t.Fatal(err)
	}
	if len(category.ImageURLs) == 0 {
		t.Fatal("expected cover image urls")
	}

	if _, err := env.newClient().getCategory("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCategoryCoverRespectsVisibility(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.createGroup("payed"); err != nil {
		t.Fatal(err)
	}

	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	recipeId, err := alice.createRecipe(recipeParams{
		Title:         "members only",
		Categories:    []string{"exclusive"},
		AllowedGroups: []string{"payed"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := alice.uploadRecipeImage(recipeId); err != nil {
		t.Fatal(err)
	}

	// The cover recipe must be visible to the caller, so the category
	// disappears for outsiders.
	categories, err := env.newClient().listCategories()
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 0 {
		t.Fatalf("expected no categories for anonymous caller, got %v", categories)
	}

	// Even the author is an outsider until they join the allowed group.
	categories, err = alice.listCategories()
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 0 {
		t.Fatalf("expected no categories for non-member author, got %v", categories)
	}

	if err := admin.addUserToGroup("alice@mail.com", "payed", nil); err != nil {
		t.Fatal(err)
	}

	categories, err = alice.listCategories()
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 1 {
		t.Fatalf("group member should see the category, got %v", categories)
	}
}

func TestDeleteCategory(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	recipeId, err := alice.createRecipe(recipeParams{Title: "toast", Categories: []string{"breakfast"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := alice.uploadRecipeImage(recipeId); err != nil {
		t.Fatal(err)
	}

	if err := alice.deleteCategory("breakfast"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := admin.deleteCategory("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := admin.deleteCategory("breakfast"); err != nil {
		t.Fatal(err)
	}

	// The recipe outlives its category.
	recipe, err := alice.getRecipe(recipeId)
	if err != nil {
		t.Fatal(err)
	}
	if len(recipe.Categories) != 0 {
		t.Fatalf("expected no categories on recipe, got %v", recipe.Categories)
	}
}

func TestCompilations(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	recipeId, err := alice.createRecipe(recipeParams{Title: "gnocchi"})
	if err != nil {
		t.Fatal(err)
	}
	if err := alice.uploadRecipeImage(recipeId); err != nil {
		t.Fatal(err)
	}

	secondId, err := admin.createCompilation("weeknight", 2, []string{recipeId})
	if err != nil {
		t.Fatal(err)
	}
	firstId, err := admin.createCompilation("seasonal", 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := admin.createCompilation("seasonal", 3, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate name, got %v", err)
	}

	if err := admin.uploadCompilationImage(firstId); err != nil {
		t.Fatal(err)
	}

	compilations, err := env.newClient().listCompilations()
	if err != nil {
		t.Fatal(err)
	}

	// Ordered by position, not creation time.
	if len(compilations) != 2 || compilations[0].Id != firstId || compilations[1].Id != secondId {
		t.Fatalf("unexpected compilation order: %v", compilations)
	}
	if len(compilations[0].ImageURLs) == 0 {
		t.Fatal("expected image urls on seasonal")
	}
}

func TestReferenceListings(t *testing.T) {
	env := setupTestEnv(t)

	anon := env.newClient()

	// Empty catalog returns empty lists, not nulls.
	for name, list := range map[string]func() ([]string, error){
		"ingredients": anon.listIngredients,
		"dimensions":  anon.listDimensions,
		"groups":      anon.listIngredientGroups,
	} {
		items, err := list()
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("%v: expected empty list, got %v", name, items)
		}
	}

	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	_, err = alice.createRecipe(recipeParams{
		Title: "smoothie",
		Ingredients: []recipeIngredient{
			{Name: "banana", Groups: []string{"fruits"}, Value: 1, Dimension: "pcs"},
			{Name: "milk", Groups: []string{"dairy"}, Value: 200, Dimension: "ml"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ingredients, err := anon.listIngredients()
	if err != nil {
		t.Fatal(err)
	}
	if len(ingredients) != 2 {
		t.Fatalf("expected 2 ingredients, got %v", ingredients)
	}

	dimensions, err := anon.listDimensions()
	if err != nil {
		t.Fatal(err)
	}
	if len(dimensions) != 2 {
		t.Fatalf("expected 2 dimensions, got %v", dimensions)
	}

	groups, err := anon.listIngredientGroups()
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 ingredient groups, got %v", groups)
	}
}
