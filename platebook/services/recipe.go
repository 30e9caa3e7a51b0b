package services

import (
	"fmt"
	"net/http"
	"platebook/platebook/auth"
	"platebook/platebook/schema"
	"platebook/platebook/storage"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	store    storage.Store
	catalog  CatalogService
}

func (s *RecipeService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.OptionalAuthMiddleware()...)

		r.Get("/", s.List)
		r.Get("/search", s.Search)

		r.Get("/categories", s.catalog.ListCategories)
		r.Get("/categories/{name}", s.catalog.GetCategory)
		r.Get("/compilations", s.catalog.ListCompilations)
		r.Get("/ingredients", s.catalog.ListIngredients)
		r.Get("/dimensions", s.catalog.ListDimensions)
		r.Get("/ingredient-groups", s.catalog.ListIngredientGroups)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/liked", s.Liked)
		r.Post("/", s.Create)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Post("/compilations", s.catalog.CreateCompilation)
		r.Post("/compilations/{compilation_id}/image", s.catalog.UploadCompilationImage)
		r.Delete("/categories/{name}", s.catalog.DeleteCategory)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.OptionalAuthMiddleware()...)

		r.Get("/{recipe_id}", s.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Patch("/{recipe_id}", s.Update)
		r.Post("/{recipe_id}/image", s.UploadImage)
		r.Delete("/{recipe_id}", s.Delete)
		r.Post("/{recipe_id}/like", s.ToggleLike)
	})

	return r
}

// visibleScope filters a recipes query down to what the caller may see:
// admins see everything, everyone else needs an uploaded image and a
// shared allowed group. Owners get no carve-out; an unfinished recipe is
// hidden from its author too until its image is uploaded.
func visibleScope(caller auth.Caller) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if caller.IsAdmin() {
			return db
		}
		return db.Where(
			`recipes.image IS NOT NULL AND EXISTS (
				SELECT 1 FROM recipe_allowed_groups
				JOIN groups ON groups.id = recipe_allowed_groups.group_id
				WHERE recipe_allowed_groups.recipe_id = recipes.id AND groups.name IN ?
			)`,
			caller.Groups,
		)
	}
}

// canSee is the single-recipe equivalent of visibleScope, used where 404
// and 401 must stay distinct.
func canSee(recipe schema.Recipe, caller auth.Caller) bool {
	if caller.IsAdmin() {
		return true
	}
	if recipe.Image == nil {
		return false
	}
	for _, group := range recipe.AllowedGroups {
		for _, name := range caller.Groups {
			if group.Name == name {
				return true
			}
		}
	}
	return false
}

func csvParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

type RecipeListItem struct {
	Id         string            `json:"id"`
	Title      string            `json:"title"`
	Time       int               `json:"time"`
	Complexity string            `json:"complexity"`
	Servings   int               `json:"servings"`
	UserId     string            `json:"user_id"`
	Liked      bool              `json:"liked"`
	ImageURLs  map[string]string `json:"image_urls,omitempty"`
}

func (s *RecipeService) listItems(r *http.Request, recipes []schema.Recipe, caller auth.Caller) ([]RecipeListItem, error) {
	likedIds, err := s.likedRecipeIds(caller)
	if err != nil {
		return nil, err
	}

	items := make([]RecipeListItem, 0, len(recipes))
	for _, recipe := range recipes {
		item := RecipeListItem{
			Id:         recipe.Id,
			Title:      recipe.Title,
			Time:       recipe.Time,
			Complexity: recipe.Complexity,
			Servings:   recipe.Servings,
			UserId:     recipe.UserId,
			Liked:      likedIds[recipe.Id],
		}
		if recipe.Image != nil {
			urls, err := storage.ImageURLs(r.Context(), s.store, *recipe.Image)
			if err != nil {
				return nil, err
			}
			item.ImageURLs = urls
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *RecipeService) likedRecipeIds(caller auth.Caller) (map[string]bool, error) {
	liked := map[string]bool{}
	if !caller.Authenticated() {
		return liked, nil
	}

	var ids []string
	result := s.db.Table("recipe_likes").Where("user_id = ?", caller.UserId).Pluck("recipe_id", &ids)
	if result.Error != nil {
		return nil, schema.NewDbError("listing liked recipes", result.Error)
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (s *RecipeService) List(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	query := s.db.Model(&schema.Recipe{}).Scopes(visibleScope(caller))

	if categories := csvParam(r, "include_categories"); categories != nil {
		query = query.Where(
			`EXISTS (
				SELECT 1 FROM recipe_categories
				JOIN categories ON categories.id = recipe_categories.category_id
				WHERE recipe_categories.recipe_id = recipes.id AND categories.name IN ?
			)`, categories,
		)
	}

	if compilation := r.URL.Query().Get("compilation"); compilation != "" {
		query = query.Where(
			`EXISTS (
				SELECT 1 FROM recipe_compilations
				JOIN compilations ON compilations.id = recipe_compilations.compilation_id
				WHERE recipe_compilations.recipe_id = recipes.id AND compilations.name = ?
			)`, compilation,
		)
	}

	// Dietary exclusion: drop any recipe using an ingredient tagged with one
	// of the excluded ingredient groups.
	if excluded := csvParam(r, "exclude_groups"); excluded != nil {
		query = query.Where(
			`NOT EXISTS (
				SELECT 1 FROM recipe_ingredients
				JOIN ingredient_group_members
					ON ingredient_group_members.ingredient_id = recipe_ingredients.ingredient_id
				JOIN ingredient_groups
					ON ingredient_groups.id = ingredient_group_members.ingredient_group_id
				WHERE recipe_ingredients.recipe_id = recipes.id AND ingredient_groups.name IN ?
			)`, excluded,
		)
	}

	// Pantry filter: a recipe qualifies only if at least one of its
	// ingredients is among the preferred names.
	if preferred := csvParam(r, "prefer_ingredients"); preferred != nil {
		query = query.Where(
			`EXISTS (
				SELECT 1 FROM recipe_ingredients
				JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id
				WHERE recipe_ingredients.recipe_id = recipes.id AND ingredients.name IN ?
			)`, preferred,
		)
	}

	query = query.Order("recipes.title")

	var recipes []schema.Recipe
	result := query.Find(&recipes)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing recipes", result.Error))
		return
	}

	items, err := s.listItems(r, recipes, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, items)
}

func (s *RecipeService) Liked(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	var recipes []schema.Recipe
	result := s.db.Model(&schema.Recipe{}).
		Joins("JOIN recipe_likes ON recipe_likes.recipe_id = recipes.id").
		Where("recipe_likes.user_id = ?", caller.UserId).
		Scopes(visibleScope(caller)).
		Order("recipes.title").
		Find(&recipes)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing liked recipes", result.Error))
		return
	}

	items, err := s.listItems(r, recipes, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, items)
}

type RecipeIngredientInfo struct {
	Name      string   `json:"name"`
	Groups    []string `json:"groups,omitempty"`
	Value     float64  `json:"value"`
	Dimension string   `json:"dimension"`
}

type RecipeStepInfo struct {
	Number  int    `json:"num"`
	Content string `json:"content"`
}

type RecipeInfo struct {
	RecipeListItem
	Categories    []string               `json:"categories"`
	AllowedGroups []string               `json:"allowed_groups"`
	Steps         []RecipeStepInfo       `json:"steps"`
	Ingredients   []RecipeIngredientInfo `json:"ingredients"`
}

func (s *RecipeService) RecipeInfo(r *http.Request, recipe schema.Recipe, caller auth.Caller) (RecipeInfo, error) {
	items, err := s.listItems(r, []schema.Recipe{recipe}, caller)
	if err != nil {
		return RecipeInfo{}, err
	}

	info := RecipeInfo{
		RecipeListItem: items[0],
		Categories:     []string{},
		AllowedGroups:  []string{},
		Steps:          []RecipeStepInfo{},
		Ingredients:    []RecipeIngredientInfo{},
	}

	for _, category := range recipe.Categories {
		info.Categories = append(info.Categories, category.Name)
	}
	for _, group := range recipe.AllowedGroups {
		info.AllowedGroups = append(info.AllowedGroups, group.Name)
	}

	sort.Slice(recipe.Steps, func(i, j int) bool { return recipe.Steps[i].Number < recipe.Steps[j].Number })
	for _, step := range recipe.Steps {
		info.Steps = append(info.Steps, RecipeStepInfo{Number: step.Number, Content: step.Content})
	}

	for _, ingredient := range recipe.Ingredients {
		entry := RecipeIngredientInfo{Value: ingredient.Value}
		if ingredient.Ingredient != nil {
			entry.Name = ingredient.Ingredient.Name
			for _, group := range ingredient.Ingredient.Groups {
				entry.Groups = append(entry.Groups, group.Name)
			}
		}
		if ingredient.Dimension != nil {
			entry.Dimension = ingredient.Dimension.Name
		}
		info.Ingredients = append(info.Ingredients, entry)
	}

	return info, nil
}

func (s *RecipeService) loadFullRecipe(recipeId string, db *gorm.DB) (schema.Recipe, error) {
	return schema.GetRecipe(
		recipeId, db,
		"Categories", "AllowedGroups", "Steps",
		"Ingredients.Ingredient.Groups", "Ingredients.Dimension",
	)
}

func (s *RecipeService) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	recipe, err := s.loadFullRecipe(chi.URLParam(r, "recipe_id"), s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	if !canSee(recipe, caller) {
		writeError(w, fmt.Errorf("%w: recipe %v is not visible", schema.ErrUnauthorized, recipe.Id))
		return
	}

	info, err := s.RecipeInfo(r, recipe, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, info)
}

type recipeIngredientRequest struct {
	Name      string   `json:"name"`
	Groups    []string `json:"groups"`
	Value     float64  `json:"value"`
	Dimension string   `json:"dimension"`
}

type recipeStepRequest struct {
	Number  int    `json:"num"`
	Content string `json:"content"`
}

type createRecipeRequest struct {
	Title         string                    `json:"title"`
	Time          int                       `json:"time"`
	Complexity    string                    `json:"complexity"`
	Servings      int                       `json:"servings"`
	Categories    []string                  `json:"categories"`
	AllowedGroups []string                  `json:"allowed_groups"`
	Steps         []recipeStepRequest       `json:"steps"`
	Ingredients   []recipeIngredientRequest `json:"ingredients"`
}

type createRecipeResponse struct {
	RecipeId string `json:"recipe_id"`
}

func buildIngredients(recipeId string, requests []recipeIngredientRequest, txn *gorm.DB) ([]schema.RecipeIngredient, error) {
	ingredients := make([]schema.RecipeIngredient, 0, len(requests))
	for _, req := range requests {
		if req.Name == "" || req.Dimension == "" {
			return nil, fmt.Errorf("ingredient 'name' and 'dimension' must be provided")
		}

		ingredient, err := schema.IngredientByNameOrCreate(req.Name, txn)
		if err != nil {
			return nil, err
		}

		for _, groupName := range req.Groups {
			group, err := schema.IngredientGroupByNameOrCreate(groupName, txn)
			if err != nil {
				return nil, err
			}
			err = txn.Model(&ingredient).Association("Groups").Append(&group)
			if err != nil {
				return nil, schema.NewDbError("tagging ingredient group", err)
			}
		}

		dimension, err := schema.DimensionByNameOrCreate(req.Dimension, txn)
		if err != nil {
			return nil, err
		}

		ingredients = append(ingredients, schema.RecipeIngredient{
			Id:           uuid.NewString(),
			RecipeId:     recipeId,
			IngredientId: ingredient.Id,
			DimensionId:  dimension.Id,
			Value:        req.Value,
		})
	}

	return ingredients, nil
}

func buildCategories(names []string, txn *gorm.DB) ([]schema.Category, error) {
	categories := make([]schema.Category, 0, len(names))
	for _, name := range names {
		category, err := schema.CategoryByNameOrCreate(name, txn)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *RecipeService) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	var params createRecipeRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	if params.Title == "" {
		http.Error(w, "'title' must be provided", http.StatusBadRequest)
		return
	}

	if len(params.AllowedGroups) == 0 {
		params.AllowedGroups = []string{schema.DefaultUserGroup, schema.NotAuthenticatedGroup}
	}

	recipeId := uuid.NewString()

	err = s.db.Transaction(func(txn *gorm.DB) error {
		recipe := schema.Recipe{
			Id:         recipeId,
			Title:      params.Title,
			Time:       params.Time,
			Complexity: params.Complexity,
			Servings:   params.Servings,
			UserId:     caller.UserId,
		}

		categories, err := buildCategories(params.Categories, txn)
		if err != nil {
			return err
		}
		recipe.Categories = categories

		allowedGroups := make([]schema.Group, 0, len(params.AllowedGroups))
		for _, name := range params.AllowedGroups {
			group, err := schema.GetGroupByName(name, txn)
			if err != nil {
				return err
			}
			allowedGroups = append(allowedGroups, group)
		}
		recipe.AllowedGroups = allowedGroups

		for _, step := range params.Steps {
			recipe.Steps = append(recipe.Steps, schema.RecipeStep{
				Id:      uuid.NewString(),
				Number:  step.Number,
				Content: step.Content,
			})
		}

		ingredients, err := buildIngredients(recipeId, params.Ingredients, txn)
		if err != nil {
			return err
		}
		recipe.Ingredients = ingredients

		result := txn.Create(&recipe)
		if result.Error != nil {
			return schema.NewDbError("creating recipe", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, createRecipeResponse{RecipeId: recipeId})
}

type updateRecipeRequest struct {
	Title         *string                    `json:"title"`
	Time          *int                       `json:"time"`
	Complexity    *string                    `json:"complexity"`
	Servings      *int                       `json:"servings"`
	Categories    *[]string                  `json:"categories"`
	AllowedGroups *[]string                  `json:"allowed_groups"`
	Steps         *[]recipeStepRequest       `json:"steps"`
	Ingredients   *[]recipeIngredientRequest `json:"ingredients"`
}

func (s *RecipeService) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	var params updateRecipeRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	recipeId := chi.URLParam(r, "recipe_id")

	err = s.db.Transaction(func(txn *gorm.DB) error {
		recipe, err := schema.GetRecipe(recipeId, txn)
		if err != nil {
			return err
		}

		if !auth.CanModifyRecipe(recipe, caller, txn) {
			return fmt.Errorf("%w: user %v cannot modify recipe %v", schema.ErrUnauthorized, caller.UserId, recipeId)
		}

		updates := map[string]interface{}{}
		if params.Title != nil {
			updates["title"] = *params.Title
		}
		if params.Time != nil {
			updates["time"] = *params.Time
		}
		if params.Complexity != nil {
			updates["complexity"] = *params.Complexity
		}
		if params.Servings != nil {
			updates["servings"] = *params.Servings
		}
		if len(updates) > 0 {
			result := txn.Model(&recipe).Updates(updates)
			if result.Error != nil {
				return schema.NewDbError("updating recipe", result.Error)
			}
		}

		// List fields use full replace semantics, the request states the
		// desired end state.
		if params.Categories != nil {
			categories, err := buildCategories(*params.Categories, txn)
			if err != nil {
				return err
			}
			if err := txn.Model(&recipe).Association("Categories").Replace(categories); err != nil {
				return schema.NewDbError("replacing recipe categories", err)
			}
		}

		if params.AllowedGroups != nil {
			groups := make([]schema.Group, 0, len(*params.AllowedGroups))
			for _, name := range *params.AllowedGroups {
				group, err := schema.GetGroupByName(name, txn)
				if err != nil {
					return err
				}
				groups = append(groups, group)
			}
			if err := txn.Model(&recipe).Association("AllowedGroups").Replace(groups); err != nil {
				return schema.NewDbError("replacing recipe allowed groups", err)
			}
		}

		if params.Steps != nil {
			result := txn.Where("recipe_id = ?", recipeId).Delete(&schema.RecipeStep{})
			if result.Error != nil {
				return schema.NewDbError("clearing recipe steps", result.Error)
			}
			for _, step := range *params.Steps {
				result := txn.Create(&schema.RecipeStep{
					Id:       uuid.NewString(),
					RecipeId: recipeId,
					Number:   step.Number,
					Content:  step.Content,
				})
				if result.Error != nil {
					return schema.NewDbError("creating recipe step", result.Error)
				}
			}
		}

		if params.Ingredients != nil {
			result := txn.Where("recipe_id = ?", recipeId).Delete(&schema.RecipeIngredient{})
			if result.Error != nil {
				return schema.NewDbError("clearing recipe ingredients", result.Error)
			}
			ingredients, err := buildIngredients(recipeId, *params.Ingredients, txn)
			if err != nil {
				return err
			}
			for i := range ingredients {
				result := txn.Create(&ingredients[i])
				if result.Error != nil {
					return schema.NewDbError("creating recipe ingredient", result.Error)
				}
			}
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w)
}

func (s *RecipeService) UploadImage(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	recipeId := chi.URLParam(r, "recipe_id")

	recipe, err := schema.GetRecipe(recipeId, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	if !auth.CanModifyRecipe(recipe, caller, s.db) {
		writeError(w, fmt.Errorf("%w: user %v cannot modify recipe %v", schema.ErrUnauthorized, caller.UserId, recipeId))
		return
	}

	file, ok := readMultipartImage(w, r)
	if !ok {
		return
	}
	defer file.Close()

	base := storage.RecipeImageBase(recipeId)

	if err := storage.UploadImage(r.Context(), s.store, base, file); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Model(&recipe).Update("image", base)
	if result.Error != nil {
		writeError(w, schema.NewDbError("updating recipe image", result.Error))
		return
	}

	writeSuccess(w)
}

func (s *RecipeService) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	recipeId := chi.URLParam(r, "recipe_id")

	var imageBase *string
	err = s.db.Transaction(func(txn *gorm.DB) error {
		recipe, err := schema.GetRecipe(recipeId, txn)
		if err != nil {
			return err
		}

		if !auth.CanModifyRecipe(recipe, caller, txn) {
			return fmt.Errorf("%w: user %v cannot modify recipe %v", schema.ErrUnauthorized, caller.UserId, recipeId)
		}
		imageBase = recipe.Image

		result := txn.Where("recipe_id = ?", recipeId).Delete(&schema.RecipeIngredient{})
		if result.Error != nil {
			return schema.NewDbError("deleting recipe ingredients", result.Error)
		}

		result = txn.Where("recipe_id = ?", recipeId).Delete(&schema.RecipeStep{})
		if result.Error != nil {
			return schema.NewDbError("deleting recipe steps", result.Error)
		}

		result = txn.Select("Categories", "Compilations", "AllowedGroups", "LikedBy").Delete(&recipe)
		if result.Error != nil {
			return schema.NewDbError("deleting recipe", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if imageBase != nil {
		if err := storage.DeleteImage(r.Context(), s.store, *imageBase); err != nil {
			writeError(w, err)
			return
		}
	}

	writeSuccess(w)
}

type LikeResponse struct {
	Liked bool `json:"liked"`
}

// ToggleLike flips the caller's like edge on the recipe.
func (s *RecipeService) ToggleLike(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	recipeId := chi.URLParam(r, "recipe_id")

	var liked bool
	err = s.db.Transaction(func(txn *gorm.DB) error {
		recipe, err := schema.GetRecipe(recipeId, txn, "AllowedGroups")
		if err != nil {
			return err
		}

		if !canSee(recipe, caller) {
			return fmt.Errorf("%w: recipe %v is not visible", schema.ErrUnauthorized, recipeId)
		}

		result := txn.Exec(
			"DELETE FROM recipe_likes WHERE user_id = ? AND recipe_id = ?", caller.UserId, recipeId,
		)
		if result.Error != nil {
			return schema.NewDbError("removing like", result.Error)
		}

		if result.RowsAffected == 0 {
			result = txn.Exec(
				"INSERT INTO recipe_likes (user_id, recipe_id) VALUES (?, ?)", caller.UserId, recipeId,
			)
			if result.Error != nil {
				return schema.NewDbError("adding like", result.Error)
			}
			liked = true
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, LikeResponse{Liked: liked})
}

const maxSearchResults = 10

type SearchResponse struct {
	Recipes     []RecipeListItem `json:"recipes"`
	Ingredients []string         `json:"ingredients"`
	Categories  []string         `json:"categories"`
}

// Search matches recipe titles, ingredient names and category names. Exact
// matches sort before substring matches.
func (s *RecipeService) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "'q' query parameter missing", http.StatusBadRequest)
		return
	}

	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	exactFirst := func(column string) clause.OrderBy {
		return clause.OrderBy{Expression: clause.Expr{
			SQL:  fmt.Sprintf("CASE WHEN lower(%v) = lower(?) THEN 0 ELSE 1 END, %v", column, column),
			Vars: []interface{}{q},
		}}
	}
	pattern := "%" + q + "%"

	var recipes []schema.Recipe
	result := s.db.Model(&schema.Recipe{}).
		Scopes(visibleScope(caller)).
		Where("recipes.title LIKE ?", pattern).
		Clauses(exactFirst("recipes.title")).
		Limit(maxSearchResults).
		Find(&recipes)
	if result.Error != nil {
		writeError(w, schema.NewDbError("searching recipes", result.Error))
		return
	}

	items, err := s.listItems(r, recipes, caller)
	if err != nil {
		writeError(w, err)
		return
	}

	var ingredients []string
	result = s.db.Model(&schema.Ingredient{}).
		Where("name LIKE ?", pattern).
		Clauses(exactFirst("name")).
		Limit(maxSearchResults).
		Pluck("name", &ingredients)
	if result.Error != nil {
		writeError(w, schema.NewDbError("searching ingredients", result.Error))
		return
	}

	var categories []string
	result = s.db.Model(&schema.Category{}).
		Where("name LIKE ?", pattern).
		Clauses(exactFirst("name")).
		Limit(maxSearchResults).
		Pluck("name", &categories)
	if result.Error != nil {
		writeError(w, schema.NewDbError("searching categories", result.Error))
		return
	}

	if ingredients == nil {
		ingredients = []string{}
	}
	if categories == nil {
		categories = []string{}
	}

	writeJsonResponse(w, SearchResponse{Recipes: items, Ingredients: ingredients, Categories: categories})
}
