package services

import (
	"errors"
	"fmt"
	"net/http"
	"platebook/platebook/auth"
	"platebook/platebook/schema"
	"platebook/platebook/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService serves the reference data behind recipes: categories,
// compilations, ingredients, dimensions and ingredient groups. Its routes
// are registered by the recipe service.
type CatalogService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	store    storage.Store
}

type CategoryInfo struct {
	Id        string            `json:"id"`
	Name      string            `json:"name"`
	ImageURLs map[string]string `json:"image_urls"`
}

// ListCategories shows each category with a cover image borrowed from the
// first visible recipe in it. Categories without such a recipe are omitted
// since there is nothing to render for them.
func (s *CatalogService) ListCategories(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	var categories []schema.Category
	result := s.db.Order("name").Find(&categories)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing categories", result.Error))
		return
	}

	infos := make([]CategoryInfo, 0, len(categories))
	for _, category := range categories {
		var recipe schema.Recipe
		result := s.db.Model(&schema.Recipe{}).
			Scopes(visibleScope(caller)).
			Where("recipes.image IS NOT NULL").
			Where(
				`EXISTS (
					SELECT 1 FROM recipe_categories
					WHERE recipe_categories.recipe_id = recipes.id AND recipe_categories.category_id = ?
				)`, category.Id,
			).
			Order("recipes.title").
			First(&recipe)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				continue
			}
			writeError(w, schema.NewDbError("finding category cover recipe", result.Error))
			return
		}

		urls, err := storage.ImageURLs(r.Context(), s.store, *recipe.Image)
		if err != nil {
			writeError(w, err)
			return
		}

		infos = append(infos, CategoryInfo{Id: category.Id, Name: category.Name, ImageURLs: urls})
	}

	writeJsonResponse(w, infos)
}

func (s *CatalogService) GetCategory(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	name := chi.URLParam(r, "name")

	var category schema.Category
	result := s.db.Find(&category, "name = ?", name)
	if result.Error != nil {
		writeError(w, schema.NewDbError("locating category", result.Error))
		return
	}
	if result.RowsAffected != 1 {
		writeError(w, fmt.Errorf("%w: category %v", schema.ErrNotFound, name))
		return
	}

	info := CategoryInfo{Id: category.Id, Name: category.Name}

	var recipe schema.Recipe
	result = s.db.Model(&schema.Recipe{}).
		Scopes(visibleScope(caller)).
		Where("recipes.image IS NOT NULL").
		Where(
			`EXISTS (
				SELECT 1 FROM recipe_categories
				WHERE recipe_categories.recipe_id = recipes.id AND recipe_categories.category_id = ?
			)`, category.Id,
		).
		Order("recipes.title").
		First(&recipe)
	if result.Error == nil {
		urls, err := storage.ImageURLs(r.Context(), s.store, *recipe.Image)
		if err != nil {
			writeError(w, err)
			return
		}
		info.ImageURLs = urls
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		writeError(w, schema.NewDbError("finding category cover recipe", result.Error))
		return
	}

	writeJsonResponse(w, info)
}

func (s *CatalogService) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var category schema.Category
		result := txn.Find(&category, "name = ?", name)
		if result.Error != nil {
			return schema.NewDbError("locating category", result.Error)
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("%w: category %v", schema.ErrNotFound, name)
		}

		result = txn.Exec("DELETE FROM recipe_categories WHERE category_id = ?", category.Id)
		if result.Error != nil {
			return schema.NewDbError("clearing category associations", result.Error)
		}

		result = txn.Delete(&category)
		if result.Error != nil {
			return schema.NewDbError("deleting category", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w)
}

type CompilationInfo struct {
	Id        string            `json:"id"`
	Name      string            `json:"name"`
	Position  int               `json:"position"`
	ImageURLs map[string]string `json:"image_urls,omitempty"`
}

func (s *CatalogService) ListCompilations(w http.ResponseWriter, r *http.Request) {
	var compilations []schema.Compilation
	result := s.db.Order("position").Find(&compilations)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing compilations", result.Error))
		return
	}

	infos := make([]CompilationInfo, 0, len(compilations))
	for _, compilation := range compilations {
		info := CompilationInfo{Id: compilation.Id, Name: compilation.Name, Position: compilation.Position}
		if compilation.Image != nil {
			urls, err := storage.ImageURLs(r.Context(), s.store, *compilation.Image)
			if err != nil {
				writeError(w, err)
				return
			}
			info.ImageURLs = urls
		}
		infos = append(infos, info)
	}

	writeJsonResponse(w, infos)
}

type createCompilationRequest struct {
	Name      string   `json:"name"`
	Position  int      `json:"position"`
	RecipeIds []string `json:"recipe_ids"`
}

type createCompilationResponse struct {
	CompilationId string `json:"compilation_id"`
}

func (s *CatalogService) CreateCompilation(w http.ResponseWriter, r *http.Request) {
	var params createCompilationRequest
	if !parseRequestBody(w, r, &params) {
		return
	}
	if params.Name == "" {
		http.Error(w, "'name' must be provided", http.StatusBadRequest)
		return
	}

	compilationId := uuid.NewString()

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.Compilation
		result := txn.Find(&existing, "name = ?", params.Name)
		if result.Error != nil {
			return schema.NewDbError("checking for existing compilation", result.Error)
		}
		if result.RowsAffected != 0 {
			return fmt.Errorf("%w: compilation %v", schema.ErrConflict, params.Name)
		}

		compilation := schema.Compilation{Id: compilationId, Name: params.Name, Position: params.Position}
		result = txn.Create(&compilation)
		if result.Error != nil {
			return schema.NewDbError("creating compilation", result.Error)
		}

		for _, recipeId := range params.RecipeIds {
			recipe, err := schema.GetRecipe(recipeId, txn)
			if err != nil {
				return err
			}
			err = txn.Model(&recipe).Association("Compilations").Append(&compilation)
			if err != nil {
				return schema.NewDbError("adding recipe to compilation", err)
			}
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, createCompilationResponse{CompilationId: compilationId})
}

func (s *CatalogService) UploadCompilationImage(w http.ResponseWriter, r *http.Request) {
	compilationId := chi.URLParam(r, "compilation_id")

	var compilation schema.Compilation
	result := s.db.Find(&compilation, "id = ?", compilationId)
	if result.Error != nil {
		writeError(w, schema.NewDbError("locating compilation", result.Error))
		return
	}
	if result.RowsAffected != 1 {
		writeError(w, fmt.Errorf("%w: compilation %v", schema.ErrNotFound, compilationId))
		return
	}

	file, ok := readMultipartImage(w, r)
	if !ok {
		return
	}
	defer file.Close()

	base := storage.CompilationImageBase(compilationId)

	if err := storage.UploadImage(r.Context(), s.store, base, file); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result = s.db.Model(&compilation).Update("image", base)
	if result.Error != nil {
		writeError(w, schema.NewDbError("updating compilation image", result.Error))
		return
	}

	writeSuccess(w)
}

func (s *CatalogService) listNames(w http.ResponseWriter, model interface{}, action string) {
	var names []string
	result := s.db.Model(model).Order("name").Pluck("name", &names)
	if result.Error != nil {
		writeError(w, schema.NewDbError(action, result.Error))
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJsonResponse(w, names)
}

func (s *CatalogService) ListIngredients(w http.ResponseWriter, r *http.Request) {
	s.listNames(w, &schema.Ingredient{}, "listing ingredients")
}

func (s *CatalogService) ListDimensions(w http.ResponseWriter, r *http.Request) {
	s.listNames(w, &schema.Dimension{}, "listing dimensions")
}

func (s *CatalogService) ListIngredientGroups(w http.ResponseWriter, r *http.Request) {
	s.listNames(w, &schema.IngredientGroup{}, "listing ingredient groups")
}
