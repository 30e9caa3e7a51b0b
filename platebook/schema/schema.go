package schema

import "time"

type User struct {
	Id string `gorm:"primaryKey"`

	Username string `gorm:"uniqueIndex"`
	Email    string `gorm:"uniqueIndex"`
	Password []byte

	Name string
	Info string

	// Object-storage key of the avatar, nil if the user never uploaded one.
	Image *string

	RegisteredAt time.Time

	Groups []UserGroup

	Recipes  []Recipe  `gorm:"constraint:OnDelete:CASCADE;"`
	Articles []Article `gorm:"constraint:OnDelete:CASCADE;"`

	LikedRecipes []Recipe `gorm:"many2many:recipe_likes;"`
}

// Group doubles as a role ("admin", "user") and as a recipe visibility
// tier ("payed", "no_auth").
type Group struct {
	Id   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

type UserGroup struct {
	UserId  string `gorm:"primaryKey;constraint:OnDelete:CASCADE;"`
	GroupId string `gorm:"primaryKey;constraint:OnDelete:CASCADE;"`

	// Membership is void past this time even while the row still exists,
	// cmd/sweep removes expired rows.
	ExpiresAt *time.Time

	User  *User
	Group *Group
}

type Recipe struct {
	Id string `gorm:"primaryKey"`

	Title string
	Image *string

	// Cooking time in minutes.
	Time       int
	Complexity string
	Servings   int

	UserId string
	User   *User

	Steps       []RecipeStep       `gorm:"constraint:OnDelete:CASCADE;"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE;"`

	Categories    []Category    `gorm:"many2many:recipe_categories;"`
	Compilations  []Compilation `gorm:"many2many:recipe_compilations;"`
	AllowedGroups []Group       `gorm:"many2many:recipe_allowed_groups;"`
	LikedBy       []User        `gorm:"many2many:recipe_likes;"`
}

// RecipeIngredient is the quantity bearing edge between a recipe and an
// ingredient, it always references exactly one ingredient and one dimension.
type RecipeIngredient struct {
	Id       string `gorm:"primaryKey"`
	RecipeId string `gorm:"index"`

	IngredientId string `gorm:"not null"`
	Ingredient   *Ingredient

	DimensionId string `gorm:"not null"`
	Dimension   *Dimension

	Value float64
}

type RecipeStep struct {
	Id       string `gorm:"primaryKey"`
	RecipeId string `gorm:"index"`

	Number  int
	Content string
}

type Ingredient struct {
	Id   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`

	Groups []IngredientGroup `gorm:"many2many:ingredient_group_members;"`
}

// IngredientGroup tags ingredients for dietary filtering, e.g. an apple
// can belong to "fruits" and "sugar".
type IngredientGroup struct {
	Id   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

type Dimension struct {
	Id   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

type Category struct {
	Id    string `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex"`
	Image *string
}

// Compilation is an admin curated named set of recipes with its own image.
type Compilation struct {
	Id       string `gorm:"primaryKey"`
	Name     string `gorm:"uniqueIndex"`
	Image    *string
	Position int
}

type Article struct {
	Id string `gorm:"primaryKey"`

	CreatedAt time.Time

	Title    string
	Subtitle string
	Image    string
	Text     string

	UserId string
	User   *User
}

type Story struct {
	Id string `gorm:"primaryKey"`

	CreatedAt time.Time

	Title     string
	Thumbnail string

	Items []StoryItem `gorm:"constraint:OnDelete:CASCADE;"`
}

type StoryItem struct {
	Id      string `gorm:"primaryKey"`
	StoryId string `gorm:"index"`
	Image   string
}

// AllModels is the full entity list used by AutoMigrate in the server and
// test setup, and by the migration runner's InitSchema.
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &Group{}, &UserGroup{},
		&Recipe{}, &RecipeIngredient{}, &RecipeStep{},
		&Ingredient{}, &IngredientGroup{}, &Dimension{},
		&Category{}, &Compilation{},
		&Article{}, &Story{}, &StoryItem{},
	}
}
