package services

import (
	"log"
	"platebook/platebook/auth"
	"platebook/platebook/mailer"
	"platebook/platebook/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

type Platebook struct {
	user   UserService
	group  GroupService
	recipe RecipeService
	blog   BlogService
}

func NewPlatebook(db *gorm.DB, identity auth.IdentityProvider, store storage.Store, mail mailer.Mailer) Platebook {
	return Platebook{
		user:   UserService{db: db, userAuth: identity, store: store, mail: mail},
		group:  GroupService{db: db, userAuth: identity},
		recipe: RecipeService{
			db: db, userAuth: identity, store: store,
			catalog: CatalogService{db: db, userAuth: identity, store: store},
		},
		blog:   BlogService{db: db, userAuth: identity, store: store},
	}
}

func (p *Platebook) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Mount("/users", p.user.Routes())
	r.Mount("/groups", p.group.Routes())
	r.Mount("/recipes", p.recipe.Routes())
	r.Mount("/blog", p.blog.Routes())

	return r
}

// InitAdmin creates the admin account at startup if it is missing.
func (p *Platebook) InitAdmin(email, password string) {
	err := p.user.EnsureAdmin(email, password)
	if err != nil {
		log.Panicf("error initializing admin at startup: %v", err)
	}
}
