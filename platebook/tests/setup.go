package tests

import (
	"platebook/platebook/auth"
	"platebook/platebook/schema"
	"platebook/platebook/services"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	api   chi.Router
	db    *gorm.DB
	store *memStore
	mail  *memMailer
}

const (
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(schema.AllModels()...)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range schema.BuiltinGroups() {
		if _, err := schema.GroupByNameOrCreate(name, db); err != nil {
			t.Fatal(err)
		}
	}

	store := newMemStore()
	mail := &memMailer{}

	identity := auth.NewBasicIdentityProvider(db, auth.NewJwtManager(nil))
	platebook := services.NewPlatebook(db, identity, store, mail)

	platebook.InitAdmin(adminEmail, adminPassword)

	return testEnv{api: platebook.Routes(), db: db, store: store, mail: mail}
}

func (t *testEnv) newClient() *client {
	return &client{api: t.api}
}

func (t *testEnv) newUser(name string) (*client, error) {
	c := t.newClient()
	login, err := c.signup(name+"@mail.com", name+"_password", name)
	if err != nil {
		return nil, err
	}

	err = c.login(login)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (*client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}
