package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"platebook/platebook/auth"
	"platebook/platebook/config"
	"platebook/platebook/mailer"
	"platebook/platebook/schema"
	"platebook/platebook/services"
	"platebook/platebook/storage"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func initLogging() {
	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)

	if path := os.Getenv("LOG_FILE"); path != "" {
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			log.Panicf("error opening log file: %v", err)
		}
		log.SetOutput(io.MultiWriter(logFile, os.Stderr))
		slog.Info("logging initialized", "log_file", path)
	}
}

func initDb(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Panicf("error opening database connection: %v", err)
	}

	err = db.AutoMigrate(schema.AllModels()...)
	if err != nil {
		log.Panicf("error migrating db schema: %v", err)
	}

	for _, name := range schema.BuiltinGroups() {
		if _, err := schema.GroupByNameOrCreate(name, db); err != nil {
			log.Panicf("error creating builtin group %v: %v", name, err)
		}
	}

	return db
}

func initIdentityProvider(cfg config.Config, db *gorm.DB) auth.IdentityProvider {
	jwtManager := auth.NewJwtManager([]byte(cfg.JwtSecret))

	switch cfg.IdentityProvider {
	case "keycloak":
		return auth.NewKeycloakIdentityProvider(db, jwtManager, cfg.Keycloak)
	case "", "basic":
		return auth.NewBasicIdentityProvider(db, jwtManager)
	default:
		log.Panicf("unknown identity provider %v", cfg.IdentityProvider)
		return nil
	}
}

func initMailer(cfg config.Config) mailer.Mailer {
	if cfg.SMTP.Host == "" {
		return &mailer.LogMailer{}
	}
	return mailer.NewSmtpMailer(cfg.SMTP)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	initLogging()

	db := initDb(cfg.DB.Dsn())

	store, err := storage.NewMinioStore(cfg.S3)
	if err != nil {
		log.Fatalf("error connecting to object storage: %v", err)
	}

	platebook := services.NewPlatebook(db, initIdentityProvider(cfg, db), store, initMailer(cfg))

	platebook.InitAdmin(cfg.AdminEmail, cfg.AdminPassword)

	r := chi.NewRouter()
	r.Mount("/api/v1", platebook.Routes())

	slog.Info("starting server", "port", cfg.ServerPort)
	err = http.ListenAndServe(fmt.Sprintf(":%v", cfg.ServerPort), r)
	if err != nil {
		log.Fatalf(err.Error())
	}
}
