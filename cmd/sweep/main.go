package main

import (
	"log"
	"log/slog"
	"platebook/platebook/config"
	"platebook/platebook/schema"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Removes expired group memberships. Expired rows are already ignored by
// the server at read time, this just keeps the table from growing, run it
// from cron.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.Dsn()), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	result := db.Where("expires_at IS NOT NULL AND expires_at < ?", time.Now().UTC()).Delete(&schema.UserGroup{})
	if result.Error != nil {
		log.Fatalf("error removing expired memberships: %v", result.Error)
	}

	slog.Info("sweep completed", "removed", result.RowsAffected)
}
