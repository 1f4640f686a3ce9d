// Command migrate-users backfills eliminatedWeek=0 on users created before
// elimination tracking existed.
package main

import (
	"context"
	"os"
	"time"

	"nfl-survivor-go/config"
	"nfl-survivor-go/database"
	"nfl-survivor-go/logging"
	"nfl-survivor-go/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Errorf("Failed to load configuration: %v", err)
		return 1
	}
	logging.Configure(cfg.ToLoggingConfig())
	defer func() { _ = logging.Sync() }()
	logger := logging.WithPrefix("MigrateUsers")

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logger.Errorf("Database connection failed: %v", err)
		return 1
	}
	defer db.Close()

	userService := services.NewUserService(database.NewMongoUserRepository(db))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := userService.MigrateEliminatedWeek(ctx); err != nil {
		logger.Errorf("Migration failed: %v", err)
		return 1
	}
	logger.Info("Migration complete")
	return 0
}
