// Command set-last-game-end recomputes lastGameEndTime for every stored week
// from its latest kickoff.
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
	logger := logging.WithPrefix("SetLastGameEnd")

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logger.Errorf("Database connection failed: %v", err)
		return 1
	}
	defer db.Close()

	// the feed is never called when only deriving end times
	weekService := services.NewWeekService(database.NewMongoWeekRepository(db), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := weekService.DeriveLastGameEndTimes(ctx)
	if err != nil {
		logger.Errorf("Failed to update weeks: %v", err)
		return 1
	}
	logger.Infof("Updated lastGameEndTime on %d weeks", n)
	return 0
}
