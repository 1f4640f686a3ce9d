// Command import-weeks loads the regular-season schedule from the score feed
// into the weeks collection. Existing weeks keep their processing state.
package main

import (
	"context"
	"flag"
	"os"
	"sort"
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
	logger := logging.WithPrefix("ImportWeeks")

	season := flag.Int("season", cfg.Feed.CurrentSeason, "season year to import")
	from := flag.Int("from", 1, "first week to import")
	to := flag.Int("to", services.RegularSeasonWeeks, "last week to import")
	flag.Parse()

	logger.Infof("=== Import weeks %d-%d of the %d season ===", *from, *to, *season)

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logger.Errorf("Database connection failed: %v", err)
		return 1
	}
	defer db.Close()

	feed := services.NewESPNService(cfg.ToFeedConfig())
	weekService := services.NewWeekService(database.NewMongoWeekRepository(db), feed)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := weekService.ImportSeason(ctx, *season, *from, *to)
	if err != nil {
		logger.Errorf("Import failed: %v", err)
		return 1
	}

	logger.Infof("Imported %d weeks: %v", len(result.Imported), result.Imported)
	if len(result.Failed) > 0 {
		failed := make([]int, 0, len(result.Failed))
		for week := range result.Failed {
			failed = append(failed, week)
		}
		sort.Ints(failed)
		for _, week := range failed {
			logger.Warnf("Week %d not imported: %s", week, result.Failed[week])
		}
	}
	return 0
}
