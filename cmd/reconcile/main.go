// Command reconcile runs one reconciliation pass from the command line, or
// prints the most recent runs with -history.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"nfl-survivor-go/cache"
	"nfl-survivor-go/config"
	"nfl-survivor-go/database"
	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
	"nfl-survivor-go/services"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on success, 1 when the run could not
// start, 2 when any week failed.
func run() int {
	history := flag.Int64("history", 0, "print the N most recent runs instead of reconciling")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Errorf("Failed to load configuration: %v", err)
		return 1
	}
	logging.Configure(cfg.ToLoggingConfig())
	defer func() { _ = logging.Sync() }()
	logger := logging.WithPrefix("Reconcile")

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logger.Errorf("Database connection failed: %v", err)
		return 1
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runRepo := database.NewMongoReconcileRunRepository(db)

	if *history > 0 {
		runs, err := runRepo.FindRecent(ctx, *history)
		if err != nil {
			logger.Errorf("Failed to load run history: %v", err)
			return 1
		}
		for _, run := range runs {
			fmt.Printf("%s  %-4s  %s  %s\n", run.StartedAt.Format(time.RFC3339), run.Trigger, run.RunID, run.Summary())
		}
		return 0
	}

	deps := services.ReconciliationDeps{
		Weeks: database.NewMongoWeekRepository(db),
		Picks: database.NewMongoPickRepository(db),
		Users: database.NewMongoUserRepository(db),
		Feed:  services.NewESPNService(cfg.ToFeedConfig()),
		Runs:  runRepo,
	}
	if cfg.IsRedisConfigured() {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			logger.Warnf("Redis unavailable, running without the run lock: %v", err)
		} else {
			defer redisCache.Close()
			deps.Lock = cache.NewRedisLock(redisCache.Client(), cache.ReconcileLockKey, cfg.Redis.LockTTL)
			deps.Events = cache.NewRedisStreamPublisher(redisCache.Client())
		}
	}

	report, err := services.NewReconciliationService(deps).Run(ctx, models.TriggerCLI)
	if err != nil {
		logger.Errorf("Reconciliation failed: %v", err)
		return 1
	}
	fmt.Println(report.Summary())
	return exitCode(report)
}

func exitCode(report *models.ReconcileReport) int {
	if report.Count(models.WeekOutcomeFailed) > 0 {
		return 2
	}
	return 0
}
