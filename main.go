package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nfl-survivor-go/cache"
	"nfl-survivor-go/config"
	"nfl-survivor-go/database"
	"nfl-survivor-go/handlers"
	"nfl-survivor-go/logging"
	"nfl-survivor-go/middleware"
	"nfl-survivor-go/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("Invalid configuration: %v", err)
	}

	logging.Configure(cfg.ToLoggingConfig())
	defer func() { _ = logging.Sync() }()
	cfg.LogConfiguration()
	logger := logging.WithPrefix("Main")

	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	weekRepo := database.NewMongoWeekRepository(db)
	pickRepo := database.NewMongoPickRepository(db)
	userRepo := database.NewMongoUserRepository(db)
	runRepo := database.NewMongoReconcileRunRepository(db)

	var (
		lock   services.RunLocker      = cache.NoopLock{}
		events services.EventPublisher = cache.NoopPublisher{}
		cacheP handlers.Pinger
	)
	if cfg.IsRedisConfigured() {
		cacheCfg := cfg.ToCacheConfig()
		redisCache, err := cache.NewRedisCache(cacheCfg.URL)
		if err != nil {
			// per-week claims still keep concurrent runs apart
			logger.Warnf("Redis unavailable, continuing without run lock and events: %v", err)
		} else {
			defer redisCache.Close()
			lock = cache.NewRedisLock(redisCache.Client(), cache.ReconcileLockKey, cacheCfg.LockTTL)
			events = cache.NewRedisStreamPublisher(redisCache.Client())
			cacheP = redisCache
			logger.Info("Redis run lock and event stream enabled")
		}
	}

	feed := services.NewESPNService(cfg.ToFeedConfig())
	logger.Infof("Score feed: %s", feed)

	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret)
	weekService := services.NewWeekService(weekRepo, feed)
	pickService := services.NewPickService(pickRepo, weekRepo, userRepo, cfg.Picks.EnforceUniqueTeams)
	dashboardService := services.NewDashboardService(weekService, pickService, pickRepo, userRepo)
	reconciler := services.NewReconciliationService(services.ReconciliationDeps{
		Weeks:  weekRepo,
		Picks:  pickRepo,
		Users:  userRepo,
		Feed:   feed,
		Runs:   runRepo,
		Lock:   lock,
		Events: events,
	})

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:        handlers.NewAuthHandler(authService, cfg.Server.UseTLS || cfg.Server.BehindProxy),
		Picks:       handlers.NewPickHandler(pickService),
		Weeks:       handlers.NewWeekHandler(weekService),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		Reconcile:   handlers.NewReconcileHandler(reconciler, cfg.Scheduler.Key),
		Health:      handlers.NewHealthHandler(db, cacheP),
		AuthMW:      middleware.NewAuthMiddleware(authService),
		BehindProxy: cfg.Server.BehindProxy,
	})

	var scheduler *services.ReconcileScheduler
	if cfg.Scheduler.CronEnabled {
		scheduler, err = services.NewReconcileScheduler(cfg.ToSchedulerConfig(), reconciler)
		if err != nil {
			logger.Fatalf("Failed to create scheduler: %v", err)
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute, // reconciliation runs inside the request
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Server starting on %s", srv.Addr)
		var err error
		if cfg.Server.UseTLS && !cfg.Server.BehindProxy {
			err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
