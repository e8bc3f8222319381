package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/revlens-lab/project-revlens/internal/analytics"
	"github.com/revlens-lab/project-revlens/internal/auth"
	"github.com/revlens-lab/project-revlens/internal/cache"
	corecfg "github.com/revlens-lab/project-revlens/internal/core/config"
	"github.com/revlens-lab/project-revlens/internal/core/storage/postgres"
	"github.com/revlens-lab/project-revlens/internal/etl"
	"github.com/revlens-lab/project-revlens/internal/ingestion"
	"github.com/revlens-lab/project-revlens/internal/migrations"
	"github.com/revlens-lab/project-revlens/internal/server"
)

func main() {
	configPath := flag.String("config", "revlens.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Connect to Storage (PostgreSQL)
	db, err := postgres.Connect(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// 2.1. Run Database Migrations
	// Must precede adapter construction: the adapter validates the schema
	// and prepares statements against it.
	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		db.Close()
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 2.2. Initialize Storage Adapters
	salesStore, err := postgres.NewAdapter(db)
	if err != nil {
		db.Close()
		slog.Error("Failed to initialize database adapter", "error", err)
		os.Exit(1)
	}
	defer salesStore.Close()

	userStore := postgres.NewUsersAdapter(db)

	// 3. Initialize Cache
	var analyticsCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			slog.Error("Failed to initialize redis cache", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		analyticsCache = redisCache
	} else {
		slog.Info("Using in-process memory cache")
		analyticsCache = cache.NewMemory()
	}

	// 4. Initialize Services
	analyticsSvc := analytics.New(salesStore, analyticsCache, cfg.AnalyticsCacheTTL(), cfg.Analytics.TopUsersLimit)
	ingestionSvc := ingestion.NewService(salesStore, userStore, analyticsSvc)
	authSvc := auth.NewService(userStore, cfg.Auth.Secret, cfg.AuthTokenTTL())

	dailyFlow := etl.NewDailyFlow(salesStore, analyticsCache, cfg.ETLCacheTTL(), cfg.ETL.TopUsersLimit)
	qualityFlow := etl.NewQualityFlow(salesStore, userStore)
	etlSvc := etl.NewService(dailyFlow, qualityFlow, analyticsCache)

	// 5. Initialize Server and Routes
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), db, analyticsCache, cfg.Server.Mode)

	protected := srv.Engine.Group("", authSvc.RequireAuth())
	authSvc.RegisterRoutes(srv.Engine, protected)
	analyticsSvc.RegisterRoutes(protected)
	ingestionSvc.RegisterRoutes(srv.Engine, protected)
	etlSvc.RegisterRoutes(protected)

	// 6. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ETL.Enabled {
		schedulers := []*etl.Scheduler{
			etl.NewScheduler("daily_analytics", cfg.ETLDailyInterval(), func(ctx context.Context) error {
				_, err := dailyFlow.Run(ctx)
				return err
			}),
			etl.NewScheduler("data_quality", cfg.ETLQualityInterval(), func(ctx context.Context) error {
				_, err := qualityFlow.Run(ctx)
				return err
			}),
		}
		for _, scheduler := range schedulers {
			go func(s *etl.Scheduler) {
				if err := s.Start(ctx); err != nil {
					slog.Error("Scheduler stopped with error", "error", err)
				}
			}(scheduler)
		}
	} else {
		slog.Info("ETL schedulers disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
