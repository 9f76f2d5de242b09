// Package main provides the entry point for the prediction daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Scardubu/sabiscore/internal/betting"
	"github.com/Scardubu/sabiscore/internal/cache"
	"github.com/Scardubu/sabiscore/internal/calibration"
	"github.com/Scardubu/sabiscore/internal/config"
	"github.com/Scardubu/sabiscore/internal/database"
	"github.com/Scardubu/sabiscore/internal/datasource"
	"github.com/Scardubu/sabiscore/internal/health"
	"github.com/Scardubu/sabiscore/internal/ingest"
	"github.com/Scardubu/sabiscore/internal/logger"
	"github.com/Scardubu/sabiscore/internal/metrics"
	"github.com/Scardubu/sabiscore/internal/models"
	"github.com/Scardubu/sabiscore/internal/repository"
	"github.com/Scardubu/sabiscore/internal/service"
)

// trainingWindow is how many recent matches per league feed the startup fit
const trainingWindow = 2000

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults(os.Getenv("SABISCORE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"leagues":     len(cfg.Leagues),
	}).Info("Sabiscore prediction service starting")

	metrics.Init()
	audit := logger.NewAuditLogger(appLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the historical match store when configured
	var (
		db         *database.DB
		matchRepo  repository.MatchRepository
		resultRepo repository.ResultRepository
	)
	if cfg.Database.Enabled {
		db, err = database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()
		matchRepo = repository.NewPostgresMatchRepository(db)
		resultRepo = repository.NewPostgresResultRepository(db)
		appLog.Info("Database connection established")
	} else {
		appLog.Info("Database disabled; training from persisted matches unavailable")
	}

	// Build per-league models
	registry, err := service.BuildRegistry(cfg.Leagues, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to build league registry")
	}

	// Startup training from the historical store
	trainer := service.NewTrainer(registry, audit, appLog)
	if matchRepo != nil {
		if err := trainAtStartup(ctx, trainer, registry, matchRepo, appLog); err != nil {
			appLog.WithError(err).Warn("Startup training incomplete, untrained leagues will reject predictions")
		}
	}

	// Calibration state and recalibration loop
	store := calibration.NewStore()
	buffer := calibration.NewBuffer(cfg.Calibration.BufferCapacity)
	loop := calibration.NewLoop(calibration.LoopConfig{
		Interval:           cfg.CalibrationInterval(),
		MinSamples:         cfg.Calibration.MinSamples,
		IsotonicMinSamples: cfg.Calibration.IsotonicMinSamples,
	}, store, buffer, appLog)
	if err := loop.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start recalibration loop")
	}
	defer loop.Stop()

	// Prediction cache, optionally layered over Redis
	localCache := cache.NewPredictionCache(cfg.CacheTTL())
	var responseCache cache.ResponseCache = localCache
	if cfg.Cache.RedisEnabled {
		var rdb *redis.Client
		rdb, err = cache.ConnectRedis(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			appLog.WithError(err).Warn("Redis unavailable, falling back to in-process cache only")
		} else {
			defer rdb.Close()
			appLog.WithField("addr", cfg.Cache.RedisAddr).Info("Shared prediction cache connected")
		}
		responseCache = cache.NewSharedCache(localCache, rdb, cfg.CacheTTL(), appLog)
	}

	// External context aggregator
	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.DataSourceTimeout()
	httpCfg.MaxRetries = cfg.DataSource.MaxRetries
	httpCfg.RateLimit = cfg.DataSource.RateLimit
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, appLog)
	aggregator := datasource.NewHTTPAggregator(
		cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.DataSourceTimeout(), httpClient, appLog,
	)

	// Edge detection and stake sizing
	sizer := betting.NewSizer(
		cfg.Betting.KellyFraction,
		cfg.Betting.MaxBankrollFraction,
		cfg.Betting.CurrencyRate,
		cfg.Betting.CurrencyCode,
	)
	detector := betting.NewDetector(cfg.MinEdgeByLeague(), sizer, appLog)

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		Registry:   registry,
		Store:      store,
		Buffer:     buffer,
		Cache:      responseCache,
		Detector:   detector,
		Aggregator: aggregator,
		ResultRepo: resultRepo,
		Bankroll:   cfg.Betting.Bankroll,
		Audit:      audit,
		Logger:     appLog,
	})

	// Daily model status report
	reporter := service.NewReporter(registry, store, buffer, appLog)
	if err := reporter.Start(service.DefaultReportSchedule); err != nil {
		appLog.WithError(err).Fatal("Failed to start status reporter")
	}
	defer reporter.Stop()

	// Live result feed
	if cfg.ResultFeed.Enabled {
		stream := ingest.NewStreamClient(cfg.ResultFeed.URL, orchestrator, appLog)
		go stream.Run(ctx)
		appLog.WithField("url", cfg.ResultFeed.URL).Info("Result feed subscription started")
	} else {
		appLog.Info("Result feed disabled; calibration buffer fills only via direct reports")
	}

	// Health and metrics server
	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Port:        fmt.Sprintf("%d", cfg.App.HealthPort),
		Logger:      appLog,
		Models:      registry,
	}
	if db != nil {
		healthCfg.DB = db
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}
	healthServer.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"trained_leagues": registry.TrainedCount(),
		"cache_ttl":       cfg.CacheTTL().String(),
		"recalibration":   cfg.CalibrationInterval().String(),
	}).Info("Prediction service running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	// Give the stream and cache writers time to drain
	time.Sleep(2 * time.Second)
	appLog.Info("Prediction service shut down")
}

// trainAtStartup fits every registered league from the historical store
func trainAtStartup(ctx context.Context, trainer *service.Trainer, registry *service.Registry, matchRepo repository.MatchRepository, appLog *logrus.Logger) error {
	var matches []*models.HistoricalMatch
	for _, league := range registry.Leagues() {
		leagueMatches, err := matchRepo.GetByLeague(ctx, league, trainingWindow)
		if err != nil {
			return fmt.Errorf("load matches for %s: %w", league, err)
		}
		matches = append(matches, leagueMatches...)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no historical matches found")
	}

	reports, err := trainer.TrainAll(ctx, matches)
	for _, report := range reports {
		appLog.WithFields(logrus.Fields{
			"league":   report.League,
			"samples":  report.Samples,
			"accuracy": report.Accuracy,
			"brier":    report.Brier,
		}).Info("Startup training complete for league")
	}
	return err
}
