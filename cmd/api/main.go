package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/signal-service/internal/adapter/anthropic"
	"github.com/user/signal-service/internal/adapter/phantombuster"
	"github.com/user/signal-service/internal/adapter/postgres"
	redisadapter "github.com/user/signal-service/internal/adapter/redis"
	"github.com/user/signal-service/internal/delivery/http/handler"
	"github.com/user/signal-service/internal/delivery/http/router"
	"github.com/user/signal-service/internal/repository"
	"github.com/user/signal-service/internal/scheduler"
	"github.com/user/signal-service/internal/usecase"
	"github.com/user/signal-service/pkg/config"
	"github.com/user/signal-service/pkg/logger"
	"github.com/user/signal-service/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync() //nolint:errcheck

	metrics.Init()

	ctx := context.Background()

	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("Unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	if err := dbpool.Ping(ctx); err != nil {
		log.Fatal("Database ping failed", zap.Error(err))
	}
	log.Info("PostgreSQL connection pool established")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Unable to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connection established")

	profileRepo := postgres.NewProfileRepo(dbpool)
	searchRepo := postgres.NewSearchRepo(dbpool)
	postRepo := postgres.NewPostRepo(dbpool)
	signalRepo := postgres.NewSignalRepo(dbpool)
	guardRepo := redisadapter.NewCrawlGuardRepo(rdb)

	// A missing job runner key disables crawling but keeps the rest of the
	// service, including analysis of already stored posts, alive.
	pbClient, err := phantombuster.NewClient(cfg.PhantombusterAPIKey, log)
	if err != nil {
		if !errors.Is(err, repository.ErrNotConfigured) {
			log.Fatal("Failed to create job runner client", zap.Error(err))
		}
		log.Warn("Job runner not configured, crawling disabled", zap.Error(err))
	}
	if pbClient != nil && cfg.ProfilePostsAgentID != "" {
		validation := pbClient.ValidateProfileAgent(ctx, cfg.ProfilePostsAgentID)
		if !validation.IsValid {
			log.Warn("Profile posts agent failed validation",
				zap.String("agent_id", cfg.ProfilePostsAgentID),
				zap.Strings("missing", validation.MissingConfig),
			)
		}
		for _, warning := range validation.Warnings {
			log.Warn("Profile posts agent warning",
				zap.String("agent_id", cfg.ProfilePostsAgentID),
				zap.String("warning", warning),
			)
		}
	}

	scraper := phantombuster.NewScraper(pbClient, phantombuster.ScraperConfig{
		ProfilePostsAgentID: cfg.ProfilePostsAgentID,
		SearchPostsAgentID:  cfg.SearchPostsAgentID,
		SessionCookie:       cfg.SessionCookie,
		UserAgent:           cfg.UserAgent,
		MaxPostsPerCrawl:    cfg.MaxPostsPerCrawl,
		JobTimeout:          time.Duration(cfg.JobTimeoutSeconds) * time.Second,
		PollInterval:        time.Duration(cfg.PollIntervalSeconds) * time.Second,
	}, log)

	extractor, err := anthropic.NewExtractor(cfg.AnthropicAPIKey, cfg.ExtractionModel, cfg.ExtractionMaxRetries, log)
	if err != nil {
		log.Fatal("Failed to create extractor", zap.Error(err))
	}

	minInterval := time.Duration(cfg.MinRecrawlIntervalHours) * time.Hour
	crawler := usecase.NewCrawlScheduler(profileRepo, postRepo, guardRepo, scraper, minInterval, log)
	pipeline := usecase.NewSignalPipeline(postRepo, signalRepo, profileRepo, searchRepo, extractor, log)

	registry := scheduler.NewRegistry(crawler, pipeline, cfg.AnalyzeBatchLimit, log)
	if err := registry.Start(); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	apiHandler := handler.NewHandler(crawler, profileRepo, signalRepo, log)
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	registry.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
