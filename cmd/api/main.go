package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/ai"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/api"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/database"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/logger"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/metrics"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/middleware"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/router"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/server"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Environment.IsDevelopment(),
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("starting meal generation API", zap.String("environment", string(cfg.Environment)))

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("database schema migrated")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	health := map[string]api.Pinger{"database": sqlDB.PingContext}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		log.Warn("redis not configured, drafts and rate limiting are disabled")
	}

	s3Client, err := config.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if cfg.Storage.PublicReadPolicy {
		if err := config.ApplyPublicReadPolicy(ctx, s3Client, cfg.Storage); err != nil {
			log.Warn("failed to apply public read policy", zap.Error(err))
		}
	}

	m := metrics.New()
	clientOpts := []ai.Option{ai.WithLogger(log)}
	if cfg.OpenAI.RequestsPerSecond > 0 {
		clientOpts = append(clientOpts, ai.WithRateLimit(cfg.OpenAI.RequestsPerSecond))
	}

	generator := service.NewGenerationService(
		ai.NewChatClient(cfg.OpenAI, clientOpts...),
		ai.NewImageClient(cfg.OpenAI, clientOpts...),
		service.NewS3Relocator(s3Client, cfg.Storage, log),
		service.GenerationConfigFrom(cfg.OpenAI),
		log,
		m,
	)

	var drafts service.DraftStore
	var limiter *middleware.RateLimiter
	if redisClient != nil {
		drafts = service.NewDraftService(redisClient, cfg.Drafts)
		if cfg.RateLimit.Enabled {
			limiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit, log)
		}
	}

	handler := api.NewMealHandler(generator, drafts, service.NewRecipeService(db), log)
	engine := router.SetupRouter(router.Deps{
		Handler:        handler,
		RateLimiter:    limiter,
		Metrics:        m,
		Health:         health,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	writeTimeout := cfg.OpenAI.ChatTimeout + cfg.OpenAI.ImageTimeout + cfg.Storage.DownloadTimeout + cfg.Server.ShutdownTimeout
	return server.New(cfg.Server, writeTimeout, engine, log).Run(ctx)
}
