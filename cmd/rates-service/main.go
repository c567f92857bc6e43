package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-rates-service/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/binance"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/rediscache"
	"github.com/LavaJover/shvark-rates-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init logger
	logger := setupLogger(cfg.Env)
	// Init database
	db := postgres.MustInitDB(cfg)
	// Apply migrations
	if err := migrate.RunMigrations(db, cfg.RatesDB.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Init Redis cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rateCache := rediscache.NewRateCache(redisClient, logger)

	// Init Kafka publisher
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	eventPublisher := kafka.NewRateEventPublisher(brokers, cfg.KafkaService.Topic)
	defer eventPublisher.Close()

	// Init Binance provider
	client := binance.NewClient(cfg.Binance.BaseURL, cfg.Binance.Timeout, logger)
	transformer := binance.NewTransformer(logger)
	provider := binance.NewProvider(client, transformer, logger)

	// Init rate repo
	rateRepo := postgres.NewDefaultRateRepository(db)

	// Init metrics
	rateMetrics := metrics.NewRateMetrics()

	// Init rate usecase
	uc := usecase.NewDefaultRateUsecase(
		rateRepo,
		provider,
		rateCache,
		eventPublisher,
		rateMetrics,
		logger,
		cfg.Ingestion.CacheTTL,
	)

	// Periodic ingestion worker
	go runScheduler(context.Background(), uc, cfg.Ingestion.Interval, logger)

	// HTTP server
	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(cfg.HTTPServer.RateLimit, time.Minute)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB from gorm.DB: %v", err)
	}
	rateHandler := handlers.NewRateHandler(uc, sqlDB.PingContext)
	rateHandler.RegisterRoutes(router, limiter.Handler())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	logger.Info("starting rates service", "addr", addr, "env", cfg.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("failed to run http server: %v", err)
	}
}

func runScheduler(ctx context.Context, uc usecase.RateUsecase, interval time.Duration, logger *slog.Logger) {
	logger.Info("starting ingestion scheduler", "interval", interval)

	uc.UpdateAllRates(ctx, false)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			uc.UpdateAllRates(ctx, false)
		case <-ctx.Done():
			logger.Info("ingestion scheduler stopped")
			return
		}
	}
}

func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	slog.SetDefault(logger)
	return logger
}
