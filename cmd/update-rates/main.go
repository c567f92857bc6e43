package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/binance"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/rediscache"
	"github.com/LavaJover/shvark-rates-service/internal/usecase"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// update-rates runs a single ingestion batch and exits. Exit code 1 when any
// pair failed, so cron and CI can alert on it.
func main() {
	force := flag.Bool("force", false, "write rates even when they duplicate the latest stored value")
	pairsFlag := flag.String("pairs", "", "comma-separated pairs to update (default: all supported)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	db := postgres.MustInitDB(cfg)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rateCache := rediscache.NewRateCache(redisClient, logger)

	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	eventPublisher := kafka.NewRateEventPublisher(brokers, cfg.KafkaService.Topic)

	client := binance.NewClient(cfg.Binance.BaseURL, cfg.Binance.Timeout, logger)
	transformer := binance.NewTransformer(logger)
	provider := binance.NewProvider(client, transformer, logger)

	rateRepo := postgres.NewDefaultRateRepository(db)
	rateMetrics := metrics.NewRateMetrics()

	uc := usecase.NewDefaultRateUsecase(
		rateRepo,
		provider,
		rateCache,
		eventPublisher,
		rateMetrics,
		logger,
		cfg.Ingestion.CacheTTL,
	)

	ctx := context.Background()
	var result *domain.UpdateResult
	if *pairsFlag != "" {
		pairs := strings.Split(*pairsFlag, ",")
		for i := range pairs {
			pairs[i] = strings.TrimSpace(pairs[i])
		}
		result = uc.UpdateSpecificRates(ctx, pairs, *force)
	} else {
		result = uc.UpdateAllRates(ctx, *force)
	}

	fmt.Printf("run %s: updated=%d skipped=%d errors=%d\n",
		result.RunID, result.SuccessCount(), result.SkippedCount(), result.ErrorCount())
	for pair, message := range result.Errors {
		fmt.Printf("  %s: %s\n", pair, message)
	}

	// Flush the writer before deciding the exit code: os.Exit skips defers.
	if err := eventPublisher.Close(); err != nil {
		logger.Warn("failed to close event publisher", "error", err)
	}

	if result.HasErrors() {
		os.Exit(1)
	}
}
