package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mzimer/vidmore/api/models"
	"github.com/mzimer/vidmore/worker/cache"
	"github.com/mzimer/vidmore/worker/config"
	"github.com/mzimer/vidmore/worker/fetcher"
	"github.com/mzimer/vidmore/worker/kafka"
	"github.com/mzimer/vidmore/worker/pool"
	"github.com/mzimer/vidmore/worker/repository"
	"github.com/mzimer/vidmore/worker/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	action, ok := models.ParseTaskAction(cfg.Action)
	if !ok {
		logger.Fatal("Unknown task action", zap.String("action", cfg.Action))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := db.Ping(pingCtx); err != nil {
		logger.Fatal("Failed to ping postgres", zap.Error(err))
	}

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	producer, err := kafka.NewProducer(cfg.Brokers())
	if err != nil {
		logger.Fatal("Failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		logger.Fatal("Failed to create download directory", zap.Error(err))
	}

	processor := service.NewProcessor(
		service.Config{
			Action:       action,
			Topic:        cfg.KafkaTopic,
			PollInterval: cfg.PollInterval,
			PollJitter:   cfg.PollJitter,
			Lease:        cfg.Lease,
			FetchTimeout: cfg.FetchTimeout,
		},
		repository.NewPostgresRepo(db),
		fetcher.NewCommandFetcher(cfg.FetchBinary, cfg.DownloadDir, logger),
		cache.NewStatusCache(redisClient),
		producer,
		pool.New(cfg.MaxFetches),
		logger,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("Metrics server started", zap.String("address", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Metrics server failed", zap.Error(err))
		}
	}()

	done := make(chan struct{})
	go func() {
		processor.Run(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
