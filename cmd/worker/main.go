package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"promoagent/internal/cache"
	"promoagent/internal/config"
	"promoagent/internal/log"
	"promoagent/internal/queue"
	"promoagent/internal/storage"
	"promoagent/internal/tasks"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.NewWithLevel(cfg.Environment, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	if client == nil {
		logger.Fatal().Msg("worker requires redis, set redis.enabled")
	}
	defer client.Close()

	var cleaner tasks.Cleaner
	if cfg.Storage.Endpoint != "" && cfg.Storage.Retention > 0 {
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		cleaner = store
		logger.Info().Dur("retention", cfg.Storage.Retention).Str("bucket", cfg.Storage.Bucket).Msg("retention sweeps enabled")
	}

	processor := tasks.NewProcessor(logger, cache.NewStats(client), cleaner, cfg.Storage.Retention)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Queues.Group,
		cfg.Queues.Consumer,
		cfg.Queues.ClaimInterval,
		logger,
		processor,
	)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
