package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"promoagent/internal/cache"
	"promoagent/internal/config"
	"promoagent/internal/events"
	"promoagent/internal/generation"
	"promoagent/internal/handlers"
	"promoagent/internal/hosting"
	"promoagent/internal/jobs"
	"promoagent/internal/log"
	"promoagent/internal/server"
	"promoagent/internal/service"
	"promoagent/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	host, err := newHost(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.Hosting.Provider).Msg("failed to init hosting")
	}

	publisher := events.NewPublisher(redisClient, cfg.Redis.Stream)
	uploads := service.NewUploadService(host, publisher, logger)
	generations := service.NewGenerateService(generation.NewClient(cfg.Generation), publisher, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, uploads, generations, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var queue jobs.EventPublisher
	if redisClient != nil && cfg.Hosting.Provider == config.HostingS3 {
		queue = publisher
	}
	scheduler := jobs.NewScheduler(queue, cfg.Storage.Retention, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")
		return shutdown(logger, httpServer, scheduler, redisClient)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server exited cleanly")
}

func newHost(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (hosting.Host, error) {
	switch cfg.Hosting.Provider {
	case config.HostingCloudinary:
		return hosting.NewCloudinary(cfg.Hosting.Cloudinary)
	case config.HostingS3:
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown hosting provider %q", cfg.Hosting.Provider)
	}
}

func shutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, redisClient *redis.Client) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		shutdownErr = err
	}

	scheduler.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}
	return shutdownErr
}
