package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"promoagent/internal/cache"
	"promoagent/internal/config"
	"promoagent/internal/service"
)

type StatsReader interface {
	All(ctx context.Context) (map[string]int64, error)
}

type HandlerSet struct {
	log             zerolog.Logger
	cfg             *config.AppConfig
	uploadService   *service.UploadService
	generateService *service.GenerateService
	cache           *redis.Client
	stats           StatsReader
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, uploads *service.UploadService, generations *service.GenerateService, redisClient *redis.Client) HandlerSet {
	var stats StatsReader
	if redisClient != nil {
		stats = cache.NewStats(redisClient)
	}

	return HandlerSet{
		log:             log,
		cfg:             cfg,
		uploadService:   uploads,
		generateService: generations,
		cache:           redisClient,
		stats:           stats,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/stats", h.Stats)

	router.POST("/upload", h.Upload)
	router.POST("/generate", h.Generate)
}
