package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type WorkerConfig struct {
	Environment string
	Redis       RedisConfig
	Storage     StorageConfig
	Queues      QueueConfig
	Logging     LoggingConfig
}

type QueueConfig struct {
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

func LoadWorker() (*WorkerConfig, error) {
	v := newViper("worker", "PROMOAGENT_WORKER")
	setWorkerDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg, decoderOptions); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return &cfg, nil
}

func setWorkerDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	setRedisDefaults(v)
	v.SetDefault("redis.enabled", true)
	setStorageDefaults(v)

	v.SetDefault("queues.group", "demo-workers")
	v.SetDefault("queues.consumer", "worker-1")
	v.SetDefault("queues.claiminterval", "10s")

	v.SetDefault("logging.level", "info")
}
