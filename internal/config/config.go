package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	HostingCloudinary = "cloudinary"
	HostingS3         = "s3"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

type CloudinaryConfig struct {
	// URL takes precedence over the individual credentials when set,
	// e.g. cloudinary://<key>:<secret>@<cloud>.
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type HostingConfig struct {
	Provider   string
	Cloudinary CloudinaryConfig
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UseSSL        bool
	Region        string
	Retention     time.Duration
}

type GenerationConfig struct {
	Endpoint  string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Redis            RedisConfig
	Hosting          HostingConfig
	Storage          StorageConfig
	Generation       GenerationConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := newViper("config", "PROMOAGENT")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, decoderOptions); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations that would only fail on the first upload.
func (c *AppConfig) Validate() error {
	switch c.Hosting.Provider {
	case HostingCloudinary:
		cld := c.Hosting.Cloudinary
		if cld.URL == "" && (cld.CloudName == "" || cld.APIKey == "" || cld.APISecret == "") {
			return errors.New("hosting.cloudinary: url or cloudname/apikey/apisecret required")
		}
	case HostingS3:
		if c.Storage.Endpoint == "" || c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return errors.New("storage: endpoint, accesskey and secretkey required for s3 hosting")
		}
	default:
		return fmt.Errorf("hosting.provider: unsupported %q", c.Hosting.Provider)
	}

	if c.Generation.Endpoint == "" {
		return errors.New("generation.endpoint required")
	}
	return nil
}

func newViper(name, envPrefix string) *viper.Viper {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decoderOptions(dc *mapstructure.DecoderConfig) {
	dc.TagName = "mapstructure"
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "30s")
	v.SetDefault("http.writetimeout", "0s") // generation can take minutes
	v.SetDefault("http.idletimeout", "60s")

	setRedisDefaults(v)

	v.SetDefault("hosting.provider", HostingCloudinary)
	v.SetDefault("hosting.cloudinary.url", "")
	v.SetDefault("hosting.cloudinary.cloudname", "")
	v.SetDefault("hosting.cloudinary.apikey", "")
	v.SetDefault("hosting.cloudinary.apisecret", "")
	v.SetDefault("hosting.cloudinary.folder", "")

	setStorageDefaults(v)

	v.SetDefault("generation.endpoint", "http://localhost:8002/generate")
	v.SetDefault("generation.timeout", "0s")
	v.SetDefault("generation.ratelimit", 1.0)
	v.SetDefault("generation.burst", 2)

	v.SetDefault("allowcorsorigins", []string{})
}

func setRedisDefaults(v *viper.Viper) {
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "demo:events")
}

func setStorageDefaults(v *viper.Viper) {
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "promoagent-uploads")
	v.SetDefault("storage.publicbaseurl", "")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.retention", "0s")
}
