package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Demand    DemandConfig    `mapstructure:"demand"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Matching  MatchingConfig  `mapstructure:"matching"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig selects the log encoder and level
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// CatalogConfig selects where the source catalog is loaded from
type CatalogConfig struct {
	Source string   `mapstructure:"source"` // "file", "s3", "sqlite" or "postgres"
	Path   string   `mapstructure:"path"`
	DSN    string   `mapstructure:"dsn"`
	Table  string   `mapstructure:"table"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config locates the catalog CSV object
type S3Config struct {
	Bucket         string `mapstructure:"bucket"`
	Key            string `mapstructure:"key"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// FeesConfig points at the TOML fee file. Empty means built-in defaults.
type FeesConfig struct {
	Path string `mapstructure:"path"`
}

// DemandConfig holds demand API configuration. An empty BaseURL serves the demo fixture.
type DemandConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestsPerHour int           `mapstructure:"requests_per_hour"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// MatchingConfig tunes title matching
type MatchingConfig struct {
	DebugLogging bool `mapstructure:"debug_logging"`
	StripNoise   bool `mapstructure:"strip_noise"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/crossborder/")

	// CROSSBORDER_SERVER_PORT -> server.port
	v.SetEnvPrefix("CROSSBORDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values.
// Every key gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)

	// Catalog defaults
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "config/catalog.csv")
	v.SetDefault("catalog.dsn", "")
	v.SetDefault("catalog.table", "catalog_items")
	v.SetDefault("catalog.s3.bucket", "")
	v.SetDefault("catalog.s3.key", "")
	v.SetDefault("catalog.s3.region", "ap-northeast-1")
	v.SetDefault("catalog.s3.endpoint", "")
	v.SetDefault("catalog.s3.access_key", "")
	v.SetDefault("catalog.s3.secret_key", "")
	v.SetDefault("catalog.s3.force_path_style", false)

	v.SetDefault("fees.path", "")

	// Demand API defaults
	v.SetDefault("demand.base_url", "")
	v.SetDefault("demand.requests_per_hour", 1000)
	v.SetDefault("demand.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "6h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("matching.debug_logging", false)
	v.SetDefault("matching.strip_noise", true)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case "file", "sqlite":
		if config.Catalog.Path == "" {
			return fmt.Errorf("catalog path is required when catalog source is '%s'", config.Catalog.Source)
		}
	case "postgres":
		if config.Catalog.DSN == "" {
			return fmt.Errorf("catalog DSN is required when catalog source is 'postgres' (set CROSSBORDER_CATALOG_DSN)")
		}
	case "s3":
		if config.Catalog.S3.Bucket == "" || config.Catalog.S3.Key == "" {
			return fmt.Errorf("catalog S3 bucket and key are required when catalog source is 's3'")
		}
	default:
		return fmt.Errorf("catalog source must be 'file', 's3', 'sqlite' or 'postgres', got: %s", config.Catalog.Source)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Demand.RequestsPerHour < 0 {
		return fmt.Errorf("demand requests_per_hour must not be negative, got: %d", config.Demand.RequestsPerHour)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
