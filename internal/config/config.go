package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values, populated from
// environment variables (see envconfig tags for the variable names).
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	Feed       FeedConfig
	Redis      RedisConfig
	Catalog    CatalogConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// FeedConfig points at the normalized catalog feed the service loads on
// startup and on explicit refresh.
type FeedConfig struct {
	Path string `envconfig:"FEED_PATH" default:"catalog.json"`
}

// RedisConfig configures the optional result cache. An empty Addr disables
// caching entirely.
type RedisConfig struct {
	Addr string        `envconfig:"REDIS_ADDR" default:""`
	DB   int           `envconfig:"REDIS_DB" default:"0"`
	TTL  time.Duration `envconfig:"REDIS_TTL" default:"5m"`
}

// CatalogConfig tunes price resolution.
type CatalogConfig struct {
	// PurchaseQuantity is the quantity promotional rules are evaluated
	// against when resolving catalog prices.
	PurchaseQuantity int32 `envconfig:"CATALOG_PURCHASE_QUANTITY" default:"1"`
}

// Load initializes the configuration from environment variables. It should
// be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}
