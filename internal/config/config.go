package config

import (
	"fmt"
	"time"

	"github.com/utafrali/storefront-cart/internal/domain"
	pkgconfig "github.com/utafrali/storefront-cart/pkg/config"
	"github.com/utafrali/storefront-cart/pkg/database"
	"github.com/utafrali/storefront-cart/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront-cart/pkg/kafka"
	"github.com/utafrali/storefront-cart/pkg/tracing"
)

// Storage backends.
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Per-client rate limit on the cart API; 0 disables it.
	RateLimitRPS   float64 `env:"CART_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"CART_RATE_LIMIT_BURST" envDefault:"40"`

	// Downstream services
	StockServiceURL   string `env:"STOCK_SERVICE_URL" envDefault:"http://localhost:3333"`
	CatalogServiceURL string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:3333"`

	HTTPClientTimeoutSeconds int `env:"HTTP_CLIENT_TIMEOUT_SECONDS" envDefault:"10"`
	HTTPClientMaxRetries     int `env:"HTTP_CLIENT_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBIntervalSecs int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeoutSecs  int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Cart rules
	StockBoundary       string `env:"CART_STOCK_BOUNDARY" envDefault:"inclusive"`
	NotificationHistory int    `env:"NOTIFICATION_HISTORY" envDefault:"50"`

	// Persistence
	Storage     string `env:"CART_STORAGE" envDefault:"file"`
	StorageKey  string `env:"CART_STORAGE_KEY" envDefault:"@RocketShoes:cart"`
	StorageFile string `env:"CART_STORAGE_FILE" envDefault:"data/cart.json"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 7 days), redis only
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`

	// Postgres
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"cart"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:""`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"cart"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"5"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaAsync   bool     `env:"KAFKA_ASYNC" envDefault:"true"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if _, err := domain.ParseStockBoundary(c.StockBoundary); err != nil {
		return fmt.Errorf("CART_STOCK_BOUNDARY: %w", err)
	}
	switch c.Storage {
	case StorageFile:
		if c.StorageFile == "" {
			return fmt.Errorf("CART_STORAGE_FILE is required for file storage")
		}
	case StorageMemory, StorageRedis, StoragePostgres:
	default:
		return fmt.Errorf("unknown CART_STORAGE %q", c.Storage)
	}
	if c.StockServiceURL == "" || c.CatalogServiceURL == "" {
		return fmt.Errorf("STOCK_SERVICE_URL and CATALOG_SERVICE_URL are required")
	}
	if c.HTTPClientTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_CLIENT_TIMEOUT_SECONDS must be positive")
	}
	if c.HTTPClientMaxRetries < 0 {
		return fmt.Errorf("HTTP_CLIENT_MAX_RETRIES must not be negative")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0]")
	}
	if c.CBTimeoutSecs <= 0 || c.CBIntervalSecs < 0 {
		return fmt.Errorf("CB_TIMEOUT_SECONDS must be positive and CB_INTERVAL_SECONDS not negative")
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst < 1) {
		return fmt.Errorf("CART_RATE_LIMIT_RPS must not be negative and CART_RATE_LIMIT_BURST must be at least 1")
	}
	if c.NotificationHistory <= 0 {
		return fmt.Errorf("NOTIFICATION_HISTORY must be positive")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
	}
	return nil
}

// Boundary returns the parsed stock boundary. Validate has already rejected
// unknown values.
func (c *Config) Boundary() domain.StockBoundary {
	b, _ := domain.ParseStockBoundary(c.StockBoundary)
	return b
}

// HTTPClient returns the settings for calls to the stock and catalog services.
func (c *Config) HTTPClient() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = time.Duration(c.HTTPClientTimeoutSeconds) * time.Second
	hc.MaxRetries = c.HTTPClientMaxRetries
	return hc
}

// CircuitBreaker returns the breaker settings for the named downstream.
func (c *Config) CircuitBreaker(name string) httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBIntervalSecs) * time.Second,
		Timeout:      time.Duration(c.CBTimeoutSecs) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}

// Kafka returns the producer settings for cart events.
func (c *Config) Kafka() pkgkafka.ProducerConfig {
	kc := pkgkafka.DefaultProducerConfig(c.KafkaBrokers)
	kc.Async = c.KafkaAsync
	return kc
}

// Redis returns the redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPass, DB: c.RedisDB}
}

// Postgres returns the postgres connection settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSLMode,
		MaxConns: c.PostgresMaxConns,
	}
}

// Tracing returns the OpenTelemetry settings for serviceName.
func (c *Config) Tracing(serviceName string) tracing.Config {
	tc := tracing.DefaultConfig(serviceName)
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}

// CartTTLDuration returns the redis key TTL.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}
