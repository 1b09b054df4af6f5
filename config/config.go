package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `env:"GO_ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`

	// DBUrl is optional. When empty the service runs on in-memory storage.
	DBUrl         string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"false"`

	// SeedEventsFile is a TOML file of [[events]] loaded into the in-memory catalog.
	SeedEventsFile string `env:"SEED_EVENTS_FILE"`

	JWTSecret string `env:"JWT_SECRET"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	BusBackend       string `env:"BUS_BACKEND" envDefault:"gochannel"`
	BusConsumerGroup string `env:"BUS_CONSUMER_GROUP" envDefault:"participation"`
	BusMaxRetries    int    `env:"BUS_MAX_RETRIES" envDefault:"3"`

	DefaultLocale   string `env:"DEFAULT_LOCALE" envDefault:"en"`
	NotifyQueueSize int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
	NotifyWorkers   int    `env:"NOTIFY_WORKERS" envDefault:"2"`

	EmailProvider      string `env:"EMAIL_PROVIDER" envDefault:"noop"`
	EmailFromAddress   string `env:"EMAIL_FROM_ADDRESS"`
	EmailFromName      string `env:"EMAIL_FROM_NAME"`
	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	// Load .env file if not in production
	// We don't return error here because in production .env might not exist
	// and we rely on system environment variables
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.NotifyQueueSize < 1 || c.NotifyWorkers < 1 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE and NOTIFY_WORKERS must be at least 1")
	}
	if c.BusBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("BUS_BACKEND=redis requires REDIS_ADDR")
	}
	return nil
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
