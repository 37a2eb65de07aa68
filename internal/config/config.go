package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "WeAreExporters"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour

	// Default campaign cost and subscription bonus, in USD cents. Both track
	// the $50 the product advertises.
	defaultCampaignCostCents = 5_000
	defaultBonusCents        = 5_000
	defaultLaunchesPerMinute = 3
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName           string
	AppEnv            string
	Port              string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	ShutdownPeriod    time.Duration
	IdempotencyTTL    time.Duration
	CampaignCostCents int64
	BonusCents        int64
	LaunchesPerMinute int
}

// Load reads configuration from the environment, honoring a local .env file
// when present, and populates a Config instance.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
		CampaignCostCents: defaultCampaignCostCents,
		BonusCents:        defaultBonusCents,
		LaunchesPerMinute: defaultLaunchesPerMinute,
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv("CAMPAIGN_COST_CENTS"); v != "" {
		cents, err := strconv.ParseInt(v, 10, 64)
		if err != nil || cents <= 0 {
			return Config{}, fmt.Errorf("invalid CAMPAIGN_COST_CENTS: %q", v)
		}
		cfg.CampaignCostCents = cents
	}

	if v := os.Getenv("BONUS_CENTS"); v != "" {
		cents, err := strconv.ParseInt(v, 10, 64)
		if err != nil || cents <= 0 {
			return Config{}, fmt.Errorf("invalid BONUS_CENTS: %q", v)
		}
		cfg.BonusCents = cents
	}

	if v := os.Getenv("LAUNCHES_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid LAUNCHES_PER_MINUTE: %q", v)
		}
		cfg.LaunchesPerMinute = n
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-like environment,
// where in-memory fallbacks replace Postgres and Redis.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
