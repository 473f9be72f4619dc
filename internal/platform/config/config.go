package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string
	JWTIssuer    string

	// Redis-backed stock cache; empty RedisAddr disables caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StockCacheTTL time.Duration

	// How many fresh sequences the encoder mints before giving up on a
	// concurrent append.
	CodeMaxRetries int

	// Per-IP request rate for the API group, in ulule/limiter formatted
	// notation ("120-M" is 120 requests per minute). Empty disables limiting.
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "toko-backoffice-app")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("STOCK_CACHE_TTL", "5m")
	viper.SetDefault("CODE_MAX_RETRIES", 3)
	viper.SetDefault("RATE_LIMIT", "120-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")

	ttlStr := viper.GetString("STOCK_CACHE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 5 * time.Minute
		log.Printf("Warning: Invalid value for STOCK_CACHE_TTL (%q). Defaulting to %s.\n", ttlStr, ttl)
	}
	cfg.StockCacheTTL = ttl

	cfg.CodeMaxRetries = viper.GetInt("CODE_MAX_RETRIES")
	if cfg.CodeMaxRetries <= 0 {
		cfg.CodeMaxRetries = 3
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
