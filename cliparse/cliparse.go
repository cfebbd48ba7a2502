package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/ahamednazeer/eVoting-sub000/ratelimit"
)

type Config struct {
	Port         int           `env:"PORT" env-default:"3318"`
	DatabaseURL  string        `env:"DATABASE_URL" env-default:"evoting.db"`
	DatabaseType string        `env:"DATABASE_TYPE" env-default:"sqlite"`
	AdminKeyHash string        `env:"ADMIN_KEY_HASH"`
	JWTSecret    string        `env:"JWT_SECRET"`
	IPHashSalt   string        `env:"IP_HASH_SALT"`
	LogLevel     string        `env:"LOG_LEVEL" env-default:"info"`
	TxTimeout    time.Duration `env:"TX_TIMEOUT" env-default:"5s"`
	RateLimit    RateLimitConfig
}

type RateLimitConfig struct {
	Backend   string        `env:"RATE_LIMIT_BACKEND" env-default:"memory"`
	Attempts  int           `env:"RATE_LIMIT_ATTEMPTS" env-default:"1"`
	Window    time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"10s"`
	Tarantool ratelimit.TarantoolConfig
}

// ParseFlags loads .env (if present) and the environment, then lets CLI
// flags override what was read.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	fs := flag.NewFlagSet("evoting", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.DurationVar(&cfg.TxTimeout, "tx-timeout", cfg.TxTimeout, "Vote transaction timeout")
	fs.StringVar(&cfg.RateLimit.Backend, "rate-limit", cfg.RateLimit.Backend, "Rate limit backend (memory or tarantool)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeyHash, "admin-key-hash", cfg.AdminKeyHash, "bcrypt hash of the admin key (prefer env)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Voter token signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}
	if cfg.AdminKeyHash == "" {
		return Config{}, errors.New("ADMIN_KEY_HASH required")
	}
	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = cfg.JWTSecret
	}

	if cfg.RateLimit.Backend != "memory" && cfg.RateLimit.Backend != "tarantool" {
		return Config{}, fmt.Errorf("unsupported RATE_LIMIT_BACKEND %q", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.Attempts < 1 || cfg.RateLimit.Window <= 0 {
		return Config{}, errors.New("rate limit needs at least 1 attempt per positive window")
	}

	return cfg, nil
}
