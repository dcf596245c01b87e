// Package config loads and validates the API's environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	KeyAppEnv         = "APP_ENV"
	KeyLogLevel       = "LOG_LEVEL"
	KeyAPIPort        = "API_PORT"
	KeyMongoURI       = "MONGO_URI"
	KeyMongoDatabase  = "MONGO_DATABASE"
	KeyJWTSecret      = "JWT_SECRET"
	KeyJWTTTL         = "JWT_TTL"
	KeyAuthRequired   = "AUTH_REQUIRED"
	KeyCORSOrigins    = "CORS_ORIGINS"
	KeyRateLimitRPS   = "RATE_LIMIT_RPS"
	KeyRateLimitBurst = "RATE_LIMIT_BURST"
	KeyTimezone       = "TIMEZONE"
	KeySeedDemoData   = "SEED_DEMO_DATA"

	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultAppEnv         = EnvProduction
	DefaultLogLevel       = "info"
	DefaultAPIPort        = 8080
	DefaultJWTTTL         = 24 * time.Hour
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10
	DefaultTimezone       = "Local"
)

// Config mirrors resolved configuration values after loading.
type Config struct {
	AppEnv         string
	LogLevel       string
	APIPort        int
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	JWTTTL         time.Duration
	AuthRequired   bool
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	Location       *time.Location
	SeedDemoData   bool
}

// Load resolves configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppEnv:         firstNonEmpty(strings.ToLower(env(KeyAppEnv)), DefaultAppEnv),
		LogLevel:       firstNonEmpty(env(KeyLogLevel), DefaultLogLevel),
		APIPort:        DefaultAPIPort,
		MongoURI:       env(KeyMongoURI),
		MongoDatabase:  env(KeyMongoDatabase),
		JWTSecret:      env(KeyJWTSecret),
		JWTTTL:         DefaultJWTTTL,
		CORSOrigins:    splitList(firstNonEmpty(env(KeyCORSOrigins), "*")),
		RateLimitRPS:   DefaultRateLimitRPS,
		RateLimitBurst: DefaultRateLimitBurst,
		SeedDemoData:   true,
	}

	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction {
		return Config{}, fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
	}

	missing := make([]string, 0)
	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}
	if cfg.MongoDatabase == "" {
		missing = append(missing, KeyMongoDatabase)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if raw := env(KeyAPIPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyAPIPort, err)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyAPIPort)
		}
		cfg.APIPort = port
	}

	if raw := env(KeyJWTTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyJWTTTL, err)
		}
		cfg.JWTTTL = ttl
	}

	var err error
	if cfg.AuthRequired, err = boolEnv(KeyAuthRequired, false); err != nil {
		return Config{}, err
	}
	if cfg.SeedDemoData, err = boolEnv(KeySeedDemoData, true); err != nil {
		return Config{}, err
	}
	if cfg.AuthRequired && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("%s requires %s", KeyAuthRequired, KeyJWTSecret)
	}

	if raw := env(KeyRateLimitRPS); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", KeyRateLimitRPS, raw)
		}
		cfg.RateLimitRPS = rps
	}
	if raw := env(KeyRateLimitBurst); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", KeyRateLimitBurst, raw)
		}
		cfg.RateLimitBurst = burst
	}

	loc, err := time.LoadLocation(firstNonEmpty(env(KeyTimezone), DefaultTimezone))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyTimezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.APIPort)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := env(key)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
