package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime configuration required by the service.
type Config struct {
	WebhookSecret   string
	DatabaseURL     string
	LogLevel        string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	Redis           RedisConfig
}

// RedisConfig enables the stats cache when Addr is set.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	StatsTTL time.Duration
}

// Load reads values from environment variables. Callers that want .env
// support load it into the environment first.
// WEBHOOK_SECRET and DATABASE_URL are required.
func Load() (Config, error) {
	secret := os.Getenv("WEBHOOK_SECRET")
	if strings.TrimSpace(secret) == "" {
		return Config{}, errors.New("WEBHOOK_SECRET required")
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DATABASE_URL required")
	}

	shutdown, err := getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)
	if err != nil {
		return Config{}, err
	}
	if shutdown <= 0 {
		return Config{}, errors.New("SHUTDOWN_TIMEOUT_SECONDS must be > 0")
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		WebhookSecret:   secret,
		DatabaseURL:     dbURL,
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: time.Duration(shutdown) * time.Second,
		Redis:           redisCfg,
	}, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}
	ttl, err := getEnvInt("STATS_CACHE_TTL_SECONDS", 5)
	if err != nil {
		return RedisConfig{}, err
	}
	if ttl <= 0 {
		return RedisConfig{}, errors.New("STATS_CACHE_TTL_SECONDS must be > 0")
	}

	return RedisConfig{
		Enabled:  true,
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		StatsTTL: time.Duration(ttl) * time.Second,
	}, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %q", key, v)
	}
	return i, nil
}
