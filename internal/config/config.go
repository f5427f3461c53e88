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

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	LogLevel       string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPass      string
	DBName      string
	DBPort      string

	RedisURL string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	MeiliSearchHost       string
	MeiliMasterKey        string
	SearchReindexSchedule string

	GithubAPIURL   string
	GithubToken    string
	GithubCacheTTL time.Duration

	RateLimitPost    time.Duration
	RateLimitComment time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "5000"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "devconnector"),
		DBPort:      getEnv("DB_PORT", "5432"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		MeiliSearchHost:       os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:        os.Getenv("MEILI_MASTER_KEY"),
		SearchReindexSchedule: getEnv("SEARCH_REINDEX_SCHEDULE", "@every 6h"),

		GithubAPIURL: strings.TrimRight(getEnv("GITHUB_API_URL", "https://api.github.com"), "/"),
		GithubToken:  os.Getenv("GITHUB_TOKEN"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	var err error
	if cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10")); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Parsing durations
	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"JWT_TTL", "100h", &cfg.JWTTTL},
		{"GITHUB_CACHE_TTL", "10m", &cfg.GithubCacheTTL},
		{"RATE_LIMIT_POST", "5s", &cfg.RateLimitPost},
		{"RATE_LIMIT_COMMENT", "2s", &cfg.RateLimitComment},
	}
	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(getEnv(d.key, d.fallback)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	return cfg, nil
}

// DSN returns DATABASE_URL or a DSN built from the DB_* settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
