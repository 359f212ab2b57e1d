// Package config loads the server settings from the environment, with an
// optional .env file, and the holiday calendar from YAML.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var (
	ErrMissingSecret  = errors.New("JWT_SECRET must be set")
	ErrInvalidStorage = errors.New("STORAGE must be postgres or memory")
	ErrInvalidDriver  = errors.New("DB_DRIVER must be pgx or postgres")
)

type DBConfig struct {
	// Driver is "pgx" (jackc/pgx stdlib) or "postgres" (lib/pq).
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type Config struct {
	Port    string
	Storage string

	DB    DBConfig
	Redis cache.Config
	// RedisEnabled turns on the habit list cache and the rate limiter.
	RedisEnabled bool

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string

	HolidaysFile      string
	PriorityThreshold domain.Priority
	WindowDays        int
}

// Load reads envFiles (missing files are ignored) and then the process
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", f, err)
			}
		}
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		Storage: strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		DB: DBConfig{
			Driver:   getEnv("DB_DRIVER", "pgx"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "kanso_user"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "kanso_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: cache.Config{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intVar("REDIS_DB", 0),
		},
		RedisEnabled:   getBool("REDIS_ENABLED", true),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      getEnv("JWT_ISSUER", "kanso-progress"),
		TokenTTL:       durationVar("TOKEN_TTL", 24*time.Hour),
		RateLimit:      intVar("RATE_LIMIT", 100),
		RateWindow:     durationVar("RATE_WINDOW", time.Minute),
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		HolidaysFile:   os.Getenv("HOLIDAYS_FILE"),
		WindowDays:     intVar("CONSISTENCY_WINDOW_DAYS", domain.DefaultConsistencyWindow),
	}

	threshold, err := domain.ParsePriority(getEnv("AGENDA_PRIORITY_THRESHOLD", domain.PriorityHigh.String()))
	if err != nil {
		errs = append(errs, fmt.Errorf("AGENDA_PRIORITY_THRESHOLD: %w", err))
	}
	cfg.PriorityThreshold = threshold

	if cfg.JWTSecret == "" {
		errs = append(errs, ErrMissingSecret)
	}
	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		errs = append(errs, fmt.Errorf("%w (got %q)", ErrInvalidStorage, cfg.Storage))
	}
	if cfg.DB.Driver != "pgx" && cfg.DB.Driver != "postgres" {
		errs = append(errs, fmt.Errorf("%w (got %q)", ErrInvalidDriver, cfg.DB.Driver))
	}
	if cfg.WindowDays < 1 {
		errs = append(errs, fmt.Errorf("CONSISTENCY_WINDOW_DAYS must be positive (got %d)", cfg.WindowDays))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
