package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/engine"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Engine   EngineConfig
	Batch    BatchConfig
	Storage  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// EngineConfig holds the processing rules that are not part of shift or policy data.
type EngineConfig struct {
	DebounceSeconds         int
	MaxIntervalHours        int
	DuplicateEventThreshold int
	ShortShiftRatio         float64
	WeekendDays             []int
	DefaultLeaveMinutes     int
	DefaultTimezone         string
}

// BatchConfig controls the recurring triggers and the batch worker pool.
type BatchConfig struct {
	Workers                int
	PendingInterval        time.Duration
	ReconcileInterval      time.Duration
	AbsentInterval         time.Duration
	WeekCloseGrace         time.Duration
	ReconcileLookbackWeeks int
	PendingLimit           int
}

// Load reads the environment, optionally seeded from a .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.App.AllowedOrigins = append(config.App.AllowedOrigins, origin)
		}
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Storage = strings.ToLower(getEnv("STORAGE", StoragePostgres))

	// Engine configuration
	defaults := engine.DefaultConfig()
	config.Engine = EngineConfig{DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "UTC")}

	if config.Engine.DebounceSeconds, err = getEnvInt("DEBOUNCE_SECONDS", int(defaults.DebounceWindow/time.Second)); err != nil {
		return nil, err
	}
	if config.Engine.MaxIntervalHours, err = getEnvInt("MAX_INTERVAL_HOURS", defaults.MaxIntervalMinutes/60); err != nil {
		return nil, err
	}
	if config.Engine.DuplicateEventThreshold, err = getEnvInt("DUPLICATE_EVENT_THRESHOLD", defaults.DuplicateEventThreshold); err != nil {
		return nil, err
	}
	if config.Engine.DefaultLeaveMinutes, err = getEnvInt("DEFAULT_LEAVE_MINUTES", defaults.DefaultLeaveMinutes); err != nil {
		return nil, err
	}
	ratio, err := strconv.ParseFloat(getEnv("SHORT_SHIFT_RATIO", strconv.FormatFloat(defaults.ShortShiftRatio, 'f', -1, 64)), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SHORT_SHIFT_RATIO: %w", err)
	}
	config.Engine.ShortShiftRatio = ratio
	if config.Engine.WeekendDays, err = getEnvInts("WEEKEND_DAYS", defaults.WeekendDays); err != nil {
		return nil, err
	}

	// Batch configuration
	if config.Batch.Workers, err = getEnvInt("WORKERS", 4); err != nil {
		return nil, err
	}
	if config.Batch.ReconcileLookbackWeeks, err = getEnvInt("RECONCILE_LOOKBACK_WEEKS", 8); err != nil {
		return nil, err
	}
	if config.Batch.PendingLimit, err = getEnvInt("PENDING_LIMIT", 5000); err != nil {
		return nil, err
	}
	if config.Batch.PendingInterval, err = getEnvDuration("PENDING_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.Batch.ReconcileInterval, err = getEnvDuration("RECONCILE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if config.Batch.AbsentInterval, err = getEnvDuration("ABSENT_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if config.Batch.WeekCloseGrace, err = getEnvDuration("WEEK_CLOSE_GRACE", 48*time.Hour); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}

	if c.Engine.DebounceSeconds < 0 {
		return fmt.Errorf("DEBOUNCE_SECONDS must not be negative")
	}
	if c.Engine.ShortShiftRatio < 0 || c.Engine.ShortShiftRatio > 1 {
		return fmt.Errorf("SHORT_SHIFT_RATIO must be between 0 and 1")
	}
	for _, d := range c.Engine.WeekendDays {
		if !validator.IsISOWeekday(d) {
			return fmt.Errorf("WEEKEND_DAYS must hold ISO weekdays 1-7, got %d", d)
		}
	}
	if !validator.IsValidTimezone(c.Engine.DefaultTimezone) {
		return fmt.Errorf("DEFAULT_TIMEZONE %q is not a known timezone", c.Engine.DefaultTimezone)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1")
	}
	if c.Batch.ReconcileLookbackWeeks < 1 {
		return fmt.Errorf("RECONCILE_LOOKBACK_WEEKS must be at least 1")
	}
	return nil
}

// EngineRules converts the engine section into the processing configuration.
func (c *Config) EngineRules() engine.Config {
	return engine.Config{
		DebounceWindow:          time.Duration(c.Engine.DebounceSeconds) * time.Second,
		MaxIntervalMinutes:      c.Engine.MaxIntervalHours * 60,
		DuplicateEventThreshold: c.Engine.DuplicateEventThreshold,
		ShortShiftRatio:         c.Engine.ShortShiftRatio,
		WeekendDays:             c.Engine.WeekendDays,
		DefaultLeaveMinutes:     c.Engine.DefaultLeaveMinutes,
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInts(key string, fallback []int) ([]int, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	var result []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		result = append(result, n)
	}
	return result, nil
}
