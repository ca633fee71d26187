// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // BOOKING_TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// SeatUpcharge is the price of one preferred seat. Defaults to 500.
	SeatUpcharge int64

	// Location is the zone whose calendar date is "today" for booking
	// deadlines. BOOKING_TIMEZONE, defaults to Asia/Tokyo.
	Location *time.Location

	// TxMaxAttempts bounds re-execution of a conflicting transaction.
	TxMaxAttempts int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// MigrateOnStart applies pending goose migrations before serving.
	MigrateOnStart bool

	// RedisAddr enables the calendar cache when set.
	RedisAddr string

	// CalendarCacheTTL is how long a cached month stays valid.
	CalendarCacheTTL time.Duration

	// AMQPURL routes notices through RabbitMQ when set; otherwise the
	// API pushes to LINE directly.
	AMQPURL string

	// NotifyQueue is the durable queue notices are published to.
	NotifyQueue string

	// LineChannelToken authenticates LINE push calls. Empty means notices
	// are only logged.
	LineChannelToken string

	// LineAPIURL is the LINE push endpoint.
	LineAPIURL string

	// JWTSecret signs operator tokens. Required.
	JWTSecret string

	// AdminPasswordHash is the bcrypt hash of the operator password.
	// Empty disables operator login.
	AdminPasswordHash string

	// AdminTokenTTL is the lifetime of an operator token.
	AdminTokenTTL time.Duration
}

// LoadDotEnv primes the environment from the given .env files (".env" when
// none are named). Variables already set win; missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config.LoadDotEnv: %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or
// naming the first variable whose value cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		AMQPURL:           os.Getenv("AMQP_URL"),
		NotifyQueue:       getEnv("NOTIFY_QUEUE", "reservation.notifications"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_TOKEN"),
		LineAPIURL:        getEnv("LINE_API_URL", "https://api.line.me/v2/bot/message/push"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.SeatUpcharge, err = getInt64("SEAT_UPCHARGE", 500); err != nil {
		return Config{}, err
	}
	if cfg.SeatUpcharge < 0 {
		return Config{}, errors.New("SEAT_UPCHARGE must not be negative")
	}
	if cfg.TxMaxAttempts, err = getInt("TX_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.TxMaxAttempts < 1 {
		return Config{}, errors.New("TX_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.MaxBodyBytes, err = getInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		return Config{}, err
	}
	if cfg.MigrateOnStart, err = getBool("MIGRATE_ON_START", false); err != nil {
		return Config{}, err
	}
	if cfg.CalendarCacheTTL, err = getDuration("CALENDAR_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.AdminTokenTTL, err = getDuration("ADMIN_TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	tz := getEnv("BOOKING_TIMEZONE", "Asia/Tokyo")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return Config{}, fmt.Errorf("BOOKING_TIMEZONE: invalid time zone %q: %w", tz, err)
	}

	return cfg, nil
}

// NotifierConfig configures the notification worker.
type NotifierConfig struct {
	LogLevel         string
	AMQPURL          string
	NotifyQueue      string
	LineChannelToken string
	LineAPIURL       string

	// DeliveryAttempts bounds LINE push attempts per message before it is
	// dropped. NOTIFY_ATTEMPTS, defaults to 5.
	DeliveryAttempts int
}

// LoadNotifier reads the worker configuration. AMQP_URL and
// LINE_CHANNEL_TOKEN are required.
func LoadNotifier() (NotifierConfig, error) {
	cfg := NotifierConfig{
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		NotifyQueue:      getEnv("NOTIFY_QUEUE", "reservation.notifications"),
		LineChannelToken: os.Getenv("LINE_CHANNEL_TOKEN"),
		LineAPIURL:       getEnv("LINE_API_URL", "https://api.line.me/v2/bot/message/push"),
	}

	var missing []string
	if cfg.AMQPURL == "" {
		missing = append(missing, "AMQP_URL")
	}
	if cfg.LineChannelToken == "" {
		missing = append(missing, "LINE_CHANNEL_TOKEN")
	}
	if len(missing) > 0 {
		return NotifierConfig{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.DeliveryAttempts, err = getInt("NOTIFY_ATTEMPTS", 5); err != nil {
		return NotifierConfig{}, err
	}
	if cfg.DeliveryAttempts < 1 {
		return NotifierConfig{}, errors.New("NOTIFY_ATTEMPTS must be at least 1")
	}
	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
