package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting of the tracker.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Telegram TelegramConfig
	Reminder ReminderConfig
	Session  SessionConfig
	Log      LogConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	telegram, err := loadTelegramConfig()
	if err != nil {
		return nil, err
	}

	reminder, err := loadReminderConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Storage:  storage,
		Telegram: telegram,
		Reminder: reminder,
		Session:  session,
		Log:      loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are taken verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// StorageConfig picks and parameterises the entry store.
type StorageConfig struct {
	Backend     string
	SQLitePath  string
	PostgresDSN string
}

func loadStorageConfig() (StorageConfig, error) {
	cfg := StorageConfig{
		Backend:     strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendSQLite)),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "data/journal.db"),
		PostgresDSN: strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
	}
	return cfg, cfg.Validate()
}

func (c StorageConfig) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of %s, %s, %s; got %q", BackendSQLite, BackendPostgres, BackendMemory, c.Backend)
	}
	return nil
}

// TelegramConfig enables the Telegram transport when a token is present.
type TelegramConfig struct {
	Token       string
	PollTimeout int
	Enabled     bool
}

func loadTelegramConfig() (TelegramConfig, error) {
	timeout, err := parseOptionalIntEnv("TELEGRAM_POLL_TIMEOUT")
	if err != nil {
		return TelegramConfig{}, err
	}
	pollTimeout := 60
	if timeout != nil && *timeout > 0 {
		pollTimeout = *timeout
	}

	token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	return TelegramConfig{Token: token, PollTimeout: pollTimeout, Enabled: token != ""}, nil
}

// TimeOfDay is a wall-clock trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts HH:MM in 24h form.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", raw, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ReminderConfig holds the two daily broadcast times.
type ReminderConfig struct {
	Enabled     bool
	MorningAt   TimeOfDay
	EveningAt   TimeOfDay
	Location    *time.Location
	SendTimeout time.Duration
}

func loadReminderConfig() (ReminderConfig, error) {
	enabled, err := parseBoolEnv("REMINDER_ENABLED", true)
	if err != nil {
		return ReminderConfig{}, err
	}

	morning, err := ParseTimeOfDay(getEnvOrDefault("REMINDER_MORNING_AT", "09:00"))
	if err != nil {
		return ReminderConfig{}, fmt.Errorf("REMINDER_MORNING_AT: %w", err)
	}

	evening, err := ParseTimeOfDay(getEnvOrDefault("REMINDER_EVENING_AT", "21:00"))
	if err != nil {
		return ReminderConfig{}, fmt.Errorf("REMINDER_EVENING_AT: %w", err)
	}

	loc := time.Local
	if name := strings.TrimSpace(os.Getenv("REMINDER_TIMEZONE")); name != "" {
		loc, err = time.LoadLocation(name)
		if err != nil {
			return ReminderConfig{}, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", name, err)
		}
	}

	sendTimeout, err := parseDurationEnv("REMINDER_SEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return ReminderConfig{}, err
	}

	return ReminderConfig{
		Enabled:     enabled,
		MorningAt:   morning,
		EveningAt:   evening,
		Location:    loc,
		SendTimeout: sendTimeout,
	}, nil
}

// SessionConfig controls in-progress dialogue retention. Zero IdleTimeout keeps sessions forever.
type SessionConfig struct {
	IdleTimeout time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	idle, err := parseDurationEnv("SESSION_IDLE_TIMEOUT", 0)
	if err != nil {
		return SessionConfig{}, err
	}
	if idle < 0 {
		return SessionConfig{}, fmt.Errorf("SESSION_IDLE_TIMEOUT must not be negative: %s", idle)
	}
	return SessionConfig{IdleTimeout: idle}, nil
}

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level string
	Env   string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level: getEnvOrDefault("LOG_LEVEL", "info"),
		Env:   getEnvOrDefault("APP_ENV", "development"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
