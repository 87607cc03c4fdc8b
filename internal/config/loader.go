package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/checkclass/internal/calendar"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures environment driven configuration values for the checkclass service.
type Config struct {
	HTTPPort      int
	DBDriver      string
	SQLitePath    string
	PostgresDSN   string
	TokenSecret   string
	TokenTTL      time.Duration
	TimetableFile string
	LogLevel      slog.Level
	LogFormat     string
}

// Option adjusts what Load requires.
type Option func(*loadOptions)

type loadOptions struct {
	requireSecret bool
}

// WithoutTokenSecret lets commands that never mint or verify tokens run
// without CHECKCLASS_TOKEN_SECRET.
func WithoutTokenSecret() Option {
	return func(o *loadOptions) { o.requireSecret = false }
}

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults; missing and invalid entries are
// collected and reported together.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{requireSecret: true}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := Config{
		HTTPPort:   8080,
		DBDriver:   DriverSQLite,
		SQLitePath: "checkclass.db",
		TokenTTL:   8 * time.Hour,
		LogLevel:   slog.LevelInfo,
		LogFormat:  "json",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := env("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, key("HTTP_PORT"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(env("DB_DRIVER")); driver != "" {
		switch driver {
		case DriverSQLite, DriverPostgres, DriverMemory:
			cfg.DBDriver = driver
		default:
			invalid = append(invalid, key("DB_DRIVER"))
		}
	}

	if path := env("SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	cfg.PostgresDSN = env("POSTGRES_DSN")
	if cfg.DBDriver == DriverPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, key("POSTGRES_DSN"))
	}

	cfg.TokenSecret = env("TOKEN_SECRET")
	if options.requireSecret && cfg.TokenSecret == "" {
		missing = append(missing, key("TOKEN_SECRET"))
	}

	if ttlValue := env("TOKEN_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, key("TOKEN_TTL"))
		} else {
			cfg.TokenTTL = ttl
		}
	}

	cfg.TimetableFile = env("TIMETABLE_FILE")

	if levelValue := env("LOG_LEVEL"); levelValue != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, key("LOG_LEVEL"))
		}
	}

	if format := strings.ToLower(env("LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, key("LOG_FORMAT"))
		} else {
			cfg.LogFormat = format
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variabili d'ambiente obbligatorie mancanti: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valori non validi nelle variabili d'ambiente: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Timetable returns the configured slot set, or the default school day when
// no timetable file is set.
func (c Config) Timetable() (calendar.TimeSlotSet, error) {
	if c.TimetableFile == "" {
		return calendar.DefaultTimeSlotSet(), nil
	}
	return calendar.LoadTimetable(c.TimetableFile)
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

const envPrefix = "CHECKCLASS_"

func key(name string) string {
	return envPrefix + name
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(key(name)))
}
