package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// ErrMissingAPIKey is returned by RequireWeather when no OpenWeatherMap key is set.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is not set")

// cronParser accepts six-field expressions (with seconds) and descriptors like @daily.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type AppConfig struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Weather   WeatherConfig
	Scheduler SchedulerConfig
	Store     StoreConfig
}

// WeatherConfig configures the OpenWeatherMap client.
type WeatherConfig struct {
	APIKey   string `envconfig:"OPENWEATHER_API_KEY"`
	BaseURL  string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"required,url"`
	Location string `envconfig:"WEATHER_LOCATION" default:"seoul" validate:"required"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s" validate:"gt=0"`
}

// SchedulerConfig controls the daily weather refresh.
type SchedulerConfig struct {
	RefreshCron    string        `envconfig:"WEATHER_REFRESH_CRON" default:"0 0 1 * * *" validate:"required"`
	Timezone       string        `envconfig:"SCHEDULER_TIMEZONE" default:"Local"`
	RefreshTimeout time.Duration `envconfig:"REFRESH_TIMEOUT" default:"30s" validate:"gt=0"`

	// Location is resolved from Timezone by Load.
	Location *time.Location `ignored:"true" validate:"-"`
}

// Now returns the current time in the scheduler's zone, so "today" for the
// weather cache is the same calendar day the refresh job fires on.
func (s SchedulerConfig) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"memory" validate:"oneof=memory mysql"`
	MySQL  MySQLConfig
}

type MySQLConfig struct {
	Host            string        `envconfig:"MYSQL_HOST" default:"127.0.0.1"`
	Port            int           `envconfig:"MYSQL_PORT" default:"3306" validate:"gt=0,lt=65536"`
	User            string        `envconfig:"MYSQL_USER" default:"root"`
	Password        string        `envconfig:"MYSQL_PASSWORD"`
	Database        string        `envconfig:"MYSQL_DATABASE" default:"weather"`
	MaxOpenConns    int           `envconfig:"MYSQL_MAX_OPEN_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MYSQL_CONN_MAX_LIFETIME" default:"30m"`
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := ParseCron(cfg.Scheduler.RefreshCron); err != nil {
		return nil, fmt.Errorf("invalid WEATHER_REFRESH_CRON: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE: %w", err)
	}
	cfg.Scheduler.Location = loc

	return &cfg, nil
}

// RequireWeather reports whether the weather client can be built from cfg.
func (c *AppConfig) RequireWeather() error {
	if c.Weather.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// SlogLevel maps LogLevel onto slog levels.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseCron parses a refresh expression in the six-field (seconds first) format.
func ParseCron(spec string) (cron.Schedule, error) {
	return cronParser.Parse(spec)
}
