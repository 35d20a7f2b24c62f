package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/i474232898/weather-diary/internal/config"
	"github.com/i474232898/weather-diary/internal/diary"
	"github.com/i474232898/weather-diary/internal/store"
	"github.com/i474232898/weather-diary/internal/weather"
	"github.com/i474232898/weather-diary/internal/weather/providers"
)

// backingStore is what every store implementation provides.
type backingStore interface {
	weather.Store
	diary.Store
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	return cfg, nil
}

// openStore returns the configured store and a function releasing its resources.
func openStore(ctx context.Context, cfg *config.AppConfig) (backingStore, func() error, error) {
	switch cfg.Store.Driver {
	case "mysql":
		db, err := store.OpenMySQL(cfg.Store.MySQL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql at %s:%d: %w", cfg.Store.MySQL.Host, cfg.Store.MySQL.Port, err)
		}
		return store.NewMySQLStore(db), db.Close, nil
	default:
		slog.Warn("using in-memory store; diary entries are lost on restart")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}
}

func newWeatherCache(cfg *config.AppConfig, st weather.Store) *weather.Cache {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.Weather.HTTPTimeout,
	}

	client := providers.NewOpenWeatherClient(httpClient, providers.OpenWeatherConfig{
		BaseURL:  cfg.Weather.BaseURL,
		APIKey:   cfg.Weather.APIKey,
		Location: cfg.Weather.Location,
	})

	return weather.NewCache(st, client,
		weather.WithClock(cfg.Scheduler.Now),
		weather.WithFetchTimeout(cfg.Weather.HTTPTimeout),
	)
}
