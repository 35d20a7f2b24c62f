package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-diary/internal/common"
	"github.com/i474232898/weather-diary/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap API root; "/weather" is appended.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherConfig carries everything the client needs; nothing is read from globals.
type OpenWeatherConfig struct {
	BaseURL  string
	APIKey   string
	Location string
}

// OpenWeatherClient implements weather.Client for OpenWeatherMap current weather.
type OpenWeatherClient struct {
	name    string
	cfg     OpenWeatherConfig
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenWeatherClient(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherClient{
		name:    "openweathermap",
		cfg:     cfg,
		client:  client,
		circuit: newCircuitBreaker("openweather"),
		now:     time.Now,
	}
}

func (p *OpenWeatherClient) Name() string {
	return p.name
}

// Fetch returns the current observation for the configured location.
func (p *OpenWeatherClient) Fetch(ctx context.Context) (weather.Record, error) {
	if p.cfg.APIKey == "" {
		return weather.Record{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrUnavailable)
	}

	values := url.Values{}
	values.Set("q", p.cfg.Location)
	values.Set("appid", p.cfg.APIKey)

	u := fmt.Sprintf("%s/weather?%s", strings.TrimRight(p.cfg.BaseURL, "/"), values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.Record{}, fmt.Errorf("%w: build request: %v", weather.ErrUnavailable, err)
	}

	body, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.Record{}, err
	}

	return parseOpenWeather(body, p.now())
}

// parseOpenWeather extracts weather[0].main, weather[0].icon and main.temp.
// Missing fields are a parse error, never a zero value.
func parseOpenWeather(body []byte, now time.Time) (weather.Record, error) {
	var payload struct {
		Dt   int64 `json:"dt"`
		Main *struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
			Icon string `json:"icon"`
		} `json:"weather"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Record{}, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}
	if payload.Main == nil || payload.Main.Temp == nil {
		return weather.Record{}, fmt.Errorf("%w: missing main.temp", weather.ErrParse)
	}
	if len(payload.Weather) == 0 {
		return weather.Record{}, fmt.Errorf("%w: missing weather[0]", weather.ErrParse)
	}
	current := payload.Weather[0]
	if current.Main == "" {
		return weather.Record{}, fmt.Errorf("%w: missing weather[0].main", weather.ErrParse)
	}
	if current.Icon == "" {
		return weather.Record{}, fmt.Errorf("%w: missing weather[0].icon", weather.ErrParse)
	}

	observedAt := now.UTC()
	if payload.Dt > 0 {
		observedAt = time.Unix(payload.Dt, 0).UTC()
	}

	return weather.Record{
		Date:              common.Day(now),
		Condition:         current.Main,
		Icon:              current.Icon,
		TemperatureKelvin: *payload.Main.Temp,
		ObservedAt:        observedAt,
	}, nil
}
