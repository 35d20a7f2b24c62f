package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-diary/internal/weather"
)

const seoulClear = `{
  "coord": {"lon": 126.9778, "lat": 37.5683},
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
  "main": {"temp": 283.15, "humidity": 40},
  "dt": 1700000000,
  "name": "Seoul"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenWeatherClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewOpenWeatherClient(&http.Client{Timeout: time.Second}, OpenWeatherConfig{
		BaseURL:  srv.URL,
		APIKey:   "test-key",
		Location: "seoul",
	})
	c.now = func() time.Time { return time.Date(2023, 11, 14, 22, 0, 0, 0, time.UTC) }
	return c
}

func TestOpenWeatherFetch(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("appid")
		_, _ = w.Write([]byte(seoulClear))
	})

	rec, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/weather", gotPath)
	assert.Equal(t, "seoul", gotQuery)
	assert.Equal(t, "test-key", gotKey)

	assert.Equal(t, "Clear", rec.Condition)
	assert.Equal(t, "01d", rec.Icon)
	assert.InDelta(t, 283.15, rec.TemperatureKelvin, 1e-9)
	assert.Equal(t, time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), rec.ObservedAt)
}

func TestOpenWeatherFetchNon200IsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	})

	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrUnavailable)
	assert.NotErrorIs(t, err, weather.ErrParse)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Invalid API key")
}

func TestOpenWeatherFetchTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx)
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestOpenWeatherFetchMissingKey(t *testing.T) {
	c := NewOpenWeatherClient(http.DefaultClient, OpenWeatherConfig{Location: "seoul"})

	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestParseOpenWeatherMalformed(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `falied to get response`},
		{name: "missing main", body: `{"weather":[{"main":"Clear","icon":"01d"}]}`},
		{name: "missing temp", body: `{"main":{},"weather":[{"main":"Clear","icon":"01d"}]}`},
		{name: "empty weather array", body: `{"main":{"temp":280.1},"weather":[]}`},
		{name: "missing icon", body: `{"main":{"temp":280.1},"weather":[{"main":"Rain"}]}`},
		{name: "temp wrong type", body: `{"main":{"temp":"warm"},"weather":[{"main":"Rain","icon":"10d"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOpenWeather([]byte(tt.body), now)
			assert.ErrorIs(t, err, weather.ErrParse)
			assert.NotErrorIs(t, err, weather.ErrUnavailable)
		})
	}
}

func TestParseOpenWeatherWithoutDtUsesNow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rec, err := parseOpenWeather([]byte(`{"main":{"temp":270},"weather":[{"main":"Snow","icon":"13d"}]}`), now)
	require.NoError(t, err)

	assert.Equal(t, now, rec.ObservedAt)
	assert.Equal(t, "Snow", rec.Condition)
}
