package diary

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-diary/internal/weather"
)

var (
	// ErrInvalidDate is returned for dates past MaxDate and for inverted ranges.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNotFound is returned when an update or delete targets a date with no entry.
	ErrNotFound = errors.New("no diary entry for date")
)

// MaxDate is the latest calendar date a diary entry may be written or read for.
var MaxDate = time.Date(3050, 1, 1, 0, 0, 0, 0, time.UTC)

// Entry is a single diary text for a date, with a snapshot of that day's weather.
type Entry struct {
	ID      int64          `json:"id"`
	Date    time.Time      `json:"date"` // calendar day, midnight UTC
	Text    string         `json:"text"`
	Weather weather.Record `json:"weather"`
}

// Store is the diary half of the persistence layer.
type Store interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	// FindByDate returns entries for the day in insertion order.
	FindByDate(ctx context.Context, date time.Time) ([]Entry, error)
	// FindByRange returns entries with start <= date <= end, ordered by date then insertion.
	FindByRange(ctx context.Context, start, end time.Time) ([]Entry, error)
	// UpdateFirstByDate rewrites the text of the earliest entry for the day.
	// It returns ErrNotFound when the day has no entry.
	UpdateFirstByDate(ctx context.Context, date time.Time, text string) error
	DeleteAllByDate(ctx context.Context, date time.Time) (int64, error)
}

// WeatherSource resolves the weather to attach to a new entry.
type WeatherSource interface {
	Get(ctx context.Context, date time.Time) (weather.Record, error)
}
