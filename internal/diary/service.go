package diary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/weather-diary/internal/common"
)

// Service orchestrates diary entries and the weather attached to them.
type Service struct {
	store   Store
	weather WeatherSource
}

// NewService creates a new Service.
func NewService(store Store, weather WeatherSource) *Service {
	return &Service{
		store:   store,
		weather: weather,
	}
}

// Create resolves the weather for date and appends a new entry tagged with it.
// Weather is resolved before anything is written, so a failed lookup leaves no entry.
func (s *Service) Create(ctx context.Context, date time.Time, text string) (Entry, error) {
	day := common.Day(date)
	if err := checkDate(day); err != nil {
		return Entry{}, err
	}

	slog.Info("creating diary entry", "date", common.FormatDate(day))

	rec, err := s.weather.Get(ctx, day)
	if err != nil {
		return Entry{}, fmt.Errorf("resolve weather for %s: %w", common.FormatDate(day), err)
	}

	entry, err := s.store.Append(ctx, Entry{Date: day, Text: text, Weather: rec})
	if err != nil {
		return Entry{}, fmt.Errorf("append diary entry: %w", err)
	}

	slog.Info("created diary entry", "date", common.FormatDate(day), "id", entry.ID)
	return entry, nil
}

// Read returns every entry for date in insertion order.
func (s *Service) Read(ctx context.Context, date time.Time) ([]Entry, error) {
	day := common.Day(date)
	if err := checkDate(day); err != nil {
		return nil, err
	}
	return s.store.FindByDate(ctx, day)
}

// ReadRange returns every entry dated within [start, end].
func (s *Service) ReadRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	from, to := common.Day(start), common.Day(end)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidDate, common.FormatDate(to), common.FormatDate(from))
	}
	return s.store.FindByRange(ctx, from, to)
}

// Update replaces the text of the first entry for date. Other entries for the
// same date are left untouched.
func (s *Service) Update(ctx context.Context, date time.Time, text string) error {
	day := common.Day(date)
	if err := s.store.UpdateFirstByDate(ctx, day, text); err != nil {
		return fmt.Errorf("update diary for %s: %w", common.FormatDate(day), err)
	}
	return nil
}

// Delete removes every entry for date and reports how many were removed.
func (s *Service) Delete(ctx context.Context, date time.Time) (int64, error) {
	day := common.Day(date)
	n, err := s.store.DeleteAllByDate(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("delete diary for %s: %w", common.FormatDate(day), err)
	}
	if n == 0 {
		return 0, fmt.Errorf("delete diary for %s: %w", common.FormatDate(day), ErrNotFound)
	}
	slog.Info("deleted diary entries", "date", common.FormatDate(day), "count", n)
	return n, nil
}

func checkDate(day time.Time) error {
	if day.After(MaxDate) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidDate, common.FormatDate(day), common.FormatDate(MaxDate))
	}
	return nil
}
