package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-diary/internal/common"
	"github.com/i474232898/weather-diary/internal/diary"
	"github.com/i474232898/weather-diary/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of both the
// weather and the diary stores. IDs are assigned from per-table counters, so
// ascending ID is insertion order.
type MemoryStore struct {
	mu sync.RWMutex

	weather   []weather.Record
	entries   []diary.Entry
	weatherID int64
	entryID   int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveWeather appends a weather record and assigns its ID.
func (s *MemoryStore) SaveWeather(_ context.Context, rec weather.Record) (weather.Record, error) {
	rec.Date = common.Day(rec.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.weatherID++
	rec.ID = s.weatherID
	s.weather = append(s.weather, rec)
	return rec, nil
}

// FindWeatherByDate returns all records for the day, lowest ID first.
func (s *MemoryStore) FindWeatherByDate(_ context.Context, date time.Time) ([]weather.Record, error) {
	day := common.Day(date)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Record
	for _, rec := range s.weather {
		if rec.Date.Equal(day) {
			result = append(result, rec)
		}
	}
	return result, nil
}

// Append stores a new diary entry and assigns its ID.
func (s *MemoryStore) Append(_ context.Context, e diary.Entry) (diary.Entry, error) {
	e.Date = common.Day(e.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entryID++
	e.ID = s.entryID
	s.entries = append(s.entries, e)
	return e, nil
}

// FindByDate returns the entries for the day in insertion order.
func (s *MemoryStore) FindByDate(_ context.Context, date time.Time) ([]diary.Entry, error) {
	day := common.Day(date)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []diary.Entry{}
	for _, e := range s.entries {
		if e.Date.Equal(day) {
			result = append(result, e)
		}
	}
	return result, nil
}

// FindByRange returns entries between from and to (inclusive), ordered by date
// and then by insertion.
func (s *MemoryStore) FindByRange(_ context.Context, from, to time.Time) ([]diary.Entry, error) {
	start, end := common.Day(from), common.Day(to)

	s.mu.RLock()
	result := []diary.Entry{}
	for _, e := range s.entries {
		if !e.Date.Before(start) && !e.Date.After(end) {
			result = append(result, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// UpdateFirstByDate replaces the text of the lowest-ID entry for the day.
func (s *MemoryStore) UpdateFirstByDate(_ context.Context, date time.Time, text string) error {
	day := common.Day(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].Date.Equal(day) {
			s.entries[i].Text = text
			return nil
		}
	}
	return diary.ErrNotFound
}

// DeleteAllByDate removes every entry for the day.
func (s *MemoryStore) DeleteAllByDate(_ context.Context, date time.Time) (int64, error) {
	day := common.Day(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var removed int64
	for _, e := range s.entries {
		if e.Date.Equal(day) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}
