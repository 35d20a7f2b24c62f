package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/i474232898/weather-diary/internal/common"
	"github.com/i474232898/weather-diary/internal/diary"
	"github.com/i474232898/weather-diary/internal/weather"
)

const (
	weatherColumns = "id, date, weather, icon, temperature, observed_at"
	diaryColumns   = "id, date, text, weather_id, weather, icon, temperature, weather_observed_at"
)

// diaryRow is the flattened diary table row; the weather snapshot is copied
// into the row rather than joined.
type diaryRow struct {
	ID          int64         `db:"id"`
	Date        time.Time     `db:"date"`
	Text        string        `db:"text"`
	WeatherID   sql.NullInt64 `db:"weather_id"`
	Weather     string        `db:"weather"`
	Icon        string        `db:"icon"`
	Temperature float64       `db:"temperature"`
	ObservedAt  time.Time     `db:"weather_observed_at"`
}

func (r diaryRow) toEntry() diary.Entry {
	return diary.Entry{
		ID:   r.ID,
		Date: common.Day(r.Date),
		Text: r.Text,
		Weather: weather.Record{
			ID:                r.WeatherID.Int64,
			Date:              common.Day(r.Date),
			Condition:         r.Weather,
			Icon:              r.Icon,
			TemperatureKelvin: r.Temperature,
			ObservedAt:        r.ObservedAt,
		},
	}
}

// MySQLStore implements the weather and diary stores on MySQL.
type MySQLStore struct {
	db *sqlx.DB
}

// NewMySQLStore creates a new MySQLStore.
func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) SaveWeather(ctx context.Context, rec weather.Record) (weather.Record, error) {
	rec.Date = common.Day(rec.Date)

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO date_weather (date, weather, icon, temperature, observed_at) VALUES (?, ?, ?, ?, ?)",
		rec.Date, rec.Condition, rec.Icon, rec.TemperatureKelvin, rec.ObservedAt,
	)
	if err != nil {
		return weather.Record{}, fmt.Errorf("insert weather: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return weather.Record{}, fmt.Errorf("read weather id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

func (s *MySQLStore) FindWeatherByDate(ctx context.Context, date time.Time) ([]weather.Record, error) {
	var recs []weather.Record
	query := "SELECT " + weatherColumns + " FROM date_weather WHERE date = ? ORDER BY id"
	if err := s.db.SelectContext(ctx, &recs, query, common.Day(date)); err != nil {
		return nil, fmt.Errorf("select weather: %w", err)
	}
	for i := range recs {
		recs[i].Date = common.Day(recs[i].Date)
	}
	return recs, nil
}

func (s *MySQLStore) Append(ctx context.Context, e diary.Entry) (diary.Entry, error) {
	e.Date = common.Day(e.Date)
	weatherID := sql.NullInt64{Int64: e.Weather.ID, Valid: e.Weather.ID != 0}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO diary (date, text, weather_id, weather, icon, temperature, weather_observed_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.Date, e.Text, weatherID, e.Weather.Condition, e.Weather.Icon, e.Weather.TemperatureKelvin, e.Weather.ObservedAt,
	)
	if err != nil {
		return diary.Entry{}, fmt.Errorf("insert diary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return diary.Entry{}, fmt.Errorf("read diary id: %w", err)
	}
	e.ID = id
	return e, nil
}

func (s *MySQLStore) FindByDate(ctx context.Context, date time.Time) ([]diary.Entry, error) {
	query := "SELECT " + diaryColumns + " FROM diary WHERE date = ? ORDER BY id"
	return s.selectEntries(ctx, query, common.Day(date))
}

func (s *MySQLStore) FindByRange(ctx context.Context, from, to time.Time) ([]diary.Entry, error) {
	query := "SELECT " + diaryColumns + " FROM diary WHERE date BETWEEN ? AND ? ORDER BY date, id"
	return s.selectEntries(ctx, query, common.Day(from), common.Day(to))
}

// UpdateFirstByDate locks the lowest-ID row for the day and rewrites its text.
func (s *MySQLStore) UpdateFirstByDate(ctx context.Context, date time.Time, text string) error {
	return RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, "SELECT id FROM diary WHERE date = ? ORDER BY id LIMIT 1 FOR UPDATE", common.Day(date))
		if errors.Is(err, sql.ErrNoRows) {
			return diary.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select first diary: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE diary SET text = ? WHERE id = ?", text, id); err != nil {
			return fmt.Errorf("update diary %d: %w", id, err)
		}
		return nil
	})
}

func (s *MySQLStore) DeleteAllByDate(ctx context.Context, date time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM diary WHERE date = ?", common.Day(date))
	if err != nil {
		return 0, fmt.Errorf("delete diary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted count: %w", err)
	}
	return n, nil
}

func (s *MySQLStore) selectEntries(ctx context.Context, query string, args ...interface{}) ([]diary.Entry, error) {
	var rows []diaryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select diary: %w", err)
	}
	entries := make([]diary.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}
