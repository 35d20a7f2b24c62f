package store

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-diary/internal/diary"
	"github.com/i474232898/weather-diary/internal/weather"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewMySQLStore(sqlx.NewDb(db, "mysql")), mock
}

func TestMySQLStore_SaveWeather(t *testing.T) {
	s, mock := newMockStore(t)
	observed := time.Date(2024, 5, 20, 1, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO date_weather (date, weather, icon, temperature, observed_at) VALUES (?, ?, ?, ?, ?)")).
		WithArgs(day(2024, 5, 20), "Clear", "01d", 290.5, observed).
		WillReturnResult(sqlmock.NewResult(42, 1))

	rec, err := s.SaveWeather(context.Background(), weather.Record{
		Date:              observed,
		Condition:         "Clear",
		Icon:              "01d",
		TemperatureKelvin: 290.5,
		ObservedAt:        observed,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, day(2024, 5, 20), rec.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_FindWeatherByDate(t *testing.T) {
	observed := time.Date(2024, 5, 20, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantLen   int
		wantErr   bool
	}{
		{
			name: "returns rows ordered by id",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "date", "weather", "icon", "temperature", "observed_at"}).
					AddRow(1, day(2024, 5, 20), "Clear", "01d", 290.5, observed).
					AddRow(7, day(2024, 5, 20), "Rain", "10d", 285.0, observed)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, weather, icon, temperature, observed_at FROM date_weather WHERE date = ? ORDER BY id")).
					WithArgs(day(2024, 5, 20)).
					WillReturnRows(rows)
			},
			wantLen: 2,
		},
		{
			name: "no rows",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .* FROM date_weather").
					WillReturnRows(sqlmock.NewRows([]string{"id", "date", "weather", "icon", "temperature", "observed_at"}))
			},
			wantLen: 0,
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .* FROM date_weather").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.setupMock(mock)

			got, err := s.FindWeatherByDate(context.Background(), day(2024, 5, 20))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, int64(1), got[0].ID)
				assert.Equal(t, "Clear", got[0].Condition)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMySQLStore_AppendCopiesWeatherSnapshot(t *testing.T) {
	s, mock := newMockStore(t)
	observed := time.Date(2024, 5, 20, 1, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO diary (date, text, weather_id, weather, icon, temperature, weather_observed_at) VALUES (?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(day(2024, 5, 20), "went hiking", int64(9), "Clear", "01d", 290.5, observed).
		WillReturnResult(sqlmock.NewResult(3, 1))

	e, err := s.Append(context.Background(), diary.Entry{
		Date: day(2024, 5, 20),
		Text: "went hiking",
		Weather: weather.Record{
			ID: 9, Date: day(2024, 5, 20), Condition: "Clear", Icon: "01d", TemperatureKelvin: 290.5, ObservedAt: observed,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_FindByRange(t *testing.T) {
	s, mock := newMockStore(t)
	observed := time.Date(2024, 5, 20, 1, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "date", "text", "weather_id", "weather", "icon", "temperature", "weather_observed_at"}).
		AddRow(1, day(2024, 5, 19), "a", nil, "Clouds", "03d", 280.0, observed).
		AddRow(2, day(2024, 5, 20), "b", 9, "Clear", "01d", 290.5, observed)
	mock.ExpectQuery(regexp.QuoteMeta("FROM diary WHERE date BETWEEN ? AND ? ORDER BY date, id")).
		WithArgs(day(2024, 5, 19), day(2024, 5, 20)).
		WillReturnRows(rows)

	got, err := s.FindByRange(context.Background(), day(2024, 5, 19), day(2024, 5, 20))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].Text)
	assert.Equal(t, int64(0), got[0].Weather.ID)
	assert.Equal(t, "Clouds", got[0].Weather.Condition)
	assert.Equal(t, int64(9), got[1].Weather.ID)
	assert.InDelta(t, 290.5, got[1].Weather.TemperatureKelvin, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_UpdateFirstByDate(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "updates the lowest id row",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM diary WHERE date = ? ORDER BY id LIMIT 1 FOR UPDATE")).
					WithArgs(day(2024, 5, 20)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
				mock.ExpectExec(regexp.QuoteMeta("UPDATE diary SET text = ? WHERE id = ?")).
					WithArgs("new text", int64(3)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "no entry for date",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT id FROM diary").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectRollback()
			},
			wantErr: diary.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.setupMock(mock)

			err := s.UpdateFirstByDate(context.Background(), day(2024, 5, 20), "new text")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMySQLStore_DeleteAllByDate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM diary WHERE date = ?")).
		WithArgs(day(2024, 5, 20)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.DeleteAllByDate(context.Background(), day(2024, 5, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS date_weather").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(db, "mysql")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
