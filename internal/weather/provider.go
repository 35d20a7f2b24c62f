package weather

import (
	"context"
	"time"
)

// Client abstracts the external weather source for the single configured location.
type Client interface {
	Name() string
	Fetch(ctx context.Context) (Record, error)
}

// Store is the weather half of the persistence layer.
type Store interface {
	SaveWeather(ctx context.Context, rec Record) (Record, error)
	// FindWeatherByDate returns every record for the day ordered by ID ascending.
	FindWeatherByDate(ctx context.Context, date time.Time) ([]Record, error)
}
