package weather

import (
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned when the provider cannot be reached, times out,
	// or answers with a non-200 status.
	ErrUnavailable = errors.New("weather unavailable")

	// ErrParse is returned when the provider answers with a body that does not
	// carry the expected fields.
	ErrParse = errors.New("weather response malformed")
)

// Record is one weather observation, keyed by calendar date.
// Records are never mutated after they are stored.
type Record struct {
	ID                int64     `json:"id" db:"id"`
	Date              time.Time `json:"date" db:"date"` // calendar day, midnight UTC
	Condition         string    `json:"weather" db:"weather"`
	Icon              string    `json:"icon" db:"icon"`
	TemperatureKelvin float64   `json:"temperature" db:"temperature"`

	// ObservedAt is when the provider was actually queried. It differs from
	// Date when a miss for a past or future date was filled with the current
	// observation.
	ObservedAt time.Time `json:"observedAt" db:"observed_at"`
}
