// Package store holds the persistence implementations for weather records and
// diary entries: an in-memory store for tests and single-process use, and a
// MySQL store for durable deployments.
package store

import (
	"github.com/i474232898/weather-diary/internal/diary"
	"github.com/i474232898/weather-diary/internal/weather"
)

var (
	_ weather.Store = (*MemoryStore)(nil)
	_ diary.Store   = (*MemoryStore)(nil)
	_ weather.Store = (*MySQLStore)(nil)
	_ diary.Store   = (*MySQLStore)(nil)
)
