package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-diary/internal/common"
)

const (
	defaultFetchTimeout = 5 * time.Second
	// saveTimeout bounds the store write after a fetch; it starts once the
	// fetch has returned.
	saveTimeout = 5 * time.Second
)

// Cache is a read-through, day-keyed cache of weather observations backed by Store.
//
// A miss fetches the current observation from Client and persists it under the
// requested day, so later lookups for that day never reach the network. Misses
// for the same day are collapsed into one fetch; misses for different days
// proceed independently.
type Cache struct {
	store  Store
	client Client
	flight singleflight.Group

	now          func() time.Time
	fetchTimeout time.Duration
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the clock used to decide what "today" is.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// WithFetchTimeout bounds a single outbound fetch.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewCache creates a new Cache.
func NewCache(store Store, client Client, opts ...CacheOption) *Cache {
	c := &Cache{
		store:        store,
		client:       client,
		now:          time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored record for date, or fetches, stores and returns the
// current observation when nothing is stored for that day yet.
//
// The fetch runs detached from ctx: if the caller gives up, Get returns
// ctx.Err() but the in-flight fetch still completes and is cached.
func (c *Cache) Get(ctx context.Context, date time.Time) (Record, error) {
	day := common.Day(date)

	rec, ok, err := c.lookup(ctx, day)
	if err != nil {
		return Record{}, err
	}
	if ok {
		return rec, nil
	}

	key := common.FormatDate(day)
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		detached := context.WithoutCancel(ctx)
		fetchCtx, cancel := context.WithTimeout(detached, c.fetchTimeout)
		defer cancel()

		// Another flight for this day may have stored a record since our lookup.
		if rec, ok, err := c.lookup(fetchCtx, day); err != nil || ok {
			return rec, err
		}

		slog.Info("weather cache miss; fetching current observation", "date", key, "provider", c.client.Name())
		rec, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		rec.Date = day
		return c.save(detached, rec)
	})

	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Record{}, res.Err
		}
		return res.Val.(Record), nil
	}
}

// Refresh fetches the current observation and stores it under today's date
// without looking at what is already stored.
func (c *Cache) Refresh(ctx context.Context) (Record, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	rec, err := c.fetch(fetchCtx)
	if err != nil {
		return Record{}, err
	}
	rec.Date = common.Day(c.now())
	return c.save(ctx, rec)
}

func (c *Cache) save(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	saved, err := c.store.SaveWeather(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("save weather for %s: %w", common.FormatDate(rec.Date), err)
	}
	return saved, nil
}

func (c *Cache) lookup(ctx context.Context, day time.Time) (Record, bool, error) {
	recs, err := c.store.FindWeatherByDate(ctx, day)
	if err != nil {
		return Record{}, false, fmt.Errorf("find weather for %s: %w", common.FormatDate(day), err)
	}
	if len(recs) == 0 {
		return Record{}, false, nil
	}
	return recs[0], true, nil
}

func (c *Cache) fetch(ctx context.Context) (Record, error) {
	rec, err := c.client.Fetch(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("fetch weather from %s: %w", c.client.Name(), err)
	}
	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = c.now().UTC()
	}
	return rec, nil
}
