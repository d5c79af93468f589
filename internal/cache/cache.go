package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultRecentCount is the recent-events page size served and cached by
// default. Writers invalidate the key built from this count, so only views
// using it are ever cached.
const DefaultRecentCount = 5

// Cache is the read-side cache the API and scheduler share. Implementations
// must treat a missing key as ErrMiss, not as an error condition.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// ErrMiss is returned by GetJSON when the key does not exist.
var ErrMiss = fmt.Errorf("cache: miss")

// RecentEventsKey caches the recent-events view for a date and limit.
func RecentEventsKey(date time.Time, limit int) string {
	return fmt.Sprintf("recent_events_%s_%d", date.Format("2006-01-02"), limit)
}

// DailyEventsKey caches the full-day view for a date.
func DailyEventsKey(date time.Time) string {
	return fmt.Sprintf("daily_events_%s", date.Format("2006-01-02"))
}

// CategoryKey caches the per-category view for a date. The name is lowered so
// "Política" and "política" share one entry, matching the case-insensitive
// category lookup.
func CategoryKey(category string, date time.Time) string {
	return fmt.Sprintf("events_category_%s_%s", strings.ToLower(category), date.Format("2006-01-02"))
}

// UntilNextSixAM returns how long a value cached now should live so it
// expires shortly before the morning traffic, after the nightly data has
// rolled over.
func UntilNextSixAM(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
