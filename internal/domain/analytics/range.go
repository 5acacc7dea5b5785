package analytics

import (
	"fmt"
	"time"
)

// DefaultRangeDays is the lookback window applied when a request names no
// explicit date range.
const DefaultRangeDays = 30

// DateRange is a closed [From, To] interval at day granularity, UTC.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange truncates both endpoints to day granularity in UTC.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{
		From: truncateToDay(from),
		To:   truncateToDay(to),
	}
}

// DefaultRange returns [now-30d, now] at day granularity.
func DefaultRange(now time.Time) DateRange {
	return NewDateRange(now.AddDate(0, 0, -DefaultRangeDays), now)
}

// Validate rejects inverted ranges. This is the only request-shape error
// that ever reaches an API caller.
func (r DateRange) Validate() error {
	if r.From.After(r.To) {
		return fmt.Errorf("invalid date range: from %s is after to %s",
			r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	}
	return nil
}

// Contains reports whether r fully covers other. Partial overlap counts
// as not contained.
func (r DateRange) Contains(other DateRange) bool {
	return !r.From.After(other.From) && !r.To.Before(other.To)
}

// Key is the canonical string form used for cache and coalescing keys.
func (r DateRange) Key() string {
	return r.From.Format("2006-01-02") + ":" + r.To.Format("2006-01-02")
}

// Days returns the number of calendar days covered, inclusive.
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
