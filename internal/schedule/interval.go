package schedule

import (
	"errors"
	"time"
)

var (
	ErrInvalidDate      = errors.New("invalid date format")
	ErrInvalidTime      = errors.New("invalid time format")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrNotFound         = errors.New("not found")
	ErrPrecondition     = errors.New("precondition violation")
)

// Interval is a half-open window [Start, End) on absolute instants. Touching
// endpoints do not overlap. All interval arithmetic in this package happens on
// instants; local-time conversion is done once per request at the boundary
// (ResolveDate / clockOnDay) and never repeated downstream.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Within reports whether iv lies entirely inside outer.
func (iv Interval) Within(outer Interval) bool {
	return !iv.Start.Before(outer.Start) && !iv.End.After(outer.End)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Expand widens the interval by the given buffers; used to turn an offered
// window into the effective window checked for conflicts.
func (iv Interval) Expand(before, after time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-before), End: iv.End.Add(after)}
}

// ResolveDate parses a YYYY-MM-DD calendar date as local midnight in loc.
func ResolveDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// clockOnDay places an HH:MM wall-clock time on the given day. The day carries
// the location, so DST transitions resolve the way the provider's clock does.
func clockOnDay(day time.Time, clock string) (time.Time, error) {
	tm, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tm.Hour(), tm.Minute(), 0, 0, day.Location()), nil
}

// ParseClockToMinutes converts HH:MM to minutes from midnight.
func ParseClockToMinutes(clock string) (int, error) {
	tm, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}
