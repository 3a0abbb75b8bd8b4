package schedule

import (
	"testing"
	"time"

	"bookwise-backend/internal/models"
)

func osloDay(t *testing.T, date string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day, err := ResolveDate(date, loc)
	if err != nil {
		t.Fatalf("ResolveDate error: %v", err)
	}
	return day
}

func TestOpenIntervalsDefaultWeekday(t *testing.T) {
	day := osloDay(t, "2026-03-04") // Wednesday
	hours, err := OpenIntervals(nil, day)
	if err != nil {
		t.Fatalf("OpenIntervals error: %v", err)
	}
	if len(hours) != 1 {
		t.Fatalf("expected 1 open interval, got %d", len(hours))
	}
	if hours[0].Start.Hour() != 9 || hours[0].End.Hour() != 17 {
		t.Fatalf("expected 09:00-17:00, got %v", hours[0])
	}
}

func TestOpenIntervalsDefaultWeekendClosed(t *testing.T) {
	for _, date := range []string{"2026-03-07", "2026-03-08"} {
		hours, err := OpenIntervals(nil, osloDay(t, date))
		if err != nil {
			t.Fatalf("OpenIntervals error: %v", err)
		}
		if len(hours) != 0 {
			t.Fatalf("expected closed on %s, got %v", date, hours)
		}
	}
}

func TestOpenIntervalsConfiguredRule(t *testing.T) {
	day := osloDay(t, "2026-03-04")
	rules := []models.BusinessHoursRule{
		{ProviderID: "p1", DayOfWeek: 3, IsOpen: true, OpenTime: "08:00", CloseTime: "12:30"},
	}
	hours, err := OpenIntervals(rules, day)
	if err != nil {
		t.Fatalf("OpenIntervals error: %v", err)
	}
	if len(hours) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(hours))
	}
	if hours[0].Start.Hour() != 8 || hours[0].End.Hour() != 12 || hours[0].End.Minute() != 30 {
		t.Fatalf("unexpected interval: %v", hours[0])
	}
}

func TestOpenIntervalsRuleClosed(t *testing.T) {
	day := osloDay(t, "2026-03-04")
	rules := []models.BusinessHoursRule{
		{ProviderID: "p1", DayOfWeek: 3, IsOpen: false},
	}
	hours, err := OpenIntervals(rules, day)
	if err != nil {
		t.Fatalf("OpenIntervals error: %v", err)
	}
	if len(hours) != 0 {
		t.Fatalf("expected closed, got %v", hours)
	}
}

func TestOpenIntervalsMissingWeekdayClosed(t *testing.T) {
	// Rules exist for the provider, none for Wednesday: closed, not default.
	day := osloDay(t, "2026-03-04")
	rules := []models.BusinessHoursRule{
		{ProviderID: "p1", DayOfWeek: 1, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"},
	}
	hours, err := OpenIntervals(rules, day)
	if err != nil {
		t.Fatalf("OpenIntervals error: %v", err)
	}
	if len(hours) != 0 {
		t.Fatalf("expected closed, got %v", hours)
	}
}

func TestOpenIntervalsInvalidRule(t *testing.T) {
	day := osloDay(t, "2026-03-04")
	rules := []models.BusinessHoursRule{
		{ProviderID: "p1", DayOfWeek: 3, IsOpen: true, OpenTime: "17:00", CloseTime: "09:00"},
	}
	if _, err := OpenIntervals(rules, day); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}
