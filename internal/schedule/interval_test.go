package schedule

import (
	"testing"
	"time"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func TestOverlapsHalfOpen(t *testing.T) {
	a := Interval{Start: at(t, "2026-03-04T09:00:00Z"), End: at(t, "2026-03-04T10:00:00Z")}
	b := Interval{Start: at(t, "2026-03-04T10:00:00Z"), End: at(t, "2026-03-04T11:00:00Z")}
	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatalf("touching intervals must not overlap")
	}

	c := Interval{Start: at(t, "2026-03-04T09:30:00Z"), End: at(t, "2026-03-04T10:30:00Z")}
	if !a.Overlaps(c) || !c.Overlaps(a) {
		t.Fatalf("expected overlap")
	}
}

func TestContains(t *testing.T) {
	iv := Interval{Start: at(t, "2026-03-04T09:00:00Z"), End: at(t, "2026-03-04T10:00:00Z")}
	if !iv.Contains(iv.Start) {
		t.Fatalf("start must be contained")
	}
	if iv.Contains(iv.End) {
		t.Fatalf("end must not be contained")
	}
}

func TestWithin(t *testing.T) {
	outer := Interval{Start: at(t, "2026-03-04T09:00:00Z"), End: at(t, "2026-03-04T17:00:00Z")}
	inner := Interval{Start: at(t, "2026-03-04T09:00:00Z"), End: at(t, "2026-03-04T17:00:00Z")}
	if !inner.Within(outer) {
		t.Fatalf("equal interval must be within")
	}
	late := Interval{Start: at(t, "2026-03-04T16:30:00Z"), End: at(t, "2026-03-04T17:30:00Z")}
	if late.Within(outer) {
		t.Fatalf("interval past closing must not be within")
	}
}

func TestExpand(t *testing.T) {
	iv := Interval{Start: at(t, "2026-03-04T09:00:00Z"), End: at(t, "2026-03-04T10:00:00Z")}
	got := iv.Expand(15*time.Minute, 30*time.Minute)
	if !got.Start.Equal(at(t, "2026-03-04T08:45:00Z")) || !got.End.Equal(at(t, "2026-03-04T10:30:00Z")) {
		t.Fatalf("unexpected expanded interval: %v", got)
	}
}

func TestResolveDate(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day, err := ResolveDate("2026-03-04", loc)
	if err != nil {
		t.Fatalf("ResolveDate error: %v", err)
	}
	if day.Hour() != 0 || day.Location() != loc {
		t.Fatalf("expected local midnight, got %v", day)
	}

	if _, err := ResolveDate("04/03/2026", loc); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseClockToMinutes(t *testing.T) {
	minutes, err := ParseClockToMinutes("09:30")
	if err != nil {
		t.Fatalf("ParseClockToMinutes error: %v", err)
	}
	if minutes != 570 {
		t.Fatalf("expected 570, got %d", minutes)
	}
	if _, err := ParseClockToMinutes("9h30"); err != ErrInvalidTime {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}
