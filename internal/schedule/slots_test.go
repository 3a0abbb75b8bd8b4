package schedule

import (
	"testing"

	"bookwise-backend/internal/models"
)

func openNineToFive(t *testing.T) []Interval {
	t.Helper()
	day := osloDay(t, "2026-03-04")
	hours, err := OpenIntervals(nil, day)
	if err != nil {
		t.Fatalf("OpenIntervals error: %v", err)
	}
	return hours
}

func TestCandidatesBackToBack(t *testing.T) {
	svc := models.Service{DurationMinutes: 60, MaxConcurrent: 1}
	cands := Candidates(svc, openNineToFive(t))
	if len(cands) != 8 {
		t.Fatalf("expected 8 candidates, got %d", len(cands))
	}
	if cands[0].Offered.Start.Hour() != 9 {
		t.Fatalf("expected first slot at 09:00, got %v", cands[0].Offered.Start)
	}
	if cands[7].Offered.End.Hour() != 17 {
		t.Fatalf("expected last slot to end at 17:00, got %v", cands[7].Offered.End)
	}
	// Full coverage, no gaps: each slot starts where the previous ended.
	for i := 1; i < len(cands); i++ {
		if !cands[i].Offered.Start.Equal(cands[i-1].Offered.End) {
			t.Fatalf("gap between slot %d and %d", i-1, i)
		}
	}
}

func TestCandidatesBufferAfterBoundsClosing(t *testing.T) {
	svc := models.Service{DurationMinutes: 60, BufferAfterMinutes: 30, MaxConcurrent: 1}
	cands := Candidates(svc, openNineToFive(t))
	// 16:00 would need until 17:30 including the buffer, so 15:00 is the last start.
	if len(cands) != 7 {
		t.Fatalf("expected 7 candidates, got %d", len(cands))
	}
	last := cands[len(cands)-1]
	if last.Offered.Start.Hour() != 15 {
		t.Fatalf("expected last start 15:00, got %v", last.Offered.Start)
	}
	if last.Effective.End.Hour() != 16 || last.Effective.End.Minute() != 30 {
		t.Fatalf("expected last effective end 16:30, got %v", last.Effective.End)
	}
}

func TestCandidatesBufferBeforeBleedsBeforeOpening(t *testing.T) {
	// Buffer-before is provider prep time and may extend before opening; the
	// first offered slot still starts at 09:00.
	svc := models.Service{DurationMinutes: 60, BufferBeforeMinutes: 15, MaxConcurrent: 1}
	cands := Candidates(svc, openNineToFive(t))
	if len(cands) == 0 {
		t.Fatalf("expected candidates")
	}
	first := cands[0]
	if first.Offered.Start.Hour() != 9 || first.Offered.Start.Minute() != 0 {
		t.Fatalf("expected first offered 09:00, got %v", first.Offered.Start)
	}
	if first.Effective.Start.Hour() != 8 || first.Effective.Start.Minute() != 45 {
		t.Fatalf("expected first effective 08:45, got %v", first.Effective.Start)
	}
}

func TestCandidatesFinerStride(t *testing.T) {
	svc := models.Service{DurationMinutes: 60, SlotIntervalMinutes: 30, MaxConcurrent: 1}
	cands := Candidates(svc, openNineToFive(t))
	// Starts 09:00 through 16:00 every 30 minutes.
	if len(cands) != 15 {
		t.Fatalf("expected 15 candidates, got %d", len(cands))
	}
	if cands[1].Offered.Start.Minute() != 30 {
		t.Fatalf("expected second start at 09:30, got %v", cands[1].Offered.Start)
	}
}

func TestCandidatesClosedDay(t *testing.T) {
	svc := models.Service{DurationMinutes: 60, MaxConcurrent: 1}
	if cands := Candidates(svc, nil); len(cands) != 0 {
		t.Fatalf("expected no candidates on a closed day, got %d", len(cands))
	}
}

func TestCandidatesServiceLongerThanOpenSpan(t *testing.T) {
	day := osloDay(t, "2026-03-04")
	short, err := OpenIntervals([]models.BusinessHoursRule{
		{DayOfWeek: 3, IsOpen: true, OpenTime: "09:00", CloseTime: "10:00"},
	}, day)
	if err != nil {
		t.Fatalf("OpenIntervals error: %v", err)
	}
	svc := models.Service{DurationMinutes: 60, BufferAfterMinutes: 15, MaxConcurrent: 1}
	if cands := Candidates(svc, short); len(cands) != 0 {
		t.Fatalf("expected no candidates, got %d", len(cands))
	}
}
