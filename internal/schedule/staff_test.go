package schedule

import (
	"testing"

	"bookwise-backend/internal/models"
)

func window(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{Start: at(t, start), End: at(t, end)}
}

// exact builds a candidate without buffers, offered == effective.
func exact(iv Interval) Candidate {
	return Candidate{Offered: iv, Effective: iv}
}

func booked(staffID, status string, iv Interval) models.Booking {
	return models.Booking{
		StaffID:     staffID,
		Status:      status,
		StartTime:   iv.Start,
		EndTime:     iv.End,
		BufferStart: iv.Start,
		BufferEnd:   iv.End,
	}
}

func TestFreeStaffBookingConflict(t *testing.T) {
	staff := []models.StaffMember{
		{ID: "s1", IsActive: true},
		{ID: "s2", IsActive: true},
	}
	w := window(t, "2026-03-04T09:00:00Z", "2026-03-04T10:00:00Z")
	hours := []Interval{window(t, "2026-03-04T08:00:00Z", "2026-03-04T16:00:00Z")}
	bookings := []models.Booking{booked("s1", models.BookingStatusConfirmed, w)}

	free := FreeStaff(staff, exact(w), bookings, nil, hours)
	if len(free) != 1 || free[0].ID != "s2" {
		t.Fatalf("expected only s2 free, got %v", free)
	}

	bookings = append(bookings, booked("s2", models.BookingStatusPending, w))
	if free := FreeStaff(staff, exact(w), bookings, nil, hours); len(free) != 0 {
		t.Fatalf("expected no free staff, got %v", free)
	}
}

func TestFreeStaffCancelledBookingIgnored(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1", IsActive: true}}
	w := window(t, "2026-03-04T09:00:00Z", "2026-03-04T10:00:00Z")
	hours := []Interval{window(t, "2026-03-04T08:00:00Z", "2026-03-04T16:00:00Z")}
	bookings := []models.Booking{booked("s1", models.BookingStatusCancelled, w)}

	if free := FreeStaff(staff, exact(w), bookings, nil, hours); len(free) != 1 {
		t.Fatalf("cancelled booking must not block staff")
	}
}

func TestFreeStaffUnavailableOverride(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1", IsActive: true}}
	w := window(t, "2026-03-04T09:00:00Z", "2026-03-04T10:00:00Z")
	hours := []Interval{window(t, "2026-03-04T08:00:00Z", "2026-03-04T16:00:00Z")}
	overrides := []models.StaffAvailability{
		{StaffID: "s1", Type: models.OverrideUnavailable, Start: at(t, "2026-03-04T09:30:00Z"), End: at(t, "2026-03-04T11:00:00Z")},
	}

	if free := FreeStaff(staff, exact(w), nil, overrides, hours); len(free) != 0 {
		t.Fatalf("unavailable override must block staff")
	}
}

func TestFreeStaffAvailableOverrideOutsideHours(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1", IsActive: true}}
	w := window(t, "2026-03-04T18:00:00Z", "2026-03-04T19:00:00Z")
	hours := []Interval{window(t, "2026-03-04T08:00:00Z", "2026-03-04T16:00:00Z")}

	// Outside provider hours and no override: busy.
	if free := FreeStaff(staff, exact(w), nil, nil, hours); len(free) != 0 {
		t.Fatalf("staff must inherit provider hours")
	}

	// An AVAILABLE override covering the whole window makes the staff free.
	overrides := []models.StaffAvailability{
		{StaffID: "s1", Type: models.OverrideAvailable, Start: at(t, "2026-03-04T17:00:00Z"), End: at(t, "2026-03-04T20:00:00Z")},
	}
	if free := FreeStaff(staff, exact(w), nil, overrides, hours); len(free) != 1 {
		t.Fatalf("available override must free staff outside hours")
	}

	// A partial AVAILABLE override does not cover the window.
	partial := []models.StaffAvailability{
		{StaffID: "s1", Type: models.OverrideAvailable, Start: at(t, "2026-03-04T17:00:00Z"), End: at(t, "2026-03-04T18:30:00Z")},
	}
	if free := FreeStaff(staff, exact(w), nil, partial, hours); len(free) != 0 {
		t.Fatalf("partial available override must not free staff")
	}
}

func TestFreeStaffBufferMayBleedBeforeOpening(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1", IsActive: true}}
	hours := []Interval{window(t, "2026-03-04T09:00:00Z", "2026-03-04T17:00:00Z")}

	// First slot of the day with a 15-minute buffer-before: the offered
	// window sits at opening, the effective window starts before it. The
	// buffer is prep time, not schedule time, so a free roster stays free.
	c := Candidate{
		Offered:   window(t, "2026-03-04T09:00:00Z", "2026-03-04T10:00:00Z"),
		Effective: window(t, "2026-03-04T08:45:00Z", "2026-03-04T10:00:00Z"),
	}
	if free := FreeStaff(staff, c, nil, nil, hours); len(free) != 1 {
		t.Fatalf("buffer before opening must not mark staff busy, free=%v", free)
	}

	// A booking overlapping only the buffer span still conflicts.
	bookings := []models.Booking{booked("s1", models.BookingStatusConfirmed, window(t, "2026-03-04T08:00:00Z", "2026-03-04T08:50:00Z"))}
	if free := FreeStaff(staff, c, bookings, nil, hours); len(free) != 0 {
		t.Fatalf("booking overlapping the buffer must block staff, free=%v", free)
	}
}

func TestFreeStaffSkipsInactive(t *testing.T) {
	staff := []models.StaffMember{{ID: "s1", IsActive: false}}
	w := window(t, "2026-03-04T09:00:00Z", "2026-03-04T10:00:00Z")
	hours := []Interval{window(t, "2026-03-04T08:00:00Z", "2026-03-04T16:00:00Z")}
	if free := FreeStaff(staff, exact(w), nil, nil, hours); len(free) != 0 {
		t.Fatalf("inactive staff must not be free")
	}
}

func TestPickFirstFreeOrdersByID(t *testing.T) {
	staff := []models.StaffMember{
		{ID: "s9", IsActive: true},
		{ID: "s2", IsActive: true},
		{ID: "s5", IsActive: true},
	}
	w := window(t, "2026-03-04T09:00:00Z", "2026-03-04T10:00:00Z")
	hours := []Interval{window(t, "2026-03-04T08:00:00Z", "2026-03-04T16:00:00Z")}

	pick, ok := PickFirstFree(staff, exact(w), nil, nil, hours)
	if !ok || pick.ID != "s2" {
		t.Fatalf("expected s2 picked first, got %v ok=%v", pick.ID, ok)
	}

	bookings := []models.Booking{booked("s2", models.BookingStatusConfirmed, w)}
	pick, ok = PickFirstFree(staff, exact(w), bookings, nil, hours)
	if !ok || pick.ID != "s5" {
		t.Fatalf("expected s5 picked next, got %v ok=%v", pick.ID, ok)
	}
}
