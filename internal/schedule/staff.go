package schedule

import (
	"sort"

	"bookwise-backend/internal/models"
)

// FreeStaff returns the eligible staff members free for the candidate window,
// ordered by id so that assignment is deterministic.
//
// Conflicts are judged against the effective window: a staff member is busy
// when an active assigned booking or an UNAVAILABLE override overlaps it.
// Schedule shape is judged against the offered window only: staff inherit
// provider hours unless an AVAILABLE override covers the offered window, and
// buffers may reach outside the open span without marking anyone busy.
func FreeStaff(staff []models.StaffMember, c Candidate, bookings []models.Booking, overrides []models.StaffAvailability, hours []Interval) []models.StaffMember {
	free := make([]models.StaffMember, 0, len(staff))
	for _, member := range staff {
		if !member.IsActive {
			continue
		}
		if staffBusy(member.ID, c, bookings, overrides, hours) {
			continue
		}
		free = append(free, member)
	}
	sort.Slice(free, func(i, j int) bool { return free[i].ID < free[j].ID })
	return free
}

// PickFirstFree exposes the assignment policy for the booking flow: the first
// free eligible staff member ordered by id, so concurrent booking attempts
// converge on the same pick.
func PickFirstFree(staff []models.StaffMember, c Candidate, bookings []models.Booking, overrides []models.StaffAvailability, hours []Interval) (models.StaffMember, bool) {
	free := FreeStaff(staff, c, bookings, overrides, hours)
	if len(free) == 0 {
		return models.StaffMember{}, false
	}
	return free[0], true
}

func staffBusy(staffID string, c Candidate, bookings []models.Booking, overrides []models.StaffAvailability, hours []Interval) bool {
	for _, b := range bookings {
		if b.StaffID != staffID || !models.IsActiveBookingStatus(b.Status) {
			continue
		}
		if c.Effective.Overlaps(Interval{Start: b.BufferStart, End: b.BufferEnd}) {
			return true
		}
	}

	covered := false
	for _, ov := range overrides {
		if ov.StaffID != staffID {
			continue
		}
		span := Interval{Start: ov.Start, End: ov.End}
		switch ov.Type {
		case models.OverrideUnavailable:
			if c.Effective.Overlaps(span) {
				return true
			}
		case models.OverrideAvailable:
			if c.Offered.Within(span) {
				covered = true
			}
		}
	}
	if covered {
		return false
	}

	for _, h := range hours {
		if c.Offered.Within(h) {
			return false
		}
	}
	return true
}
