package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"bookwise-backend/internal/models"
)

type fakeStore struct {
	providers map[string]models.Provider
	services  map[string]models.Service
	rules     map[string][]models.BusinessHoursRule
	staff     []models.StaffMember
	bookings  []models.Booking
	overrides []models.StaffAvailability
}

func (f *fakeStore) GetProvider(ctx context.Context, id string) (models.Provider, error) {
	p, ok := f.providers[id]
	if !ok {
		return models.Provider{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetService(ctx context.Context, id string) (models.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return models.Service{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetBusinessHours(ctx context.Context, providerID string) ([]models.BusinessHoursRule, error) {
	return f.rules[providerID], nil
}

func (f *fakeStore) CountActiveBookings(ctx context.Context, serviceID string, start, end time.Time) (int, error) {
	bookings, err := f.ListServiceBookings(ctx, serviceID, start, end)
	return len(bookings), err
}

func (f *fakeStore) ListServiceBookings(ctx context.Context, serviceID string, start, end time.Time) ([]models.Booking, error) {
	window := Interval{Start: start, End: end}
	var out []models.Booking
	for _, b := range f.bookings {
		if b.ServiceID != serviceID || !models.IsActiveBookingStatus(b.Status) {
			continue
		}
		if window.Overlaps(Interval{Start: b.BufferStart, End: b.BufferEnd}) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListEligibleStaff(ctx context.Context, providerID, serviceID string, anyStaffMember bool) ([]models.StaffMember, error) {
	var out []models.StaffMember
	for _, s := range f.staff {
		if s.ProviderID != providerID || !s.IsActive {
			continue
		}
		if !anyStaffMember && !contains(s.ServiceIDs, serviceID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) ListStaffBookings(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.Booking, error) {
	window := Interval{Start: start, End: end}
	var out []models.Booking
	for _, b := range f.bookings {
		if b.StaffID == "" || !contains(staffIDs, b.StaffID) {
			continue
		}
		if window.Overlaps(Interval{Start: b.BufferStart, End: b.BufferEnd}) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListStaffOverrides(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.StaffAvailability, error) {
	window := Interval{Start: start, End: end}
	var out []models.StaffAvailability
	for _, ov := range f.overrides {
		if !contains(staffIDs, ov.StaffID) {
			continue
		}
		if window.Overlaps(Interval{Start: ov.Start, End: ov.End}) {
			out = append(out, ov)
		}
	}
	return out, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func newFixture(t *testing.T) (*fakeStore, *Engine, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	store := &fakeStore{
		providers: map[string]models.Provider{
			"p1": {ID: "p1", Name: "Oslo Clinic", Timezone: "Europe/Oslo", IsActive: true},
		},
		services: map[string]models.Service{
			"svc-open": {ID: "svc-open", ProviderID: "p1", DurationMinutes: 60, MaxConcurrent: 1, IsActive: true},
		},
		rules: map[string][]models.BusinessHoursRule{},
	}
	return store, NewEngine(store, time.UTC), loc
}

func osloTime(loc *time.Location, day string, hour, minute int) time.Time {
	d, _ := time.ParseInLocation("2006-01-02", day, loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
}

func TestIsWindowAvailableDefaultHours(t *testing.T) {
	_, engine, loc := newFixture(t)
	ctx := context.Background()

	// Wednesday, no rules configured: default 09:00-17:00 local applies.
	ok, err := engine.IsWindowAvailable(ctx, "p1", "svc-open", osloTime(loc, "2026-03-04", 10, 0), osloTime(loc, "2026-03-04", 11, 0))
	if err != nil {
		t.Fatalf("IsWindowAvailable error: %v", err)
	}
	if !ok {
		t.Fatalf("expected 10:00-11:00 available under default hours")
	}

	ok, err = engine.IsWindowAvailable(ctx, "p1", "svc-open", osloTime(loc, "2026-03-04", 18, 0), osloTime(loc, "2026-03-04", 19, 0))
	if err != nil {
		t.Fatalf("IsWindowAvailable error: %v", err)
	}
	if ok {
		t.Fatalf("expected 18:00-19:00 unavailable outside default hours")
	}
}

func TestIsWindowAvailableClosedDay(t *testing.T) {
	_, engine, loc := newFixture(t)
	// Saturday under the default policy: always unavailable.
	ok, err := engine.IsWindowAvailable(context.Background(), "p1", "svc-open", osloTime(loc, "2026-03-07", 10, 0), osloTime(loc, "2026-03-07", 11, 0))
	if err != nil {
		t.Fatalf("IsWindowAvailable error: %v", err)
	}
	if ok {
		t.Fatalf("expected closed Saturday to be unavailable")
	}
}

func TestIsWindowAvailableFailsClosed(t *testing.T) {
	store, engine, loc := newFixture(t)
	ctx := context.Background()
	start, end := osloTime(loc, "2026-03-04", 10, 0), osloTime(loc, "2026-03-04", 11, 0)

	ok, err := engine.IsWindowAvailable(ctx, "p1", "missing", start, end)
	if err != nil || ok {
		t.Fatalf("missing service must fail closed, got ok=%v err=%v", ok, err)
	}

	store.services["svc-off"] = models.Service{ID: "svc-off", ProviderID: "p1", DurationMinutes: 60, MaxConcurrent: 1, IsActive: false}
	ok, err = engine.IsWindowAvailable(ctx, "p1", "svc-off", start, end)
	if err != nil || ok {
		t.Fatalf("inactive service must fail closed, got ok=%v err=%v", ok, err)
	}

	// Service belonging to another provider.
	ok, err = engine.IsWindowAvailable(ctx, "p2", "svc-open", start, end)
	if err != nil || ok {
		t.Fatalf("foreign service must fail closed, got ok=%v err=%v", ok, err)
	}
}

func TestIsWindowAvailableInvalidRange(t *testing.T) {
	_, engine, loc := newFixture(t)
	start := osloTime(loc, "2026-03-04", 10, 0)
	if _, err := engine.IsWindowAvailable(context.Background(), "p1", "svc-open", start, start); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestIsWindowAvailablePrecondition(t *testing.T) {
	store, engine, loc := newFixture(t)
	store.services["svc-bad"] = models.Service{ID: "svc-bad", ProviderID: "p1", DurationMinutes: 0, MaxConcurrent: 1, IsActive: true}
	start, end := osloTime(loc, "2026-03-04", 10, 0), osloTime(loc, "2026-03-04", 11, 0)
	if _, err := engine.IsWindowAvailable(context.Background(), "p1", "svc-bad", start, end); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
}

func TestIsWindowAvailableCapacityBoundary(t *testing.T) {
	store, engine, loc := newFixture(t)
	store.services["svc-2"] = models.Service{ID: "svc-2", ProviderID: "p1", DurationMinutes: 60, MaxConcurrent: 2, IsActive: true}
	ctx := context.Background()
	start, end := osloTime(loc, "2026-03-04", 10, 0), osloTime(loc, "2026-03-04", 11, 0)
	overlap := Interval{Start: start, End: end}

	add := func(status string) {
		store.bookings = append(store.bookings, models.Booking{
			ServiceID: "svc-2", Status: status,
			StartTime: overlap.Start, EndTime: overlap.End,
			BufferStart: overlap.Start, BufferEnd: overlap.End,
		})
	}

	add(models.BookingStatusConfirmed)
	ok, err := engine.IsWindowAvailable(ctx, "p1", "svc-2", start, end)
	if err != nil || !ok {
		t.Fatalf("one of two concurrent seats taken: expected available, got ok=%v err=%v", ok, err)
	}

	add(models.BookingStatusCancelled)
	ok, err = engine.IsWindowAvailable(ctx, "p1", "svc-2", start, end)
	if err != nil || !ok {
		t.Fatalf("cancelled booking must not count, got ok=%v err=%v", ok, err)
	}

	add(models.BookingStatusPending)
	ok, err = engine.IsWindowAvailable(ctx, "p1", "svc-2", start, end)
	if err != nil || ok {
		t.Fatalf("both seats taken: expected unavailable, got ok=%v err=%v", ok, err)
	}
}

func TestIsWindowAvailableStaffScenario(t *testing.T) {
	store, engine, loc := newFixture(t)
	store.services["svc-staff"] = models.Service{
		ID: "svc-staff", ProviderID: "p1", DurationMinutes: 60,
		MaxConcurrent: 5, RequiresStaff: true, AnyStaffMember: true, IsActive: true,
	}
	store.staff = []models.StaffMember{
		{ID: "s1", ProviderID: "p1", IsActive: true},
		{ID: "s2", ProviderID: "p1", IsActive: true},
	}
	ctx := context.Background()
	start, end := osloTime(loc, "2026-03-04", 10, 0), osloTime(loc, "2026-03-04", 11, 0)

	busy := func(staffID string) {
		store.bookings = append(store.bookings, models.Booking{
			ServiceID: "svc-staff", StaffID: staffID, Status: models.BookingStatusConfirmed,
			StartTime: start, EndTime: end, BufferStart: start, BufferEnd: end,
		})
	}

	busy("s1")
	ok, err := engine.IsWindowAvailable(ctx, "p1", "svc-staff", start, end)
	if err != nil || !ok {
		t.Fatalf("one of two staff free: expected available, got ok=%v err=%v", ok, err)
	}

	busy("s2")
	ok, err = engine.IsWindowAvailable(ctx, "p1", "svc-staff", start, end)
	if err != nil || ok {
		t.Fatalf("both staff busy: expected unavailable, got ok=%v err=%v", ok, err)
	}
}

func TestUnassignedStaffBookingCountsTowardCapacityOnly(t *testing.T) {
	store, engine, loc := newFixture(t)
	store.services["svc-staff"] = models.Service{
		ID: "svc-staff", ProviderID: "p1", DurationMinutes: 60,
		MaxConcurrent: 1, RequiresStaff: true, AnyStaffMember: true, IsActive: true,
	}
	store.staff = []models.StaffMember{{ID: "s1", ProviderID: "p1", IsActive: true}}
	ctx := context.Background()
	start, end := osloTime(loc, "2026-03-04", 10, 0), osloTime(loc, "2026-03-04", 11, 0)

	// Pending booking awaiting staff assignment: occupies a concurrency seat
	// but no individual staff member's time.
	store.bookings = append(store.bookings, models.Booking{
		ServiceID: "svc-staff", Status: models.BookingStatusPending,
		StartTime: start, EndTime: end, BufferStart: start, BufferEnd: end,
	})

	ok, err := engine.IsWindowAvailable(ctx, "p1", "svc-staff", start, end)
	if err != nil || ok {
		t.Fatalf("expected capacity exhausted by unassigned booking, got ok=%v err=%v", ok, err)
	}

	svc := store.services["svc-staff"]
	cand := Candidate{Offered: Interval{Start: start, End: end}, Effective: Interval{Start: start, End: end}}
	free, err := engine.freeStaffFor(ctx, svc, cand, []Interval{{Start: osloTime(loc, "2026-03-04", 9, 0), End: osloTime(loc, "2026-03-04", 17, 0)}})
	if err != nil {
		t.Fatalf("freeStaffFor error: %v", err)
	}
	if len(free) != 1 {
		t.Fatalf("unassigned booking must not mark staff busy, free=%v", free)
	}
}

func TestIsWindowAvailableIdempotent(t *testing.T) {
	_, engine, loc := newFixture(t)
	ctx := context.Background()
	start, end := osloTime(loc, "2026-03-04", 10, 0), osloTime(loc, "2026-03-04", 11, 0)
	first, err := engine.IsWindowAvailable(ctx, "p1", "svc-open", start, end)
	if err != nil {
		t.Fatalf("IsWindowAvailable error: %v", err)
	}
	second, err := engine.IsWindowAvailable(ctx, "p1", "svc-open", start, end)
	if err != nil {
		t.Fatalf("IsWindowAvailable error: %v", err)
	}
	if first != second {
		t.Fatalf("expected idempotent result, got %v then %v", first, second)
	}
}

func TestListDaySlotsNotFound(t *testing.T) {
	_, engine, _ := newFixture(t)
	if _, err := engine.ListDaySlots(context.Background(), "p1", "missing", "2026-03-04", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDaySlotsClosedDayEmpty(t *testing.T) {
	_, engine, _ := newFixture(t)
	slots, err := engine.ListDaySlots(context.Background(), "p1", "svc-open", "2026-03-08", "")
	if err != nil {
		t.Fatalf("ListDaySlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on Sunday, got %d", len(slots))
	}
}

func TestListDaySlotsAnnotates(t *testing.T) {
	store, engine, loc := newFixture(t)
	ctx := context.Background()

	// Book 11:00-12:00 local; the day keeps all 8 slots, one flagged unavailable.
	start, end := osloTime(loc, "2026-03-04", 11, 0), osloTime(loc, "2026-03-04", 12, 0)
	store.bookings = append(store.bookings, models.Booking{
		ServiceID: "svc-open", Status: models.BookingStatusConfirmed,
		StartTime: start, EndTime: end, BufferStart: start, BufferEnd: end,
	})

	slots, err := engine.ListDaySlots(ctx, "p1", "svc-open", "2026-03-04", "")
	if err != nil {
		t.Fatalf("ListDaySlots error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	unavailable := 0
	for _, slot := range slots {
		if !slot.Available {
			unavailable++
			if !slot.Start.Equal(start.UTC()) {
				t.Fatalf("wrong slot flagged: %v", slot.Start)
			}
		}
	}
	if unavailable != 1 {
		t.Fatalf("expected exactly 1 unavailable slot, got %d", unavailable)
	}
}

func TestListDaySlotsInvalidDate(t *testing.T) {
	_, engine, _ := newFixture(t)
	if _, err := engine.ListDaySlots(context.Background(), "p1", "svc-open", "not-a-date", ""); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	// The date is checked before any store read: a bad date on an unknown
	// service id must still surface ErrInvalidDate, not ErrNotFound.
	if _, err := engine.ListDaySlots(context.Background(), "p1", "missing", "04-03-2026", ""); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate before store access, got %v", err)
	}
}

func TestListDaySlotsStaffedFirstSlotWithBuffer(t *testing.T) {
	store, engine, _ := newFixture(t)
	store.services["svc-buf"] = models.Service{
		ID: "svc-buf", ProviderID: "p1", DurationMinutes: 60, BufferBeforeMinutes: 15,
		MaxConcurrent: 1, RequiresStaff: true, AnyStaffMember: true, IsActive: true,
	}
	store.staff = []models.StaffMember{{ID: "s1", ProviderID: "p1", IsActive: true}}

	// The first slot's effective window reaches 15 minutes before opening.
	// With a free roster and no bookings that must not make it unavailable.
	slots, err := engine.ListDaySlots(context.Background(), "p1", "svc-buf", "2026-03-04", "")
	if err != nil {
		t.Fatalf("ListDaySlots error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatalf("expected slots for the day")
	}
	if !slots[0].Available {
		t.Fatalf("first slot with buffer-before must stay available, got %+v", slots[0])
	}
}

func TestListDaySlotsTimezoneOverride(t *testing.T) {
	_, engine, _ := newFixture(t)
	slots, err := engine.ListDaySlots(context.Background(), "p1", "svc-open", "2026-03-04", "UTC")
	if err != nil {
		t.Fatalf("ListDaySlots error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	// Day resolved in UTC: first slot is 09:00Z, not 09:00 Oslo time.
	if slots[0].Start.Hour() != 9 {
		t.Fatalf("expected first slot 09:00Z, got %v", slots[0].Start)
	}
}

func TestTimeSlotJSONSecondPrecision(t *testing.T) {
	slot := TimeSlot{
		Start:     time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		Available: true,
	}
	raw, err := json.Marshal(slot)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !strings.Contains(string(raw), "2026-03-04T09:00:00Z") {
		t.Fatalf("expected RFC3339 UTC instant, got %s", raw)
	}
	var back TimeSlot
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !back.Start.Equal(slot.Start) || !back.End.Equal(slot.End) {
		t.Fatalf("round trip mismatch: %v", back)
	}
}
