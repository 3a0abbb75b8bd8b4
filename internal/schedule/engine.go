package schedule

import (
	"context"
	"errors"
	"time"

	"bookwise-backend/internal/models"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

// Store is the read contract the engine needs from persistence. Implementations
// must return ErrNotFound (wrapped is fine) for missing providers/services and
// must reflect a consistent snapshot for the duration of one engine call.
// Store failures propagate unchanged; the engine never masks them as
// "unavailable".
type Store interface {
	GetProvider(ctx context.Context, id string) (models.Provider, error)
	GetService(ctx context.Context, id string) (models.Service, error)
	GetBusinessHours(ctx context.Context, providerID string) ([]models.BusinessHoursRule, error)

	// CountActiveBookings counts bookings of the service in an active status
	// whose effective window overlaps [start, end).
	CountActiveBookings(ctx context.Context, serviceID string, start, end time.Time) (int, error)

	// ListServiceBookings returns the active bookings of the service whose
	// effective window overlaps [start, end). Used by the day query so one
	// read serves every candidate slot.
	ListServiceBookings(ctx context.Context, serviceID string, start, end time.Time) ([]models.Booking, error)

	ListEligibleStaff(ctx context.Context, providerID, serviceID string, anyStaffMember bool) ([]models.StaffMember, error)
	ListStaffBookings(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.Booking, error)
	ListStaffOverrides(ctx context.Context, staffIDs []string, start, end time.Time) ([]models.StaffAvailability, error)
}

// TimeSlot is the computed, never persisted result of a day query. Instants
// serialize as RFC3339 UTC with second precision.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Engine classifies candidate windows against business hours, booking
// capacity and staff availability. It is stateless between calls and safe for
// concurrent use; its answers are advisory. The booking write path must
// re-verify inside the transaction that commits the booking, because two
// concurrent attempts can both observe "available" here before either commits.
type Engine struct {
	store    Store
	fallback *time.Location
}

func NewEngine(store Store, fallback *time.Location) *Engine {
	if fallback == nil {
		fallback = time.UTC
	}
	return &Engine{store: store, fallback: fallback}
}

// IsWindowAvailable reports whether a booking [start, end) can be placed.
// It fails closed (false, nil) when the service is missing, inactive, or does
// not belong to the provider. The window must lie inside an open
// business-hours interval, the overlapping active booking count must be below
// maxConcurrent, and, for staffed services, at least one eligible staff member
// must be free. The three checks are also exposed individually below.
func (e *Engine) IsWindowAvailable(ctx context.Context, providerID, serviceID string, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidTimeRange
	}

	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if svc.ProviderID != providerID || !svc.IsActive {
		return false, nil
	}
	if err := checkServiceConfig(svc); err != nil {
		return false, err
	}

	provider, err := e.store.GetProvider(ctx, svc.ProviderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	loc, err := e.resolveLocation(provider.Timezone, "")
	if err != nil {
		return false, err
	}

	offered := Interval{Start: start, End: end}
	hours, err := e.openHoursFor(ctx, provider.ID, offered.Start.In(loc))
	if err != nil {
		return false, err
	}
	if !withinAny(offered, hours) {
		return false, nil
	}

	cand := Candidate{
		Offered: offered,
		Effective: offered.Expand(
			time.Duration(svc.BufferBeforeMinutes)*time.Minute,
			time.Duration(svc.BufferAfterMinutes)*time.Minute,
		),
	}

	ok, err := e.HasCapacity(ctx, svc, cand.Effective)
	if err != nil || !ok {
		return false, err
	}

	if svc.RequiresStaff {
		ok, err := e.HasFreeStaff(ctx, svc, cand, hours)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// WindowWithinHours checks only the business-hours condition for the window.
func (e *Engine) WindowWithinHours(ctx context.Context, providerID string, window Interval, loc *time.Location) (bool, error) {
	if !window.IsValid() {
		return false, ErrInvalidTimeRange
	}
	hours, err := e.openHoursFor(ctx, providerID, window.Start.In(loc))
	if err != nil {
		return false, err
	}
	return withinAny(window, hours), nil
}

// HasCapacity checks only the maxConcurrent condition for the effective window.
func (e *Engine) HasCapacity(ctx context.Context, svc models.Service, effective Interval) (bool, error) {
	count, err := e.store.CountActiveBookings(ctx, svc.ID, effective.Start, effective.End)
	if err != nil {
		return false, err
	}
	return count < svc.MaxConcurrent, nil
}

// HasFreeStaff checks only the staff condition: at least one eligible staff
// member free for the candidate window. hours are the provider's open
// intervals for the day, which staff inherit absent an override.
func (e *Engine) HasFreeStaff(ctx context.Context, svc models.Service, c Candidate, hours []Interval) (bool, error) {
	free, err := e.freeStaffFor(ctx, svc, c, hours)
	if err != nil {
		return false, err
	}
	return len(free) > 0, nil
}

// PickStaff returns the first free eligible staff member ordered by id for
// the offered window, the deterministic assignment policy the booking flow
// uses when anyStaffMember is set.
func (e *Engine) PickStaff(ctx context.Context, svc models.Service, offered Interval, loc *time.Location) (models.StaffMember, bool, error) {
	cand := Candidate{
		Offered: offered,
		Effective: offered.Expand(
			time.Duration(svc.BufferBeforeMinutes)*time.Minute,
			time.Duration(svc.BufferAfterMinutes)*time.Minute,
		),
	}
	hours, err := e.openHoursFor(ctx, svc.ProviderID, offered.Start.In(loc))
	if err != nil {
		return models.StaffMember{}, false, err
	}
	free, err := e.freeStaffFor(ctx, svc, cand, hours)
	if err != nil {
		return models.StaffMember{}, false, err
	}
	if len(free) == 0 {
		return models.StaffMember{}, false, nil
	}
	return free[0], true, nil
}

// ListDaySlots generates the day's candidate slots and annotates each with
// availability. It does not pre-filter; the HTTP layer filters to
// available-only for the public API. A missing, inactive or foreign service
// is ErrNotFound so callers can tell "no slots today" from "bad id".
func (e *Engine) ListDaySlots(ctx context.Context, providerID, serviceID, dateStr, timezone string) ([]TimeSlot, error) {
	// Reject a malformed date before touching the store; the timezone-aware
	// resolution below still happens once the provider location is known.
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return nil, ErrInvalidDate
	}

	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != providerID || !svc.IsActive {
		return nil, ErrNotFound
	}
	if err := checkServiceConfig(svc); err != nil {
		return nil, err
	}

	provider, err := e.store.GetProvider(ctx, svc.ProviderID)
	if err != nil {
		return nil, err
	}
	loc, err := e.resolveLocation(provider.Timezone, timezone)
	if err != nil {
		return nil, err
	}

	day, err := ResolveDate(dateStr, loc)
	if err != nil {
		return nil, err
	}

	rules, err := e.store.GetBusinessHours(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	hours, err := OpenIntervals(rules, day)
	if err != nil {
		return nil, err
	}

	candidates := Candidates(svc, hours)
	if len(candidates) == 0 {
		return []TimeSlot{}, nil
	}

	// One read per concern for the whole day instead of one per slot.
	daySpan := Interval{Start: candidates[0].Effective.Start, End: candidates[len(candidates)-1].Effective.End}
	bookings, err := e.store.ListServiceBookings(ctx, svc.ID, daySpan.Start, daySpan.End)
	if err != nil {
		return nil, err
	}

	var staff []models.StaffMember
	var staffBookings []models.Booking
	var overrides []models.StaffAvailability
	if svc.RequiresStaff {
		staff, err = e.store.ListEligibleStaff(ctx, svc.ProviderID, svc.ID, svc.AnyStaffMember)
		if err != nil {
			return nil, err
		}
		ids := staffIDs(staff)
		staffBookings, err = e.store.ListStaffBookings(ctx, ids, daySpan.Start, daySpan.End)
		if err != nil {
			return nil, err
		}
		overrides, err = e.store.ListStaffOverrides(ctx, ids, daySpan.Start, daySpan.End)
		if err != nil {
			return nil, err
		}
	}

	slots := make([]TimeSlot, 0, len(candidates))
	for _, c := range candidates {
		available := countOverlapping(bookings, c.Effective) < svc.MaxConcurrent
		if available && svc.RequiresStaff {
			available = len(FreeStaff(staff, c, staffBookings, overrides, hours)) > 0
		}
		slots = append(slots, TimeSlot{
			Start:     c.Offered.Start.UTC().Truncate(time.Second),
			End:       c.Offered.End.UTC().Truncate(time.Second),
			Available: available,
		})
	}
	return slots, nil
}

func (e *Engine) freeStaffFor(ctx context.Context, svc models.Service, c Candidate, hours []Interval) ([]models.StaffMember, error) {
	staff, err := e.store.ListEligibleStaff(ctx, svc.ProviderID, svc.ID, svc.AnyStaffMember)
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return nil, nil
	}
	ids := staffIDs(staff)
	bookings, err := e.store.ListStaffBookings(ctx, ids, c.Effective.Start, c.Effective.End)
	if err != nil {
		return nil, err
	}
	overrides, err := e.store.ListStaffOverrides(ctx, ids, c.Effective.Start, c.Effective.End)
	if err != nil {
		return nil, err
	}
	return FreeStaff(staff, c, bookings, overrides, hours), nil
}

func (e *Engine) openHoursFor(ctx context.Context, providerID string, localStart time.Time) ([]Interval, error) {
	rules, err := e.store.GetBusinessHours(ctx, providerID)
	if err != nil {
		return nil, err
	}
	day := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, localStart.Location())
	return OpenIntervals(rules, day)
}

func (e *Engine) resolveLocation(providerTZ, override string) (*time.Location, error) {
	name := providerTZ
	if override != "" {
		name = override
	}
	if name == "" {
		return e.fallback, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

func checkServiceConfig(svc models.Service) error {
	if svc.DurationMinutes < 1 || svc.MaxConcurrent < 1 {
		return ErrPrecondition
	}
	return nil
}

func withinAny(window Interval, hours []Interval) bool {
	for _, h := range hours {
		if window.Within(h) {
			return true
		}
	}
	return false
}

func countOverlapping(bookings []models.Booking, window Interval) int {
	count := 0
	for _, b := range bookings {
		if !models.IsActiveBookingStatus(b.Status) {
			continue
		}
		if window.Overlaps(Interval{Start: b.BufferStart, End: b.BufferEnd}) {
			count++
		}
	}
	return count
}

func staffIDs(staff []models.StaffMember) []string {
	ids := make([]string, 0, len(staff))
	for _, s := range staff {
		ids = append(ids, s.ID)
	}
	return ids
}
