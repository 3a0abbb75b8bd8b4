package models

import "time"

const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusNoShow    = "NO_SHOW"
	BookingStatusCompleted = "COMPLETED"

	OverrideUnavailable = "UNAVAILABLE"
	OverrideAvailable   = "AVAILABLE"

	PaymentOnline = "online"
	PaymentPlace  = "place"

	UserRoleAdmin = "admin"
)

// ActiveBookingStatuses are the statuses that count against capacity.
// Cancelled, no-show and completed bookings keep their rows but release the slot.
func ActiveBookingStatuses() []string {
	return []string{BookingStatusPending, BookingStatusConfirmed}
}

func IsActiveBookingStatus(status string) bool {
	return status == BookingStatusPending || status == BookingStatusConfirmed
}

type Provider struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Slug      string    `bson:"slug" json:"slug"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Timezone  string    `bson:"timezone" json:"timezone"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BusinessHoursRule holds the open interval for one weekday (0=Sunday .. 6=Saturday).
// At most one rule per (provider, dayOfWeek); if IsOpen, OpenTime < CloseTime.
type BusinessHoursRule struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	ProviderID string    `bson:"providerId" json:"providerId"`
	DayOfWeek  int       `bson:"dayOfWeek" json:"dayOfWeek"`
	IsOpen     bool      `bson:"isOpen" json:"isOpen"`
	OpenTime   string    `bson:"openTime,omitempty" json:"openTime,omitempty"`
	CloseTime  string    `bson:"closeTime,omitempty" json:"closeTime,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Service struct {
	ID                  string    `bson:"_id,omitempty" json:"id"`
	ProviderID          string    `bson:"providerId" json:"providerId"`
	Name                string    `bson:"name" json:"name"`
	Slug                string    `bson:"slug" json:"slug"`
	Description         string    `bson:"description,omitempty" json:"description,omitempty"`
	DurationMinutes     int       `bson:"durationMinutes" json:"durationMinutes"`
	BufferBeforeMinutes int       `bson:"bufferBeforeMinutes" json:"bufferBeforeMinutes"`
	BufferAfterMinutes  int       `bson:"bufferAfterMinutes" json:"bufferAfterMinutes"`
	SlotIntervalMinutes int       `bson:"slotIntervalMinutes,omitempty" json:"slotIntervalMinutes,omitempty"`
	RequiresStaff       bool      `bson:"requiresStaff" json:"requiresStaff"`
	AnyStaffMember      bool      `bson:"anyStaffMember" json:"anyStaffMember"`
	MaxConcurrent       int       `bson:"maxConcurrent" json:"maxConcurrent"`
	PriceCents          int       `bson:"priceCents" json:"priceCents"`
	Currency            string    `bson:"currency,omitempty" json:"currency,omitempty"`
	IsActive            bool      `bson:"isActive" json:"isActive"`
	CreatedAt           time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time `bson:"updatedAt" json:"updatedAt"`
}

type StaffMember struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	ProviderID string    `bson:"providerId" json:"providerId"`
	Name       string    `bson:"name" json:"name"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	ServiceIDs []string  `bson:"serviceIds,omitempty" json:"serviceIds,omitempty"`
	IsActive   bool      `bson:"isActive" json:"isActive"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StaffAvailability is an ad hoc exception to a staff member's default hours:
// vacation (UNAVAILABLE) or extra hours (AVAILABLE). Overrides win over business hours.
type StaffAvailability struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	StaffID   string    `bson:"staffId" json:"staffId"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"`
	Type      string    `bson:"type" json:"type"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Booking rows are never deleted; status transitions retain history.
// BufferStart/BufferEnd is the effective window (offered window widened by the
// service buffers), precomputed at creation so conflict queries stay plain
// range overlaps.
type Booking struct {
	ID            string     `bson:"_id,omitempty" json:"id"`
	ProviderID    string     `bson:"providerId" json:"providerId"`
	ServiceID     string     `bson:"serviceId" json:"serviceId"`
	StaffID       string     `bson:"staffId,omitempty" json:"staffId,omitempty"`
	CustomerName  string     `bson:"customerName" json:"customerName"`
	CustomerEmail string     `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone string     `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	StartTime     time.Time  `bson:"startTime" json:"startTime"`
	EndTime       time.Time  `bson:"endTime" json:"endTime"`
	BufferStart   time.Time  `bson:"bufferStart" json:"-"`
	BufferEnd     time.Time  `bson:"bufferEnd" json:"-"`
	Status        string     `bson:"status" json:"status"`
	PaymentMethod string     `bson:"paymentMethod" json:"paymentMethod"`
	PriceCents    int        `bson:"priceCents" json:"priceCents"`
	Currency      string     `bson:"currency,omitempty" json:"currency,omitempty"`
	Notes         string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CancelledAt   *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
