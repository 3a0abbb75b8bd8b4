package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookwise-backend/internal/httpx"
	"bookwise-backend/internal/models"
	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/store"
	"bookwise-backend/internal/transport"
)

type CreateBookingRequest struct {
	ServiceID     string `json:"serviceId" validate:"required"`
	StaffID       string `json:"staffId"`
	Start         string `json:"start" validate:"required,rfc3339"`
	CustomerName  string `json:"customerName" validate:"required,min=2,max=120"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	CustomerPhone string `json:"customerPhone" validate:"omitempty,phone"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=online place"`
	Notes         string `json:"notes" validate:"omitempty,max=2000"`
}

type AdminBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED CANCELLED NO_SHOW COMPLETED"`
}

// CreateBooking books a slot. The engine answer is advisory; after the insert
// the handler re-counts capacity and rolls the row back if oversubscribed,
// while the partial unique index rejects double assignment of a staff member.
func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("booking create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("booking create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid start", nil)
		return
	}
	start = start.UTC()

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	svc, err := s.Store.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		log.Error("booking create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if !svc.IsActive {
		transport.WriteError(w, http.StatusNotFound, "service not found", nil)
		return
	}

	provider, err := s.Store.GetProvider(ctx, svc.ProviderID)
	if err != nil {
		log.Error("booking create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)
	offered := schedule.Interval{Start: start, End: end}
	effective := offered.Expand(
		time.Duration(svc.BufferBeforeMinutes)*time.Minute,
		time.Duration(svc.BufferAfterMinutes)*time.Minute,
	)

	available, err := s.Engine.IsWindowAvailable(ctx, svc.ProviderID, svc.ID, start, end)
	if err != nil {
		s.writeScheduleError(w, log, "booking create", err)
		return
	}
	if !available {
		transport.WriteError(w, http.StatusConflict, "slot not available", nil)
		return
	}

	staffID, ok, err := s.resolveStaff(ctx, svc, provider, req.StaffID, offered, effective)
	if err != nil {
		log.Error("booking create: staff resolution error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if !ok {
		transport.WriteError(w, http.StatusConflict, "requested staff member is not available", nil)
		return
	}

	status := models.BookingStatusConfirmed
	if req.PaymentMethod == models.PaymentOnline {
		status = models.BookingStatusPending
	}

	now := time.Now().UTC()
	booking := models.Booking{
		ID:            primitive.NewObjectID().Hex(),
		ProviderID:    svc.ProviderID,
		ServiceID:     svc.ID,
		StaffID:       staffID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		StartTime:     start,
		EndTime:       end,
		BufferStart:   effective.Start,
		BufferEnd:     effective.End,
		Status:        status,
		PaymentMethod: req.PaymentMethod,
		PriceCents:    svc.PriceCents,
		Currency:      svc.Currency,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.Store.CreateBooking(ctx, booking); err != nil {
		if store.IsDuplicate(err) {
			log.Warn("booking create: lost slot race", slog.String("service_id", svc.ID))
			transport.WriteError(w, http.StatusConflict, "slot not available", nil)
			return
		}
		log.Error("booking create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	// Capacity re-check after the insert. Both racers see each other's rows
	// now; the bookings with the largest ids withdraw, so every racer applies
	// the same rule and exactly maxConcurrent survivors remain.
	overlapping, err := s.Store.ListServiceBookings(ctx, svc.ID, effective.Start, effective.End)
	if err == nil && lostCapacityRace(booking.ID, overlapping, svc.MaxConcurrent) {
		_, _ = s.Cols.Bookings.DeleteOne(ctx, bson.M{"_id": booking.ID})
		log.Warn("booking create: lost capacity race", slog.String("service_id", svc.ID))
		transport.WriteError(w, http.StatusConflict, "slot not available", nil)
		return
	}

	s.invalidateAvailability(r.Context(), svc.ProviderID)
	s.sendBookingEmail(booking, svc, provider, false)

	log.Info("booking create: ok",
		slog.String("booking_id", booking.ID),
		slog.String("service_id", svc.ID),
		slog.String("staff_id", staffID),
		slog.String("status", status),
	)
	transport.WriteJSON(w, http.StatusCreated, booking)
}

// resolveStaff decides the staff assignment for a new booking. For unstaffed
// services it is empty. A requested staff member must be eligible and free;
// otherwise the engine's deterministic first-free policy picks one.
func (s *Server) resolveStaff(ctx context.Context, svc models.Service, provider models.Provider, requested string, offered, effective schedule.Interval) (string, bool, error) {
	if !svc.RequiresStaff {
		return "", true, nil
	}

	requested = strings.TrimSpace(requested)
	if requested == "" {
		member, ok, err := s.Engine.PickStaff(ctx, svc, offered, s.providerLocation(provider))
		if err != nil || !ok {
			return "", ok, err
		}
		return member.ID, true, nil
	}

	eligible, err := s.Store.ListEligibleStaff(ctx, svc.ProviderID, svc.ID, svc.AnyStaffMember)
	if err != nil {
		return "", false, err
	}
	var match []models.StaffMember
	for _, member := range eligible {
		if member.ID == requested {
			match = append(match, member)
			break
		}
	}
	if len(match) == 0 {
		return "", false, nil
	}

	bookings, err := s.Store.ListStaffBookings(ctx, []string{requested}, effective.Start, effective.End)
	if err != nil {
		return "", false, err
	}
	overrides, err := s.Store.ListStaffOverrides(ctx, []string{requested}, effective.Start, effective.End)
	if err != nil {
		return "", false, err
	}
	rules, err := s.Store.GetBusinessHours(ctx, svc.ProviderID)
	if err != nil {
		return "", false, err
	}
	loc := s.providerLocation(provider)
	localStart := offered.Start.In(loc)
	day := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, loc)
	hours, err := schedule.OpenIntervals(rules, day)
	if err != nil {
		return "", false, err
	}

	free := schedule.FreeStaff(match, schedule.Candidate{Offered: offered, Effective: effective}, bookings, overrides, hours)
	if len(free) == 0 {
		return "", false, nil
	}
	return requested, true, nil
}

func (s *Server) providerLocation(provider models.Provider) *time.Location {
	if provider.Timezone != "" {
		if loc, err := time.LoadLocation(provider.Timezone); err == nil {
			return loc
		}
	}
	return s.Cfg.DefaultTimezone
}

func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	booking, err := s.Store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "booking not found", nil)
			return
		}
		log.Error("booking get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, booking)
}

// CancelBooking is the public cancellation by booking reference. Only active
// bookings can be cancelled; the row is kept with status CANCELLED.
func (s *Server) CancelBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	booking, err := s.Store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "booking not found", nil)
			return
		}
		log.Error("booking cancel: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if !models.IsActiveBookingStatus(booking.Status) {
		transport.WriteError(w, http.StatusConflict, "booking is not active", nil)
		return
	}

	cancelledAt := time.Now().UTC()
	updated, err := s.Store.UpdateBookingStatus(ctx, id, models.BookingStatusCancelled, &cancelledAt)
	if err != nil {
		log.Error("booking cancel: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	s.invalidateAvailability(r.Context(), updated.ProviderID)

	if svc, err := s.Store.GetService(ctx, updated.ServiceID); err == nil {
		if provider, err := s.Store.GetProvider(ctx, updated.ProviderID); err == nil {
			s.sendBookingEmail(updated, svc, provider, true)
		}
	}

	log.Info("booking cancel: ok", slog.String("booking_id", id))
	transport.WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) AdminListBookings(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := store.BookingFilter{
		ProviderID: strings.TrimSpace(r.URL.Query().Get("providerId")),
		ServiceID:  strings.TrimSpace(r.URL.Query().Get("serviceId")),
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid from", nil)
			return
		}
		filter.From = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid to", nil)
			return
		}
		filter.To = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	bookings, total, err := s.Store.ListBookings(ctx, filter, limit, offset)
	if err != nil {
		log.Error("admin bookings list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin bookings list: ok", slog.Int("count", len(bookings)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  bookings,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

// AdminUpdateBookingStatus transitions a booking between lifecycle statuses.
// Setting CANCELLED stamps cancelledAt; other transitions leave it untouched.
func (s *Server) AdminUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminBookingStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin booking status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin booking status: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var cancelledAt *time.Time
	if req.Status == models.BookingStatusCancelled {
		ts := time.Now().UTC()
		cancelledAt = &ts
	}

	updated, err := s.Store.UpdateBookingStatus(ctx, id, req.Status, cancelledAt)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "booking not found", nil)
			return
		}
		log.Error("admin booking status: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	s.invalidateAvailability(r.Context(), updated.ProviderID)
	log.Info("admin booking status: ok", slog.String("booking_id", id), slog.String("status", req.Status))
	transport.WriteJSON(w, http.StatusOK, updated)
}

// lostCapacityRace reports whether this booking should withdraw after the
// post-insert re-count oversubscribed the window. The bookings with the
// smallest ids keep their seats, so concurrent racers reach the same verdict
// without coordination and never all withdraw.
func lostCapacityRace(bookingID string, overlapping []models.Booking, maxConcurrent int) bool {
	if len(overlapping) <= maxConcurrent {
		return false
	}
	rank := 0
	for _, b := range overlapping {
		if b.ID != bookingID && b.ID < bookingID {
			rank++
		}
	}
	return rank >= maxConcurrent
}

func (s *Server) invalidateAvailability(ctx context.Context, providerID string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Cache.DeletePrefix(ctx, "availability:"+providerID+":"); err != nil {
		s.Log.Warn("availability cache invalidation failed", slog.String("error", err.Error()))
	}
}

// sendBookingEmail fires the notification without blocking the response.
func (s *Server) sendBookingEmail(booking models.Booking, svc models.Service, provider models.Provider, cancellation bool) {
	if s.Mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var err error
		if cancellation {
			_, err = s.Mailer.SendBookingCancellation(ctx, booking, svc, provider)
		} else {
			_, err = s.Mailer.SendBookingConfirmation(ctx, booking, svc, provider)
		}
		if err != nil {
			s.Log.Error("booking email failed",
				slog.String("booking_id", booking.ID),
				slog.Bool("cancellation", cancellation),
				slog.String("error", err.Error()),
			)
		}
	}()
}
