package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bookwise-backend/internal/ics"
	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/transport"
)

// BookingCalendar serves the booking as an .ics attachment.
func (s *Server) BookingCalendar(w http.ResponseWriter, r *http.Request) {
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
		log.Error("booking calendar: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	svc, err := s.Store.GetService(ctx, booking.ServiceID)
	if err != nil {
		log.Error("booking calendar: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	provider, err := s.Store.GetProvider(ctx, booking.ProviderID)
	if err != nil {
		log.Error("booking calendar: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	document := ics.Render(ics.FromBooking(booking, svc, provider))

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="booking-`+booking.ID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(document))
}
