package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/transport"
)

type SlotsQuery struct {
	Date     string `validate:"required,date"`
	Timezone string `validate:"omitempty,timezone_name"`
}

// ListServiceSlots returns the bookable slots of a service for one local day.
// Available slots only by default; ?includeUnavailable=true returns the full
// annotated grid for admin calendars. Responses are cached per
// provider/service/day/timezone and invalidated on any schedule-shaping write.
func (s *Server) ListServiceSlots(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	serviceID := strings.TrimSpace(chi.URLParam(r, "id"))
	if serviceID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing service id", nil)
		return
	}

	query := SlotsQuery{
		Date:     strings.TrimSpace(r.URL.Query().Get("date")),
		Timezone: strings.TrimSpace(r.URL.Query().Get("tz")),
	}
	if err := s.Val.Struct(query); err != nil {
		log.Warn("slots: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	includeUnavailable := r.URL.Query().Get("includeUnavailable") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	svc, err := s.Store.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		log.Error("slots: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	cacheKey := "availability:" + svc.ProviderID + ":" + serviceID + ":" + query.Date + ":" + query.Timezone
	if includeUnavailable {
		cacheKey += ":all"
	}
	if cached, ok, err := s.Cache.Get(r.Context(), cacheKey); err == nil && ok {
		writeCachedJSON(w, http.StatusOK, cached)
		return
	}

	slots, err := s.Engine.ListDaySlots(ctx, svc.ProviderID, serviceID, query.Date, query.Timezone)
	if err != nil {
		s.writeScheduleError(w, log, "slots", err)
		return
	}

	if !includeUnavailable {
		filtered := slots[:0]
		for _, slot := range slots {
			if slot.Available {
				filtered = append(filtered, slot)
			}
		}
		slots = filtered
	}

	payload := map[string]interface{}{
		"date":  query.Date,
		"items": slots,
	}
	raw, err := encodeJSON(payload)
	if err != nil {
		log.Error("slots: encode error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "encoding error", nil)
		return
	}

	ttl := time.Duration(s.Cfg.CacheTTLSeconds) * time.Second
	_ = s.Cache.Set(r.Context(), cacheKey, raw, ttl)

	log.Info("slots: ok", slog.String("service_id", serviceID), slog.String("date", query.Date), slog.Int("count", len(slots)))
	writeCachedJSON(w, http.StatusOK, raw)
}

// CheckWindowAvailability answers whether one explicit [start, end) window is
// bookable right now. The answer is advisory; the booking write re-verifies.
func (s *Server) CheckWindowAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	serviceID := strings.TrimSpace(chi.URLParam(r, "id"))
	if serviceID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing service id", nil)
		return
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("start")))
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid start", nil)
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("end")))
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid end", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	svc, err := s.Store.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		log.Error("availability check: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	available, err := s.Engine.IsWindowAvailable(ctx, svc.ProviderID, serviceID, start, end)
	if err != nil {
		s.writeScheduleError(w, log, "availability check", err)
		return
	}

	log.Info("availability check: ok", slog.String("service_id", serviceID), slog.Bool("available", available))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"start":     start.UTC(),
		"end":       end.UTC(),
		"available": available,
	})
}

func (s *Server) writeScheduleError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		transport.WriteError(w, http.StatusNotFound, "service not found", nil)
	case errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidTime),
		errors.Is(err, schedule.ErrInvalidTimeRange),
		errors.Is(err, schedule.ErrInvalidTimezone):
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, schedule.ErrPrecondition):
		transport.WriteError(w, http.StatusUnprocessableEntity, "service is misconfigured", nil)
	default:
		log.Error(op+": engine error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}
