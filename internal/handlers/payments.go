package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"bookwise-backend/internal/models"
	"bookwise-backend/internal/schedule"
	"bookwise-backend/internal/transport"
)

type PaymentIntentRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
}

type PaymentIntentResponse struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Status       string `json:"status"`
	Amount       int    `json:"amount"`
	Currency     string `json:"currency"`
	Method       string `json:"method"`
}

// CreatePaymentIntent opens a Stripe payment intent for an online-payment
// booking. Pay-on-arrival bookings get "not_required" so the frontend can
// skip the payment step.
func (s *Server) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	booking, err := s.Store.GetBooking(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "booking not found", nil)
			return
		}
		log.Error("payment intent: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	currency := booking.Currency
	if currency == "" {
		currency = "NOK"
	}

	if booking.PaymentMethod != models.PaymentOnline {
		transport.WriteJSON(w, http.StatusOK, PaymentIntentResponse{
			Status:   "not_required",
			Amount:   booking.PriceCents,
			Currency: currency,
			Method:   booking.PaymentMethod,
		})
		return
	}

	if s.Cfg.StripeSecretKey == "" {
		log.Warn("payment intent: stripe not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "online payment not configured", nil)
		return
	}

	stripe.Key = s.Cfg.StripeSecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(booking.PriceCents)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("bookingId", booking.ID)
	params.IdempotencyKey = stripe.String("booking-intent-" + booking.ID)

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Error("payment intent: stripe error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadGateway, "payment provider error", nil)
		return
	}

	log.Info("payment intent: ok", slog.String("booking_id", booking.ID), slog.String("intent_id", intent.ID))
	transport.WriteJSON(w, http.StatusOK, PaymentIntentResponse{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Amount:       booking.PriceCents,
		Currency:     currency,
		Method:       booking.PaymentMethod,
	})
}
