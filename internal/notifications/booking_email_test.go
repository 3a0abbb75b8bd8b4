package notifications

import (
	"strings"
	"testing"
	"time"

	"bookwise-backend/internal/models"
)

func fixtureBooking() (models.Booking, models.Service, models.Provider) {
	booking := models.Booking{
		ID:            "bk-1",
		CustomerName:  "Kari Nordmann",
		CustomerEmail: "kari@example.com",
		StartTime:     time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		PaymentMethod: models.PaymentPlace,
		PriceCents:    45000,
		Currency:      "NOK",
	}
	service := models.Service{Name: "Haircut", DurationMinutes: 60}
	provider := models.Provider{Name: "Oslo Hair", Timezone: "Europe/Oslo"}
	return booking, service, provider
}

func TestConfirmationRendersLocalTime(t *testing.T) {
	booking, service, provider := fixtureBooking()

	html, err := buildBookingConfirmationHTML(booking, service, provider)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	// 09:00 UTC is 10:00 in Oslo during CET.
	for _, want := range []string{"Kari Nordmann", "Haircut", "Oslo Hair", "10:00", "Wednesday, 4 March 2026", "450.00 NOK", "bk-1", "Pay on arrival"} {
		if !strings.Contains(html, want) {
			t.Fatalf("confirmation missing %q:\n%s", want, html)
		}
	}
}

func TestConfirmationFallsBackToUTC(t *testing.T) {
	booking, service, provider := fixtureBooking()
	provider.Timezone = "Not/AZone"

	html, err := buildBookingConfirmationHTML(booking, service, provider)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(html, "09:00") {
		t.Fatalf("expected UTC fallback time in:\n%s", html)
	}
}

func TestCancellationRendersReference(t *testing.T) {
	booking, service, provider := fixtureBooking()

	html, err := buildBookingCancellationHTML(booking, service, provider)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !strings.Contains(html, "cancelled") || !strings.Contains(html, "bk-1") {
		t.Fatalf("cancellation missing expected content:\n%s", html)
	}
}

func TestNewBrevoClientRequiresKeyAndSender(t *testing.T) {
	if c := NewBrevoClient("", "sender@example.com", "Sender", false); c != nil {
		t.Fatalf("expected nil client without api key")
	}
	if c := NewBrevoClient("key", "", "Sender", false); c != nil {
		t.Fatalf("expected nil client without sender email")
	}
	if c := NewBrevoClient("key", "sender@example.com", "", true); c == nil {
		t.Fatalf("expected client with key and sender")
	}
}
