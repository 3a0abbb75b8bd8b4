package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"bookwise-backend/internal/models"
)

const bookingConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hi {{.Name}},</p>
  <p>Your booking at {{.ProviderName}} is confirmed. Here are the details:</p>
  <ul>
    <li>Service: {{.ServiceName}}</li>
    <li>Date: {{.Date}}</li>
    <li>Time: {{.Time}}</li>
    <li>Duration: {{.DurationMinutes}} minutes</li>
    <li>Payment: {{.PaymentLabel}}</li>
    <li>Price: {{.Price}}</li>
    <li>Booking reference: {{.BookingID}}</li>
  </ul>
  <p>Need to cancel? Use your booking reference on the booking page.</p>
  <p>See you soon.</p>
</body>
</html>`

const bookingCancellationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hi {{.Name}},</p>
  <p>Your booking at {{.ProviderName}} has been cancelled.</p>
  <ul>
    <li>Service: {{.ServiceName}}</li>
    <li>Date: {{.Date}}</li>
    <li>Time: {{.Time}}</li>
    <li>Booking reference: {{.BookingID}}</li>
  </ul>
  <p>You are welcome to book a new time at any point.</p>
</body>
</html>`

var (
	bookingConfirmationTmpl = template.Must(template.New("booking_confirmation").Parse(bookingConfirmationTemplate))
	bookingCancellationTmpl = template.Must(template.New("booking_cancellation").Parse(bookingCancellationTemplate))
)

type bookingEmailData struct {
	Name            string
	ProviderName    string
	ServiceName     string
	Date            string
	Time            string
	DurationMinutes int
	PaymentLabel    string
	Price           string
	BookingID       string
}

func buildBookingEmailData(booking models.Booking, service models.Service, provider models.Provider) bookingEmailData {
	loc, err := time.LoadLocation(provider.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start := booking.StartTime.In(loc)

	return bookingEmailData{
		Name:            booking.CustomerName,
		ProviderName:    provider.Name,
		ServiceName:     service.Name,
		Date:            start.Format("Monday, 2 January 2006"),
		Time:            start.Format("15:04"),
		DurationMinutes: service.DurationMinutes,
		PaymentLabel:    paymentMethodLabel(booking.PaymentMethod),
		Price:           formatPrice(booking.PriceCents, booking.Currency),
		BookingID:       booking.ID,
	}
}

func buildBookingConfirmationHTML(booking models.Booking, service models.Service, provider models.Provider) (string, error) {
	var buf bytes.Buffer
	if err := bookingConfirmationTmpl.Execute(&buf, buildBookingEmailData(booking, service, provider)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildBookingCancellationHTML(booking models.Booking, service models.Service, provider models.Provider) (string, error) {
	var buf bytes.Buffer
	if err := bookingCancellationTmpl.Execute(&buf, buildBookingEmailData(booking, service, provider)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func paymentMethodLabel(value string) string {
	switch value {
	case models.PaymentOnline:
		return "Paid online"
	case models.PaymentPlace:
		return "Pay on arrival"
	default:
		return value
	}
}

func formatPrice(cents int, currency string) string {
	if currency == "" {
		currency = "NOK"
	}
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}
