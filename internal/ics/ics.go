// Package ics renders bookings as iCalendar (RFC 5545) documents so a
// confirmed slot can be dropped straight into the customer's calendar.
package ics

import (
	"strings"
	"time"

	"bookwise-backend/internal/models"
)

const icsTimeLayout = "20060102T150405Z"

type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Stamp       time.Time
	Status      string
}

// FromBooking maps a booking to a calendar event. Cancelled and no-show
// bookings carry STATUS:CANCELLED so calendar clients strike them through.
func FromBooking(booking models.Booking, service models.Service, provider models.Provider) Event {
	status := "CONFIRMED"
	switch booking.Status {
	case models.BookingStatusCancelled, models.BookingStatusNoShow:
		status = "CANCELLED"
	case models.BookingStatusPending:
		status = "TENTATIVE"
	}

	return Event{
		UID:         booking.ID + "@bookwise",
		Summary:     service.Name + " at " + provider.Name,
		Description: "Booking reference: " + booking.ID,
		Location:    provider.Name,
		Start:       booking.StartTime,
		End:         booking.EndTime,
		Stamp:       booking.CreatedAt,
		Status:      status,
	}
}

// Render produces a single-event VCALENDAR. All times are written as UTC
// instants; clients localize for display.
func Render(ev Event) string {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//bookwise//booking//EN")
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")
	writeLine(&b, "BEGIN:VEVENT")
	writeLine(&b, "UID:"+escapeText(ev.UID))
	writeLine(&b, "DTSTAMP:"+ev.Stamp.UTC().Format(icsTimeLayout))
	writeLine(&b, "DTSTART:"+ev.Start.UTC().Format(icsTimeLayout))
	writeLine(&b, "DTEND:"+ev.End.UTC().Format(icsTimeLayout))
	writeLine(&b, "SUMMARY:"+escapeText(ev.Summary))
	if ev.Description != "" {
		writeLine(&b, "DESCRIPTION:"+escapeText(ev.Description))
	}
	if ev.Location != "" {
		writeLine(&b, "LOCATION:"+escapeText(ev.Location))
	}
	if ev.Status != "" {
		writeLine(&b, "STATUS:"+ev.Status)
	}
	writeLine(&b, "END:VEVENT")
	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

// writeLine terminates with CRLF and folds content lines longer than 75
// octets, as the format requires.
func writeLine(b *strings.Builder, line string) {
	limit := 75
	for len(line) > limit {
		cut := limit
		// Do not split a multi-byte rune across the fold.
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines carry a leading space, leaving one octet less.
		limit = 74
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func isRuneStart(c byte) bool {
	return c&0xC0 != 0x80
}

func escapeText(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
	)
	return r.Replace(s)
}
