package schedule

import (
	"time"

	"bookwise-backend/internal/models"
)

// Candidate pairs the bookable window shown to the customer with the effective
// window used for conflict checking. The effective window widens the offered
// one by the service buffers; buffers reserve time but are never offered.
type Candidate struct {
	Offered   Interval
	Effective Interval
}

// Candidates enumerates candidate windows across the day's open intervals.
//
// The cursor starts at the open time and advances by the slot interval (the
// service duration when none is configured). A candidate is kept while its
// duration plus buffer-after still fits before closing. Buffer-before is
// allowed to bleed before opening: it is provider prep time, not customer
// time, so only the offered window must sit inside business hours.
//
// A closed day, or a service too long for the open span, yields no candidates
// rather than an error.
func Candidates(svc models.Service, open []Interval) []Candidate {
	duration := time.Duration(svc.DurationMinutes) * time.Minute
	if duration <= 0 {
		return nil
	}
	before := time.Duration(svc.BufferBeforeMinutes) * time.Minute
	after := time.Duration(svc.BufferAfterMinutes) * time.Minute

	step := duration
	if svc.SlotIntervalMinutes > 0 {
		step = time.Duration(svc.SlotIntervalMinutes) * time.Minute
	}

	candidates := make([]Candidate, 0)
	for _, window := range open {
		for t := window.Start; !t.Add(duration + after).After(window.End); t = t.Add(step) {
			offered := Interval{Start: t, End: t.Add(duration)}
			candidates = append(candidates, Candidate{
				Offered:   offered,
				Effective: offered.Expand(before, after),
			})
		}
	}
	return candidates
}
