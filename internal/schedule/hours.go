package schedule

import (
	"time"

	"bookwise-backend/internal/models"
)

// Default policy applied when a provider has no business-hours rules at all:
// open 09:00-17:00 Monday through Friday, closed on weekends.
const (
	DefaultOpenTime  = "09:00"
	DefaultCloseTime = "17:00"
)

// OpenIntervals resolves the open window(s) for one calendar day. day must be
// local midnight in the timezone the caller resolved for the provider.
//
// With zero rules configured the default weekday policy applies. With rules
// configured, a missing rule for the weekday or an isOpen=false rule means the
// day is closed (empty result). One interval per day today; the slice return
// leaves room for split shifts.
func OpenIntervals(rules []models.BusinessHoursRule, day time.Time) ([]Interval, error) {
	if len(rules) == 0 {
		return defaultOpenIntervals(day)
	}

	weekday := int(day.Weekday())
	for _, rule := range rules {
		if rule.DayOfWeek != weekday {
			continue
		}
		if !rule.IsOpen {
			return nil, nil
		}
		open, err := clockOnDay(day, rule.OpenTime)
		if err != nil {
			return nil, err
		}
		close, err := clockOnDay(day, rule.CloseTime)
		if err != nil {
			return nil, err
		}
		iv := Interval{Start: open, End: close}
		if !iv.IsValid() {
			return nil, ErrInvalidTimeRange
		}
		return []Interval{iv}, nil
	}

	return nil, nil
}

func defaultOpenIntervals(day time.Time) ([]Interval, error) {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return nil, nil
	}
	open, err := clockOnDay(day, DefaultOpenTime)
	if err != nil {
		return nil, err
	}
	close, err := clockOnDay(day, DefaultCloseTime)
	if err != nil {
		return nil, err
	}
	return []Interval{{Start: open, End: close}}, nil
}
