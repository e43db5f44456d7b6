package appointments

import (
	"fmt"
	"time"
)

// TimePolicy is the single time-validity rule applied by every mutating
// entry point: create, reschedule, and administrative updates all
// consult the same predicate.
type TimePolicy struct {
	OpenHour       int
	CloseHour      int
	ClosedWeekends bool
	Location       *time.Location
	ConflictWindow time.Duration
	SlotStep       time.Duration
}

// DefaultTimePolicy returns the standard clinic operating window:
// 08:00-18:00 local, closed weekends, half-hour slots with a
// ±30 minute conflict window.
func DefaultTimePolicy() TimePolicy {
	return TimePolicy{
		OpenHour:       8,
		CloseHour:      18,
		ClosedWeekends: true,
		Location:       time.UTC,
		ConflictWindow: 30 * time.Minute,
		SlotStep:       30 * time.Minute,
	}
}

func (p TimePolicy) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// ValidateTime checks a candidate appointment time against the clinic
// rules. Violations are reported, never clamped.
func (p TimePolicy) ValidateTime(now, candidate time.Time) error {
	if !candidate.After(now) {
		return newValidationError("scheduled_at", "must be in the future")
	}
	local := candidate.In(p.loc())
	if p.ClosedWeekends {
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return newValidationError("scheduled_at", "clinic is closed on weekends")
		}
	}
	if h := local.Hour(); h < p.OpenHour || h >= p.CloseHour {
		return newValidationError("scheduled_at",
			fmt.Sprintf("outside working hours (%02d:00-%02d:00)", p.OpenHour, p.CloseHour))
	}
	return nil
}

// InConflictWindow reports whether two scheduled times collide, i.e.
// lie within the conflict window of each other (inclusive bounds).
func (p TimePolicy) InConflictWindow(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= p.ConflictWindow
}

// FreeSlots enumerates the bookable ticks of a day: every SlotStep
// within working hours that is not within the conflict window of an
// existing non-terminal booking.
func (p TimePolicy) FreeSlots(day time.Time, booked []time.Time) []time.Time {
	local := day.In(p.loc())
	if p.ClosedWeekends {
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return nil
		}
	}
	open := time.Date(local.Year(), local.Month(), local.Day(), p.OpenHour, 0, 0, 0, p.loc())
	close := time.Date(local.Year(), local.Month(), local.Day(), p.CloseHour, 0, 0, 0, p.loc())

	var free []time.Time
	for t := open; t.Before(close); t = t.Add(p.SlotStep) {
		taken := false
		for _, b := range booked {
			if p.InConflictWindow(t, b) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, t)
		}
	}
	return free
}

// dayBounds returns the [start, end) of the calendar day containing t
// in the clinic timezone.
func (p TimePolicy) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(p.loc())
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc())
	return start, start.AddDate(0, 0, 1)
}
