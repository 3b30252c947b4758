package core

import (
	"context"
	"time"
)

// DayWindow returns local midnight-to-midnight bounds for the calendar day
// of t in loc.
func DayWindow(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1)
	return start, end
}

// Provider represents a calendar source (university agenda, Google, ICS feed).
type Provider interface {
	// Name returns a human-readable label (e.g. "Agenda didattica")
	Name() string
	// FetchDay retrieves every event of the calendar for the local day that
	// contains day. The day boundary is midnight-to-midnight in day's location.
	// This should block until done or context is cancelled.
	FetchDay(ctx context.Context, calendarID string, day time.Time) ([]CalendarEvent, error)
}
