package core

import "time"

// DayStore keeps the events fetched for one calendar day so that rooms
// sharing a calendar reuse a single fetch.
type DayStore interface {
	// Day returns the stored events for the calendar and local day.
	Day(calendarID string, day time.Time) ([]CalendarEvent, bool)
	// SaveDay stores a successful fetch. Failed fetches are never stored.
	SaveDay(calendarID string, day time.Time, events []CalendarEvent)
}
