package core

import (
	"strings"
	"time"
)

// Campus ("polo") is one of the university's physical sites.
type Campus struct {
	// Key as used in the room document and in links (e.g. "fibonacci")
	Key string
	// Human-readable name (e.g. "Fibonacci")
	Title string
	// Room-code prefix used by the calendar system (e.g. "Fib")
	Prefix string
	// Provider type that serves this campus calendar ("unipi", "google", "ics")
	Provider   string
	CalendarID string
	Location   *time.Location
	// Lab code templates with a {num} placeholder, e.g. "LAB {num}"
	LabTemplates []string
	// BareCodes keeps the bare identifier ("A") among the match variants,
	// for calendars that label rooms without the campus prefix.
	BareCodes bool
}

// Room is an immutable entry of the room directory.
type Room struct {
	Name     string
	Building string
	Floor    string
	Campus   string
	// Zero when unknown
	Capacity int
	Aliases  []string
	// Companion site page for the room, if any
	ExternalLink string
}

// ShortCode returns the identifier used in links and callback data:
// the first non-blank alias, else the name.
func (r Room) ShortCode() string {
	for _, a := range r.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			return a
		}
	}
	return strings.TrimSpace(r.Name)
}

// NormalizeCode lower-cases a short code and drops spaces ("Aula A1" -> "aulaa1").
func NormalizeCode(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "")
}

// FloorLabel renders a floor key the way the directory does ("0" is the
// ground floor).
func FloorLabel(floor string) string {
	if floor == "0" {
		return "Piano Terra"
	}
	return "Piano " + floor
}

// Path is the breadcrumb shown under a room name:
// "Polo Fibonacci › Edificio C › Piano 1".
func (r Room) Path(campusTitle string) string {
	var parts []string
	if campusTitle != "" {
		parts = append(parts, "Polo "+campusTitle)
	}
	if r.Building != "" {
		parts = append(parts, "Edificio "+strings.ToUpper(r.Building))
	}
	if r.Floor != "" {
		parts = append(parts, FloorLabel(r.Floor))
	}
	return strings.Join(parts, " › ")
}

// Contains reports whether the name or an alias contains q, ignoring case.
func (r Room) Contains(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if strings.Contains(strings.ToLower(r.Name), q) {
		return true
	}
	for _, a := range r.Aliases {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}
