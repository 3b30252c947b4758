package core

import "strings"

// EventRoom is a space as labelled by the calendar system.
// These labels are NOT room directory names: "FIB A" in the calendar is
// "Aula A" in the directory.
type EventRoom struct {
	Code        string `json:"codice"`
	Description string `json:"descrizione"`
}

// Teacher is a lecturer attached to a calendar event. Sources fill either
// the split name fields or the combined display field.
type Teacher struct {
	GivenName  string `json:"nome"`
	FamilyName string `json:"cognome"`
	Display    string `json:"nominativo"`
}

// DisplayName prefers the combined field, falling back to "given family".
// Returns "" when the teacher carries no name at all.
func (t Teacher) DisplayName() string {
	if d := strings.TrimSpace(t.Display); d != "" {
		return d
	}
	return strings.TrimSpace(strings.TrimSpace(t.GivenName) + " " + strings.TrimSpace(t.FamilyName))
}

// All providers (agenda, Google, ICS) must convert their data to this format.
// Start and End stay raw (RFC 3339 with a fixed offset) so that a single
// malformed timestamp only drops its own event during resolution.
type CalendarEvent struct {
	// Lecture or meeting title, e.g. "Analisi Matematica - 123AA"
	Name     string      `json:"nome"`
	Rooms    []EventRoom `json:"aule"`
	Start    string      `json:"inizio"`
	End      string      `json:"fine"`
	Teachers []Teacher   `json:"docenti"`
}
