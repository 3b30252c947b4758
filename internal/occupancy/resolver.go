// Package occupancy decides whether a room is free or busy from one day of
// calendar events. Everything here is pure: no I/O, no clock reads, no
// shared state, so it is safe to call from any number of handlers at once.
package occupancy

import (
	"sort"
	"strings"
	"time"

	"github.com/dove-unipi/dove/internal/core"
	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/match"
)

// MaxNextEvents caps Status.Next. Callers needing more re-query with a later
// reference instant.
const MaxNextEvents = 5

// ResolvedEvent is a calendar event attributed to one room, in campus time.
type ResolvedEvent struct {
	Title string
	Start time.Time
	End   time.Time
	// Comma-separated teacher names, "" when none
	Teachers string
}

// Status is the free/busy determination for a room at one instant.
// Exactly one of IsFree or Current != nil holds.
type Status struct {
	IsFree bool
	// Start of the next event while free; nil when free for the rest of the day
	FreeUntil *time.Time
	// End of the current event while busy
	BusyUntil *time.Time
	Current   *ResolvedEvent
	// Events starting strictly after the reference instant, ascending
	Next []ResolvedEvent
}

// Rules builds the variant rules configured for a campus.
func Rules(campus core.Campus) match.Rules {
	return match.Rules{
		Prefix:       campus.Prefix,
		LabTemplates: campus.LabTemplates,
		BareCodes:    campus.BareCodes,
	}
}

// Attribute returns the events of the local day containing day that belong
// to roomName, sorted by start. Events with unparseable timestamps are
// logged and skipped.
func Attribute(roomName string, campus core.Campus, events []core.CalendarEvent, day time.Time) []ResolvedEvent {
	loc := location(campus)
	variants := match.NewVariantSet(match.BuildMatchVariants(roomName, Rules(campus)))
	y, m, d := day.In(loc).Date()

	var out []ResolvedEvent
	for _, ev := range events {
		if !attributed(ev, variants) {
			continue
		}

		start, err := parseInstant(ev.Start)
		if err != nil {
			appLog.Error("skipping event with bad start", err, "room", roomName, "event", ev.Name)
			continue
		}
		end, err := parseInstant(ev.End)
		if err != nil {
			appLog.Error("skipping event with bad end", err, "room", roomName, "event", ev.Name)
			continue
		}
		start, end = start.In(loc), end.In(loc)

		// Adjacent-day data or events spanning midnight from the day before.
		if sy, sm, sd := start.Date(); sy != y || sm != m || sd != d {
			continue
		}

		out = append(out, ResolvedEvent{
			Title:    Title(ev.Name),
			Start:    start,
			End:      end,
			Teachers: TeacherNames(ev.Teachers),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Resolve computes the status of roomName at ref. A ref in another zone is
// converted to the campus zone before any comparison.
func Resolve(roomName string, campus core.Campus, events []core.CalendarEvent, ref time.Time) Status {
	ref = ref.In(location(campus))
	return StatusAt(Attribute(roomName, campus, events, ref), ref)
}

// StatusAt walks events (sorted by start) and derives the status at ref.
// The current-event interval is [Start, End): on back-to-back events the
// boundary instant belongs to the later one.
func StatusAt(events []ResolvedEvent, ref time.Time) Status {
	st := Status{IsFree: true}

	for i := range events {
		ev := events[i]
		if !ref.Before(ev.Start) && ref.Before(ev.End) {
			end := ev.End
			st.IsFree = false
			st.Current = &ev
			st.BusyUntil = &end
			break
		}
		if ev.Start.After(ref) {
			start := ev.Start
			st.FreeUntil = &start
			break
		}
	}

	for _, ev := range events {
		if len(st.Next) == MaxNextEvents {
			break
		}
		if ev.Start.After(ref) {
			st.Next = append(st.Next, ev)
		}
	}
	return st
}

// Title returns the trimmed text before the first dash; course codes follow
// it. A name that starts with a dash has an empty title.
func Title(name string) string {
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// TeacherNames joins teacher display names with ", ", omitting nameless ones.
func TeacherNames(teachers []core.Teacher) string {
	var names []string
	for _, t := range teachers {
		if n := t.DisplayName(); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

// attributed reports whether one of the event rooms matches. The first
// matching room entry wins, so an event listing the room twice still counts once.
func attributed(ev core.CalendarEvent, variants match.VariantSet) bool {
	for _, r := range ev.Rooms {
		if variants.Matches(r.Code) || variants.Matches(r.Description) {
			return true
		}
	}
	return false
}

var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

func parseInstant(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var err error
	for _, layout := range instantLayouts {
		var t time.Time
		if t, err = time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func location(campus core.Campus) *time.Location {
	if campus.Location == nil {
		return time.Local
	}
	return campus.Location
}
