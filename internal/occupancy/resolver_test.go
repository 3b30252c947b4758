package occupancy

import (
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/dove-unipi/dove/internal/core"
	appLog "github.com/dove-unipi/dove/internal/log"
)

func fibonacci(t *testing.T) core.Campus {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return core.Campus{Key: "fibonacci", Prefix: "Fib", Location: loc, BareCodes: true}
}

func at(t *testing.T, campus core.Campus, hhmm string) time.Time {
	t.Helper()
	ref, err := time.ParseInLocation("2006-01-02 15:04", "2025-03-10 "+hhmm, campus.Location)
	if err != nil {
		t.Fatalf("parse %q: %v", hhmm, err)
	}
	return ref
}

func event(name, code, start, end string, teachers ...core.Teacher) core.CalendarEvent {
	return core.CalendarEvent{
		Name:     name,
		Rooms:    []core.EventRoom{{Code: code, Description: code}},
		Start:    start,
		End:      end,
		Teachers: teachers,
	}
}

func backToBack() []core.CalendarEvent {
	return []core.CalendarEvent{
		event("Algebra - 123AA", "FIB A", "2025-03-10T11:00:00+01:00", "2025-03-10T13:00:00+01:00"),
		event("Analisi - 456BB", "FIB A", "2025-03-10T09:00:00+01:00", "2025-03-10T11:00:00+01:00"),
	}
}

func TestResolveBoundaryBelongsToLaterEvent(t *testing.T) {
	campus := fibonacci(t)
	st := Resolve("Aula A", campus, backToBack(), at(t, campus, "11:00"))

	if st.IsFree || st.Current == nil {
		t.Fatalf("expected busy at 11:00, got %+v", st)
	}
	if st.Current.Title != "Algebra" {
		t.Errorf("current = %q, want Algebra", st.Current.Title)
	}
	if want := at(t, campus, "13:00"); st.BusyUntil == nil || !st.BusyUntil.Equal(want) {
		t.Errorf("busy until = %v, want %v", st.BusyUntil, want)
	}
	if st.FreeUntil != nil {
		t.Errorf("free until should be nil while busy, got %v", st.FreeUntil)
	}
}

func TestResolveFreeBeforeFirstEvent(t *testing.T) {
	campus := fibonacci(t)
	st := Resolve("Aula A", campus, backToBack(), at(t, campus, "08:59"))

	if !st.IsFree || st.Current != nil {
		t.Fatalf("expected free at 08:59, got %+v", st)
	}
	if want := at(t, campus, "09:00"); st.FreeUntil == nil || !st.FreeUntil.Equal(want) {
		t.Errorf("free until = %v, want %v", st.FreeUntil, want)
	}
	if len(st.Next) != 2 || st.Next[0].Title != "Analisi" {
		t.Errorf("next = %+v", st.Next)
	}
}

func TestResolveFreeForRestOfDay(t *testing.T) {
	campus := fibonacci(t)
	st := Resolve("Aula A", campus, backToBack(), at(t, campus, "13:00"))

	if !st.IsFree || st.FreeUntil != nil || len(st.Next) != 0 {
		t.Fatalf("expected free for the rest of the day, got %+v", st)
	}
}

func TestResolveIgnoresOtherRooms(t *testing.T) {
	campus := fibonacci(t)
	events := []core.CalendarEvent{
		event("Fisica", "FIB B", "2025-03-10T09:00:00+01:00", "2025-03-10T11:00:00+01:00"),
		event("Chimica", "FIB AB", "2025-03-10T09:00:00+01:00", "2025-03-10T11:00:00+01:00"),
	}
	ref := at(t, campus, "10:00")

	if st := Resolve("Aula A", campus, events, ref); !st.IsFree || len(st.Next) != 0 {
		t.Errorf("Aula A picked up foreign events: %+v", st)
	}
	st := Resolve("Aula B", campus, events, ref)
	if st.IsFree || st.Current.Title != "Fisica" {
		t.Errorf("Aula B should be busy with Fisica, got %+v", st)
	}
}

func TestResolveMatchesDescription(t *testing.T) {
	campus := fibonacci(t)
	ev := event("Logica", "X-17", "2025-03-10T09:00:00+01:00", "2025-03-10T11:00:00+01:00")
	ev.Rooms[0].Description = "fib a"

	st := Resolve("Aula A", campus, []core.CalendarEvent{ev}, at(t, campus, "09:30"))
	if st.IsFree {
		t.Fatalf("expected description match, got %+v", st)
	}
}

func TestAttributeCountsEventOnce(t *testing.T) {
	campus := fibonacci(t)
	ev := event("Logica", "FIB A", "2025-03-10T09:00:00+01:00", "2025-03-10T11:00:00+01:00")
	ev.Rooms = append(ev.Rooms, core.EventRoom{Code: "A", Description: "Aula A"})

	got := Attribute("Aula A", campus, []core.CalendarEvent{ev}, at(t, campus, "00:00"))
	if len(got) != 1 {
		t.Fatalf("attributed %d times, want 1", len(got))
	}
}

func TestAttributeDropsOtherDays(t *testing.T) {
	campus := fibonacci(t)
	events := []core.CalendarEvent{
		// 23:30 UTC on the 9th is 00:30 on the 10th in Rome
		event("Notturno", "FIB A", "2025-03-09T23:30:00Z", "2025-03-10T01:00:00Z"),
		event("Ieri", "FIB A", "2025-03-09T22:00:00+01:00", "2025-03-10T02:00:00+01:00"),
		event("Domani", "FIB A", "2025-03-11T09:00:00+01:00", "2025-03-11T10:00:00+01:00"),
	}

	got := Attribute("Aula A", campus, events, at(t, campus, "12:00"))
	if len(got) != 1 || got[0].Title != "Notturno" {
		t.Fatalf("got %+v, want only Notturno", got)
	}
	if got[0].Start.Location() != campus.Location {
		t.Errorf("start not converted to campus zone: %v", got[0].Start)
	}
}

func TestAttributeSkipsMalformedEvents(t *testing.T) {
	appLog.SetOutput(io.Discard)
	campus := fibonacci(t)
	events := []core.CalendarEvent{
		event("Rotto", "FIB A", "ieri mattina", "2025-03-10T10:00:00+01:00"),
		event("Rotto anche", "FIB A", "2025-03-10T09:00:00+01:00", ""),
		event("Buono", "FIB A", "2025-03-10T14:00:00+01:00", "2025-03-10T16:00:00+01:00"),
	}

	got := Attribute("Aula A", campus, events, at(t, campus, "08:00"))
	if len(got) != 1 || got[0].Title != "Buono" {
		t.Fatalf("got %+v, want only Buono", got)
	}
}

func TestResolveNextEventsCapped(t *testing.T) {
	campus := fibonacci(t)
	var events []core.CalendarEvent
	// Inserted in reverse to exercise sorting.
	for h := 18; h >= 9; h-- {
		start := time.Date(2025, 3, 10, h, 0, 0, 0, campus.Location)
		events = append(events, event("Lezione", "FIB A",
			start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339)))
	}

	st := Resolve("Aula A", campus, events, at(t, campus, "08:00"))
	if len(st.Next) != MaxNextEvents {
		t.Fatalf("len(next) = %d, want %d", len(st.Next), MaxNextEvents)
	}
	for i := 1; i < len(st.Next); i++ {
		if !st.Next[i-1].Start.Before(st.Next[i].Start) {
			t.Errorf("next not ascending at %d: %v, %v", i, st.Next[i-1].Start, st.Next[i].Start)
		}
	}
	if st.Next[0].Start.Hour() != 9 {
		t.Errorf("first next at %v, want 09:00", st.Next[0].Start)
	}
}

func TestResolveFreeIffNoCurrent(t *testing.T) {
	campus := fibonacci(t)
	events := backToBack()
	for _, hhmm := range []string{"00:00", "08:59", "09:00", "10:59", "11:00", "12:59", "13:00", "23:59"} {
		st := Resolve("Aula A", campus, events, at(t, campus, hhmm))
		if st.IsFree != (st.Current == nil) {
			t.Errorf("%s: IsFree=%v Current=%v", hhmm, st.IsFree, st.Current)
		}
		if st.IsFree == (st.BusyUntil != nil) {
			t.Errorf("%s: IsFree=%v BusyUntil=%v", hhmm, st.IsFree, st.BusyUntil)
		}
	}
}

func TestResolveConvertsForeignReference(t *testing.T) {
	campus := fibonacci(t)
	// 10:00 UTC is 11:00 in Rome during winter time.
	ref := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	st := Resolve("Aula A", campus, backToBack(), ref)
	if st.Current == nil || st.Current.Title != "Algebra" {
		t.Fatalf("expected Algebra at 11:00 local, got %+v", st)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	campus := fibonacci(t)
	ref := at(t, campus, "10:00")
	a := Resolve("Aula A", campus, backToBack(), ref)
	b := Resolve("Aula A", campus, backToBack(), ref)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"Analisi Matematica - 123AA": "Analisi Matematica",
		"Seminario":                  "Seminario",
		"  Fisica-II - x ":           "Fisica",
		"- solo codice":              "",
		"  - 123AA":                  "",
	}
	for in, want := range tests {
		if got := Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTeacherNames(t *testing.T) {
	got := TeacherNames([]core.Teacher{
		{Display: "Gianna Del Corso", GivenName: "ignored"},
		{GivenName: "Mario", FamilyName: "Rossi"},
		{},
		{FamilyName: "Bianchi"},
	})
	if want := "Gianna Del Corso, Mario Rossi, Bianchi"; got != want {
		t.Fatalf("TeacherNames = %q, want %q", got, want)
	}
}
