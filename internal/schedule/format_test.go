package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/occupancy"
	"github.com/dove-unipi/dove/internal/professor"
)

var (
	room   = core.Room{Name: "Aula A", Building: "c", Floor: "0", Campus: "fibonacci"}
	campus = core.Campus{Key: "fibonacci", Title: "Fibonacci", Location: time.UTC}
)

func hm(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestFormatStatusBusy(t *testing.T) {
	current := occupancy.ResolvedEvent{Title: "Analisi_1", Start: hm(9, 0), End: hm(11, 0), Teachers: "Mario Rossi"}
	st := occupancy.Status{
		Current:   &current,
		BusyUntil: ptr(hm(11, 0)),
		Next:      []occupancy.ResolvedEvent{{Title: "Algebra", Start: hm(11, 0), End: hm(13, 0)}},
	}
	f := Formatter{Professors: professor.NewDirectory([]professor.Person{{Name: "Rossi Mario", Link: "https://x/r"}})}

	got := f.FormatStatus(room, campus, st, hm(10, 0))

	for _, want := range []string{
		"*Aula A*\nPolo Fibonacci › Edificio C › Piano Terra\n",
		"🔴 *Occupata fino alle 11:00*",
		"In corso: `09:00-11:00` Analisi\\_1\n      👤 [ROSSI](https://x/r)\n",
		"*Prossimi eventi*\n`11:00-13:00` Algebra\n",
		"Aggiornato alle 10:00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
}

func TestFormatStatusFree(t *testing.T) {
	f := Formatter{}

	got := f.FormatStatus(room, campus, occupancy.Status{IsFree: true, FreeUntil: ptr(hm(14, 30)),
		Next: []occupancy.ResolvedEvent{{Title: "Fisica", Start: hm(14, 30), End: hm(16, 0), Teachers: "Luca Verdi"}}}, hm(12, 0))
	if !strings.Contains(got, "🟢 *Libera fino alle 14:30*") {
		t.Errorf("missing free-until line in\n%s", got)
	}
	if !strings.Contains(got, "👤 Luca Verdi") {
		t.Errorf("unlinked teacher should be shown by name in\n%s", got)
	}

	got = f.FormatStatus(room, campus, occupancy.Status{IsFree: true}, hm(18, 0))
	if !strings.Contains(got, "Libera per il resto della giornata") {
		t.Errorf("missing rest-of-day line in\n%s", got)
	}
	if !strings.Contains(got, "*Prossimi eventi*\n"+NoEvents) {
		t.Errorf("empty listing should say so explicitly:\n%s", got)
	}
}

func TestFormatUnknownNeverSaysFree(t *testing.T) {
	got := Formatter{}.FormatUnknown(room, campus, hm(10, 0))
	if !strings.Contains(got, UnknownStatus) || strings.Contains(got, "Libera") {
		t.Fatalf("unexpected unknown rendering:\n%s", got)
	}
	got = Formatter{}.FormatDayUnknown(room, campus, hm(0, 0))
	if !strings.Contains(got, UnknownStatus) || strings.Contains(got, NoEvents) {
		t.Fatalf("unexpected unknown day rendering:\n%s", got)
	}
}

func TestFormatDaySchedule(t *testing.T) {
	events := []occupancy.ResolvedEvent{
		{Title: "Analisi", Start: hm(9, 0), End: hm(11, 0)},
		{Title: "Algebra", Start: hm(11, 0), End: hm(13, 0)},
	}
	r := room
	r.ExternalLink = "https://example.org/map?p=fibonacci&c=a"

	got := Formatter{}.FormatDaySchedule(r, campus, events, hm(0, 0))
	want := "*Aula A*\n" +
		"Polo Fibonacci › Edificio C › Piano Terra\n" +
		"[Apri la mappa](https://example.org/map?p=fibonacci&c=a)\n" +
		"\n" +
		"*Orario di lunedì 10 marzo 2025*\n" +
		"`09:00-11:00` Analisi\n" +
		"`11:00-13:00` Algebra"
	if got != want {
		t.Fatalf("FormatDaySchedule =\n%s\nwant\n%s", got, want)
	}

	empty := Formatter{}.FormatDaySchedule(room, campus, nil, hm(0, 0))
	if !strings.HasSuffix(empty, NoEvents) {
		t.Fatalf("empty day should end with %q:\n%s", NoEvents, empty)
	}
}

func TestPlainDialect(t *testing.T) {
	f := Formatter{Dialect: Plain{}, Professors: professor.NewDirectory([]professor.Person{{Name: "Rossi Mario", Link: "https://x/r"}})}
	got := f.FormatDaySchedule(room, campus, []occupancy.ResolvedEvent{
		{Title: "Analisi_1", Start: hm(9, 0), End: hm(11, 0), Teachers: "Rossi Mario"},
	}, hm(0, 0))
	if strings.ContainsAny(got, "*`[") {
		t.Fatalf("plain output contains markup:\n%s", got)
	}
	if !strings.Contains(got, "09:00-11:00 Analisi_1\n      👤 ROSSI") {
		t.Fatalf("unexpected plain output:\n%s", got)
	}
}

func TestMarkdownEscape(t *testing.T) {
	if got, want := (Markdown{}).Escape("a_b*c`d[e]"), "a\\_b\\*c\\`d\\[e]"; got != want {
		t.Fatalf("Escape = %q, want %q", got, want)
	}
	if got, want := (Markdown{}).Link("x", "https://h/a (b)"), "[x](https://h/a%20(b%29)"; got != want {
		t.Fatalf("Link = %q, want %q", got, want)
	}
}

func TestMarkdownEntitiesCarryNoEscapes(t *testing.T) {
	r := core.Room{Name: "Aula_B *nuova*", Building: "c", Floor: "0", Campus: "fibonacci"}
	f := Formatter{Professors: professor.NewDirectory([]professor.Person{{Name: "Neri_Anna", Link: "https://x/n"}})}

	got := f.FormatDaySchedule(r, campus, []occupancy.ResolvedEvent{
		{Title: "Lab_1", Start: hm(9, 0), End: hm(11, 0), Teachers: "Neri_Anna"},
	}, hm(0, 0))

	for _, want := range []string{"*Aula_B nuova*\n", "[NERI_ANNA](https://x/n)", "Lab\\_1"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
	if strings.Contains(got, "Aula\\_B") || strings.Contains(got, "NERI\\_") {
		t.Errorf("escape inside an entity:\n%s", got)
	}
	if got := (Markdown{}).Link("a[b]", "https://h"); got != "[a(b)](https://h)" {
		t.Errorf("Link = %q", got)
	}
}

func TestDayLabel(t *testing.T) {
	if got := DayLabel(time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC)); got != "domenica 7 dicembre 2025" {
		t.Fatalf("DayLabel = %q", got)
	}
}
