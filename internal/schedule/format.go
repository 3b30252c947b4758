// Package schedule renders occupancy results as text for the bot, the CLI
// and the API.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/occupancy"
	"github.com/dove-unipi/dove/internal/professor"
)

const clock = "15:04"

const (
	NoEvents      = "Nessun evento in programma"
	UnknownStatus = "⚪ Stato sconosciuto: calendario non raggiungibile"
)

var (
	weekdays = [...]string{"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"}
	months   = [...]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
		"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"}
)

// Formatter turns resolver output into text. The zero value renders
// Telegram Markdown without professor links.
type Formatter struct {
	Dialect    Dialect
	Professors *professor.Directory
}

func (f Formatter) dialect() Dialect {
	if f.Dialect == nil {
		return Markdown{}
	}
	return f.Dialect
}

// FormatStatus renders the "now" view: header, current status line and the
// upcoming events of the day.
func (f Formatter) FormatStatus(room core.Room, campus core.Campus, st occupancy.Status, ref time.Time) string {
	d := f.dialect()
	var b strings.Builder
	f.writeHeader(&b, room, campus)
	b.WriteString("\n")

	switch {
	case st.Current != nil:
		fmt.Fprintf(&b, "🔴 %s\n", d.Bold("Occupata fino alle "+st.BusyUntil.Format(clock)))
		b.WriteString("In corso: ")
		f.writeEvent(&b, *st.Current)
	case st.FreeUntil != nil:
		fmt.Fprintf(&b, "🟢 %s\n", d.Bold("Libera fino alle "+st.FreeUntil.Format(clock)))
	default:
		fmt.Fprintf(&b, "🟢 %s\n", d.Bold("Libera per il resto della giornata"))
	}

	b.WriteString("\n")
	b.WriteString(d.Bold("Prossimi eventi"))
	b.WriteString("\n")
	f.writeEvents(&b, st.Next)
	fmt.Fprintf(&b, "\nAggiornato alle %s", ref.Format(clock))
	return b.String()
}

// FormatUnknown replaces FormatStatus when the calendar could not be read.
// It never claims the room is free.
func (f Formatter) FormatUnknown(room core.Room, campus core.Campus, ref time.Time) string {
	var b strings.Builder
	f.writeHeader(&b, room, campus)
	fmt.Fprintf(&b, "\n%s\n\nAggiornato alle %s", UnknownStatus, ref.Format(clock))
	return b.String()
}

// FormatDaySchedule renders every event of the day in chronological order.
func (f Formatter) FormatDaySchedule(room core.Room, campus core.Campus, events []occupancy.ResolvedEvent, date time.Time) string {
	d := f.dialect()
	var b strings.Builder
	f.writeHeader(&b, room, campus)
	b.WriteString("\n")
	b.WriteString(d.Bold("Orario di " + DayLabel(date)))
	b.WriteString("\n")
	f.writeEvents(&b, events)
	return strings.TrimRight(b.String(), "\n")
}

// FormatDayUnknown replaces FormatDaySchedule when the calendar could not be read.
func (f Formatter) FormatDayUnknown(room core.Room, campus core.Campus, date time.Time) string {
	d := f.dialect()
	var b strings.Builder
	f.writeHeader(&b, room, campus)
	fmt.Fprintf(&b, "\n%s\n%s", d.Bold("Orario di "+DayLabel(date)), UnknownStatus)
	return b.String()
}

// DayLabel formats a date in Italian: "lunedì 10 marzo 2025".
func DayLabel(date time.Time) string {
	return fmt.Sprintf("%s %d %s %d", weekdays[date.Weekday()], date.Day(), months[date.Month()-1], date.Year())
}

func (f Formatter) writeHeader(b *strings.Builder, room core.Room, campus core.Campus) {
	d := f.dialect()
	b.WriteString(d.Bold(room.Name))
	b.WriteString("\n")
	if path := room.Path(campus.Title); path != "" {
		b.WriteString(d.Escape(path))
		b.WriteString("\n")
	}
	if room.ExternalLink != "" {
		b.WriteString(d.Link("Apri la mappa", room.ExternalLink))
		b.WriteString("\n")
	}
}

func (f Formatter) writeEvents(b *strings.Builder, events []occupancy.ResolvedEvent) {
	if len(events) == 0 {
		b.WriteString(NoEvents)
		b.WriteString("\n")
		return
	}
	for _, ev := range events {
		f.writeEvent(b, ev)
	}
}

// writeEvent prints one event as a fixed-width time range, the title and,
// on a second line, the teachers.
func (f Formatter) writeEvent(b *strings.Builder, ev occupancy.ResolvedEvent) {
	d := f.dialect()
	fmt.Fprintf(b, "%s %s\n", d.Code(ev.Start.Format(clock)+"-"+ev.End.Format(clock)), d.Escape(ev.Title))
	if ev.Teachers == "" {
		return
	}

	var names []string
	for _, m := range f.Professors.Resolve(ev.Teachers) {
		if m.Linked() {
			names = append(names, d.Link(m.Label, m.Link))
		} else {
			names = append(names, d.Escape(m.Name))
		}
	}
	fmt.Fprintf(b, "      👤 %s\n", strings.Join(names, ", "))
}
