package ics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appLog "github.com/dove-unipi/dove/internal/log"
)

var feed = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//dove//test//IT",
	"BEGIN:VEVENT",
	"UID:lesson-1",
	"SUMMARY:Analisi - 123AA",
	"LOCATION:FIB A, FIB B",
	"ORGANIZER;CN=Mario Rossi:mailto:mario.rossi@unipi.it",
	"DTSTART;TZID=Europe/Rome:20250310T090000",
	"DTEND;TZID=Europe/Rome:20250310T110000",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:lesson-utc",
	"SUMMARY:Fisica",
	"LOCATION:FIB C",
	"DTSTART:20250310T130000Z",
	"DTEND:20250310T150000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:floating",
	"SUMMARY:Seminario",
	"LOCATION:FIB A",
	"DTSTART:20250310T080000",
	"DTEND:20250310T083000",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:tomorrow",
	"SUMMARY:Domani",
	"LOCATION:FIB A",
	"DTSTART;TZID=Europe/Rome:20250311T090000",
	"DTEND;TZID=Europe/Rome:20250311T100000",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:holiday",
	"SUMMARY:Festa",
	"DTSTART;VALUE=DATE:20250310",
	"DTEND;VALUE=DATE:20250311",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:weekly",
	"SUMMARY:Laboratorio",
	"LOCATION:FIB H",
	"ATTENDEE;CN=Anna Bianchi:mailto:anna.bianchi@unipi.it",
	"DTSTART;TZID=Europe/Rome:20250303T160000",
	"DTEND;TZID=Europe/Rome:20250303T180000",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:excluded",
	"SUMMARY:Esercitazione",
	"LOCATION:FIB I",
	"DTSTART;TZID=Europe/Rome:20250303T120000",
	"DTEND;TZID=Europe/Rome:20250303T130000",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE;TZID=Europe/Rome:20250310T120000",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:moved",
	"SUMMARY:Ricevimento",
	"LOCATION:FIB L",
	"DTSTART;TZID=Europe/Rome:20250303T100000",
	"DTEND;TZID=Europe/Rome:20250303T110000",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:moved",
	"SUMMARY:Ricevimento",
	"LOCATION:FIB L",
	"RECURRENCE-ID;TZID=Europe/Rome:20250310T100000",
	"DTSTART;TZID=Europe/Rome:20250310T170000",
	"DTEND;TZID=Europe/Rome:20250310T180000",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func day(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatal(err)
	}
	return time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
}

func TestParse(t *testing.T) {
	appLog.SetOutput(io.Discard)

	events, err := Parse([]byte(feed), day(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	starts := map[string]string{}
	for _, ev := range events {
		if _, dup := starts[ev.Name]; dup {
			t.Fatalf("%q listed twice: %+v", ev.Name, events)
		}
		starts[ev.Name] = ev.Start + "/" + ev.End
	}

	want := map[string]string{
		"Analisi - 123AA": "2025-03-10T09:00:00+01:00/2025-03-10T11:00:00+01:00",
		"Fisica":          "2025-03-10T13:00:00Z/2025-03-10T15:00:00Z",
		"Seminario":       "2025-03-10T08:00:00+01:00/2025-03-10T08:30:00+01:00",
		"Laboratorio":     "2025-03-10T16:00:00+01:00/2025-03-10T18:00:00+01:00",
		"Ricevimento":     "2025-03-10T17:00:00+01:00/2025-03-10T18:00:00+01:00",
	}
	if len(starts) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(starts), len(want), starts)
	}
	for name, w := range want {
		if starts[name] != w {
			t.Errorf("%s = %q, want %q", name, starts[name], w)
		}
	}
}

func TestParseRoomsAndTeachers(t *testing.T) {
	appLog.SetOutput(io.Discard)

	events, err := Parse([]byte(feed), day(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range events {
		switch ev.Name {
		case "Analisi - 123AA":
			if len(ev.Rooms) != 2 || ev.Rooms[0].Code != "FIB A" || ev.Rooms[1].Code != "FIB B" {
				t.Errorf("rooms = %+v", ev.Rooms)
			}
			if len(ev.Teachers) != 1 || ev.Teachers[0].DisplayName() != "Mario Rossi" {
				t.Errorf("teachers = %+v", ev.Teachers)
			}
		case "Laboratorio":
			if len(ev.Teachers) != 1 || ev.Teachers[0].DisplayName() != "Anna Bianchi" {
				t.Errorf("teachers = %+v", ev.Teachers)
			}
		}
	}
}

func TestParseEventEnd(t *testing.T) {
	appLog.SetOutput(io.Discard)

	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//dove//test//IT",
		"BEGIN:VEVENT",
		"UID:no-end",
		"SUMMARY:Senza fine",
		"DTSTART;TZID=Europe/Rome:20250310T090000",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:duration",
		"SUMMARY:Con durata",
		"DTSTART;TZID=Europe/Rome:20250310T140000",
		"DURATION:PT1H30M",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:same-end",
		"SUMMARY:Istante",
		"DTSTART;TZID=Europe/Rome:20250310T170000",
		"DTEND;TZID=Europe/Rome:20250310T170000",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	events, err := Parse([]byte(body), day(t))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"Senza fine": "2025-03-10T09:00:00+01:00/2025-03-10T10:00:00+01:00",
		"Con durata": "2025-03-10T14:00:00+01:00/2025-03-10T15:30:00+01:00",
		"Istante":    "2025-03-10T17:00:00+01:00/2025-03-10T18:00:00+01:00",
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for _, ev := range events {
		if got := ev.Start + "/" + ev.End; got != want[ev.Name] {
			t.Errorf("%s = %q, want %q", ev.Name, got, want[ev.Name])
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "PT1H30M", want: 90 * time.Minute},
		{in: "P1D", want: 24 * time.Hour},
		{in: "P1W", want: 7 * 24 * time.Hour},
		{in: "P1DT2H", want: 26 * time.Hour},
		{in: "-PT15M", want: -15 * time.Minute},
		{in: "PT45S", want: 45 * time.Second},
		{in: "1H", wantErr: true},
		{in: "PT", wantErr: true},
		{in: "PT5", wantErr: true},
		{in: "P1H", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(nil, day(t)); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestFetchDay(t *testing.T) {
	appLog.SetOutput(io.Discard)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.ics" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		io.WriteString(w, feed)
	}))
	defer srv.Close()

	a := New(time.Second)
	events, err := a.FetchDay(context.Background(), srv.URL+"/feed.ics", day(t))
	if err != nil || len(events) != 5 {
		t.Fatalf("FetchDay = %d events, %v", len(events), err)
	}

	_, err = a.FetchDay(context.Background(), srv.URL+"/missing.ics?token=secret", day(t))
	if err == nil {
		t.Fatal("expected error on 404")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks the feed URL: %v", err)
	}
}
