package unipi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appLog "github.com/dove-unipi/dove/internal/log"
)

const body = `[
  {
    "nome": "Analisi Matematica - 123AA",
    "aule": [{"codice": "FIB A", "descrizione": "Aula A"}],
    "inizio": "2025-03-10T09:00:00+01:00",
    "fine": "2025-03-10T11:00:00+01:00",
    "docenti": [{"nome": "Mario", "cognome": "Rossi", "nominativo": ""}]
  }
]`

func TestFetchDay(t *testing.T) {
	appLog.SetOutput(io.Discard)
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatal(err)
	}

	var gotPath, gotStart, gotEnd string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("start")
		gotEnd = r.URL.Query().Get("end")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	defer srv.Close()

	a := New(srv.URL+"/api/", time.Second)
	events, err := a.FetchDay(context.Background(), "polo fib", time.Date(2025, 3, 10, 15, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}

	if gotPath != "/api/calendars/polo fib/events" {
		t.Errorf("path = %q", gotPath)
	}
	if gotStart != "2025-03-09T23:00:00Z" || gotEnd != "2025-03-10T23:00:00Z" {
		t.Errorf("window = %s .. %s", gotStart, gotEnd)
	}

	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	ev := events[0]
	if ev.Name != "Analisi Matematica - 123AA" || ev.Rooms[0].Code != "FIB A" || ev.Start != "2025-03-10T09:00:00+01:00" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Teachers[0].DisplayName() != "Mario Rossi" {
		t.Errorf("teacher = %q", ev.Teachers[0].DisplayName())
	}
}

func TestFetchDayErrors(t *testing.T) {
	appLog.SetOutput(io.Discard)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"not": "a list"`)
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			io.WriteString(w, "[]")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := New(srv.URL, 50*time.Millisecond)
			if _, err := a.FetchDay(context.Background(), "fib", time.Now()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFetchDayEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "[]")
	}))
	defer srv.Close()

	events, err := New(srv.URL, time.Second).FetchDay(context.Background(), "fib", time.Now())
	if err != nil || len(events) != 0 {
		t.Fatalf("FetchDay = %v, %v", events, err)
	}
}
