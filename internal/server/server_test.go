package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dove-unipi/dove/internal/bot"
	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/directory"
	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/lookup"
)

const document = `{"polo": {"fibonacci": {"edificio": {"c": {"piano": {"1": [
  {"nome": "Aula A", "alias": ["A"], "type": "aula", "capienza": 120},
  {"nome": "Aula B", "alias": ["B"], "type": "aula"},
  {"nome": "Laboratorio H", "alias": ["H"], "type": "laboratorio"}
]}}}}}}`

type campuses map[string]core.Campus

func (m campuses) Campus(key string) (core.Campus, error) {
	if key == "" {
		key = "fibonacci"
	}
	if c, ok := m[key]; ok {
		return c, nil
	}
	return core.Campus{}, fmt.Errorf("unknown campus %q", key)
}

type provider struct {
	events []core.CalendarEvent
	err    error
}

func (p provider) Name() string { return "fake" }

func (p provider) FetchDay(context.Context, string, time.Time) ([]core.CalendarEvent, error) {
	return p.events, p.err
}

type fakeAPI struct{ sent int }

func (f *fakeAPI) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent++
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newService(t *testing.T, p provider) *lookup.Service {
	t.Helper()
	appLog.SetOutput(io.Discard)
	gin.SetMode(gin.TestMode)

	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "unified.json")
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatal(err)
	}
	return lookup.New(lookup.Options{
		Campuses:     campuses{"fibonacci": {Key: "fibonacci", Title: "Fibonacci", Prefix: "Fib", Provider: "fake", CalendarID: "fib", Location: loc, BareCodes: true}},
		Providers:    map[string]core.Provider{"fake": p},
		Documents:    directory.NewCache(directory.Loader(directory.Options{BaseURL: "https://x/"})),
		DocumentPath: path,
		Now:          func() time.Time { return time.Date(2025, 3, 10, 10, 0, 0, 0, loc) },
	})
}

var lessons = []core.CalendarEvent{
	{Name: "Analisi - 1", Rooms: []core.EventRoom{{Code: "FIB A"}}, Start: "2025-03-10T09:00:00+01:00", End: "2025-03-10T11:00:00+01:00"},
	{Name: "Fisica - 2", Rooms: []core.EventRoom{{Code: "FIB A"}}, Start: "2025-03-10T14:00:00+01:00", End: "2025-03-10T16:00:00+01:00"},
}

func get(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	r := New(Options{Lookup: newService(t, provider{})})
	w := get(t, r, "/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"rooms":3`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestRooms(t *testing.T) {
	r := New(Options{Lookup: newService(t, provider{})})

	tests := []struct {
		query string
		want  []string
	}{
		{"/api/rooms", []string{"Aula A", "Aula B", "Laboratorio H"}},
		{"/api/rooms?q=aula", []string{"Aula A", "Aula B"}},
		{"/api/rooms?q=h", []string{"Laboratorio H"}},
		{"/api/rooms?campus=carmignani", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(t, r, tt.query)
			if w.Code != http.StatusOK {
				t.Fatalf("status %d", w.Code)
			}
			var rooms []roomJSON
			if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
				t.Fatal(err)
			}
			var names []string
			for _, r := range rooms {
				names = append(names, r.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("rooms = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	r := New(Options{Lookup: newService(t, provider{events: lessons})})

	w := get(t, r, "/api/rooms/fibonacci/a/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var st statusJSON
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != "busy" || st.Current == nil || st.Current.Title != "Analisi" || len(st.Next) != 1 {
		t.Fatalf("status = %+v", st)
	}
	if st.Room.Capacity != 120 || st.Room.Code != "A" {
		t.Fatalf("room = %+v", st.Room)
	}

	w = get(t, r, "/api/rooms/fibonacci/a/status?at=12:00")
	var noon statusJSON
	if err := json.Unmarshal(w.Body.Bytes(), &noon); err != nil {
		t.Fatal(err)
	}
	if noon.State != "free" || noon.FreeUntil == nil || noon.FreeUntil.Format("15:04") != "14:00" || noon.Current != nil {
		t.Fatalf("status at noon = %+v", noon)
	}
}

func TestStatusErrors(t *testing.T) {
	r := New(Options{Lookup: newService(t, provider{err: errors.New("down")})})

	tests := []struct {
		target string
		code   int
	}{
		{"/api/rooms/fibonacci/z/status", http.StatusNotFound},
		{"/api/rooms/nowhere/a/status", http.StatusBadRequest},
		{"/api/rooms/fibonacci/a/status?at=presto", http.StatusBadRequest},
		{"/api/rooms/fibonacci/a/status", http.StatusServiceUnavailable},
		{"/api/rooms/fibonacci/a/schedule", http.StatusServiceUnavailable},
		{"/api/rooms/fibonacci/a/schedule?date=giovedi", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, r, tt.target)
			if w.Code != tt.code {
				t.Fatalf("code = %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
		})
	}

	w := get(t, r, "/api/rooms/fibonacci/a/status")
	if !strings.Contains(w.Body.String(), `"state":"unknown"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestSchedule(t *testing.T) {
	r := New(Options{Lookup: newService(t, provider{events: lessons})})

	w := get(t, r, "/api/rooms/fibonacci/a/schedule?date=2025-03-10")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var body struct {
		Date   string      `json:"date"`
		Events []eventJSON `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Date != "2025-03-10" || len(body.Events) != 2 || body.Events[1].Title != "Fisica" {
		t.Fatalf("schedule = %+v", body)
	}
}

func TestTelegramWebhook(t *testing.T) {
	svc := newService(t, provider{events: lessons})
	api := &fakeAPI{}
	secret := WebhookSecret("123:ABC")
	r := New(Options{Lookup: svc, Bot: bot.New(api, svc), WebhookSecret: secret})

	if strings.Contains(secret, ":") || strings.Contains(secret, "ABC") {
		t.Fatalf("secret leaks the token: %q", secret)
	}

	update := `{"update_id": 1, "message": {"message_id": 1, "text": "/aula A",
	  "chat": {"id": 42, "type": "private"},
	  "entities": [{"type": "bot_command", "offset": 0, "length": 5}]}}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath(secret), strings.NewReader(update)))
	if w.Code != http.StatusOK || api.sent != 1 {
		t.Fatalf("code = %d, sent = %d", w.Code, api.sent)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath("wrong"), strings.NewReader(update)))
	if w.Code != http.StatusNotFound {
		t.Fatalf("wrong secret code = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath(secret), strings.NewReader("{")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad body code = %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(10*time.Second, 2)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("buckets are per client")
	}

	now = now.Add(5 * time.Second)
	if !l.Allow("a") {
		t.Fatal("half a window refills one token")
	}

	now = now.Add(time.Minute)
	if n := l.Sweep(); n != 2 {
		t.Fatalf("Sweep = %d, want 2", n)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := New(Options{Lookup: newService(t, provider{}), Limiter: NewRateLimiter(time.Hour, 1)})
	if w := get(t, r, "/api/rooms"); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := get(t, r, "/api/rooms")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "3600" {
		t.Fatalf("second = %d, Retry-After %q", w.Code, w.Header().Get("Retry-After"))
	}
	if w := get(t, r, "/health"); w.Code != http.StatusOK {
		t.Fatalf("health is not limited, got %d", w.Code)
	}
}
