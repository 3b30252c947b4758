// Package unipi reads room calendars from the university agenda service.
package unipi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dove-unipi/dove/internal/core"
	appLog "github.com/dove-unipi/dove/internal/log"
)

type Adapter struct {
	baseURL string
	client  *http.Client
}

// New returns an adapter for the agenda rooted at baseURL, e.g.
// "https://agenda.example.org/api".
func New(baseURL string, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *Adapter) Name() string { return "Agenda didattica" }

// FetchDay requests the events of calendarID between local midnight and the
// next midnight. Bounds travel as UTC instants.
func (a *Adapter) FetchDay(ctx context.Context, calendarID string, day time.Time) ([]core.CalendarEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.dayURL(calendarID, day), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agenda request for %s: %w", calendarID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("agenda request for %s: %s: %s", calendarID, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var events []core.CalendarEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding agenda events for %s: %w", calendarID, err)
	}
	appLog.Debug("agenda events fetched", "calendar", calendarID, "count", len(events), "took", time.Since(start))
	return events, nil
}

func (a *Adapter) dayURL(calendarID string, day time.Time) string {
	from, to := core.DayWindow(day, day.Location())
	q := url.Values{}
	q.Set("start", from.UTC().Format(time.RFC3339))
	q.Set("end", to.UTC().Format(time.RFC3339))
	return a.baseURL + "/calendars/" + url.PathEscape(calendarID) + "/events?" + q.Encode()
}
