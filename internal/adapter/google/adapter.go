// Package google reads campus calendars published as Google calendars.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/dove-unipi/dove/internal/core"
	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/util"
)

// Description lines that list the lecturers, e.g. "Docenti: Rossi, Bianchi".
var teacherLabels = []string{"Docenti", "Docente"}

type Adapter struct {
	client    *http.Client
	service   *calendar.Service
	config    *oauth2.Config
	credsFile string
	tokenFile string
	calendars map[string]string
}

func New(credsFile, tokenFile string) *Adapter {
	return &Adapter{
		credsFile: credsFile,
		tokenFile: tokenFile,
		calendars: make(map[string]string),
	}
}

// NewWithService wraps an existing Calendar service, skipping Login.
func NewWithService(service *calendar.Service) *Adapter {
	return &Adapter{service: service, calendars: make(map[string]string)}
}

func (a *Adapter) Name() string { return "Google Calendar" }

// Login loads credentials and token, then initializes the Calendar service.
// Run `dove auth` first to generate the token file.
func (a *Adapter) Login(ctx context.Context) error {
	b, err := os.ReadFile(a.credsFile)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return fmt.Errorf("parse credentials: %w", err)
	}
	a.config = config

	tok, err := tokenFromFile(a.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run 'dove auth' first): %w", err)
	}

	a.client = a.config.Client(ctx, tok)
	a.service, err = calendar.NewService(ctx, option.WithHTTPClient(a.client))
	return err
}

// LoadCalendars fetches the calendars the account can read.
func (a *Adapter) LoadCalendars(ctx context.Context) (map[string]string, error) {
	list, err := a.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	for _, cal := range list.Items {
		a.calendars[cal.Id] = cal.Summary
	}
	return a.calendars, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// FetchDay lists the timed events of the local day containing day.
func (a *Adapter) FetchDay(ctx context.Context, calendarID string, day time.Time) ([]core.CalendarEvent, error) {
	if a.service == nil {
		return nil, fmt.Errorf("google calendar %s: not logged in", calendarID)
	}
	start, end := core.DayWindow(day, day.Location())

	var results []core.CalendarEvent
	pageToken := ""
	for {
		req := a.service.Events.List(calendarID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		page, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("api call failed for calendar %s: %w", calendarID, err)
		}
		for _, item := range page.Items {
			if ev, ok := toEvent(item); ok {
				results = append(results, ev)
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return results, nil
}

// toEvent converts a Google event. All-day and cancelled events never
// occupy a room and are dropped.
func toEvent(item *calendar.Event) (core.CalendarEvent, bool) {
	if item.Status == "cancelled" || item.Start == nil || item.End == nil || item.Start.DateTime == "" {
		return core.CalendarEvent{}, false
	}

	ev := core.CalendarEvent{
		Name:  item.Summary,
		Start: item.Start.DateTime,
		End:   item.End.DateTime,
	}

	// Booked rooms show up as resource attendees.
	for _, att := range item.Attendees {
		if att.Resource && att.DisplayName != "" {
			ev.Rooms = append(ev.Rooms, core.EventRoom{Code: att.DisplayName, Description: att.DisplayName})
		}
	}
	for _, loc := range strings.Split(item.Location, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			ev.Rooms = append(ev.Rooms, core.EventRoom{Code: loc, Description: loc})
		}
	}

	if names, ok := util.FieldValue(util.HTMLToText(item.Description), teacherLabels...); ok {
		for _, n := range strings.FieldsFunc(names, func(r rune) bool { return r == ',' || r == ';' }) {
			if n = strings.TrimSpace(n); n != "" {
				ev.Teachers = append(ev.Teachers, core.Teacher{Display: n})
			}
		}
	}

	if len(ev.Rooms) == 0 {
		appLog.Debug("google event without rooms", "event", item.Summary, "id", item.Id)
	}
	return ev, true
}
