// Package lookup answers "is this room free?" by wiring the room
// directory, the calendar providers, the day store and the resolver.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/directory"
	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/occupancy"
	"github.com/dove-unipi/dove/internal/schedule"
)

var (
	// ErrEventsUnavailable means the calendar could not be read. The room
	// status is unknown, which is not the same as free.
	ErrEventsUnavailable = errors.New("calendar events unavailable")
	ErrRoomNotFound      = errors.New("room not found")
)

// Campuses resolves campus configuration by key; "" is the default campus.
type Campuses interface {
	Campus(key string) (core.Campus, error)
}

// Room is a directory room together with its campus.
type Room struct {
	core.Room
	Campus core.Campus
}

type Options struct {
	Campuses Campuses
	// Providers by name ("unipi", "google", "ics")
	Providers map[string]core.Provider
	// Optional; without it every request fetches
	Store core.DayStore
	// Parsed room document, reloaded when the file changes
	Documents *directory.Cache[*directory.Directory]
	// Path of the room document
	DocumentPath string
	Now          func() time.Time
}

type Service struct {
	campuses  Campuses
	providers map[string]core.Provider
	store     core.DayStore
	docs      *directory.Cache[*directory.Directory]
	docPath   string
	now       func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		campuses:  opts.Campuses,
		providers: opts.Providers,
		store:     opts.Store,
		docs:      opts.Documents,
		docPath:   opts.DocumentPath,
		now:       opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Now is the service clock, exposed so callers format "today" consistently.
func (s *Service) Now() time.Time {
	return s.now()
}

// Directory returns the current generation of the room document, nil when
// the document is unavailable.
func (s *Service) Directory() *directory.Directory {
	if s.docs == nil {
		return nil
	}
	_, d := s.docs.Get(s.docPath)
	return d
}

// Campus resolves a campus key.
func (s *Service) Campus(key string) (core.Campus, error) {
	return s.campuses.Campus(key)
}

// FindRoom looks a room up on campusKey. With an empty key the default
// campus is searched first, then every other campus.
func (s *Service) FindRoom(campusKey, query string) (Room, error) {
	campus, err := s.campuses.Campus(campusKey)
	if err != nil {
		return Room{}, err
	}
	dir := s.Directory()

	room, ok := dir.FindRoom(campus.Key, query)
	if !ok && campusKey == "" {
		room, ok = dir.FindRoom("", query)
	}
	if !ok {
		return Room{}, fmt.Errorf("%w: %q", ErrRoomNotFound, query)
	}

	if room.Campus != campus.Key {
		if campus, err = s.campuses.Campus(room.Campus); err != nil {
			return Room{}, err
		}
	}
	return Room{Room: room, Campus: campus}, nil
}

// Events returns the raw events of the campus calendar for the local day
// containing day. Rooms sharing a calendar share the stored fetch.
func (s *Service) Events(ctx context.Context, campus core.Campus, day time.Time) ([]core.CalendarEvent, error) {
	day = day.In(campus.Location)
	if s.store != nil {
		if events, ok := s.store.Day(campus.CalendarID, day); ok {
			return events, nil
		}
	}

	provider, ok := s.providers[campus.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: no %q provider for campus %s", ErrEventsUnavailable, campus.Provider, campus.Key)
	}

	start := time.Now()
	events, err := provider.FetchDay(ctx, campus.CalendarID, day)
	if err != nil {
		appLog.Error("fetching calendar day", err, "campus", campus.Key, "provider", provider.Name(), "day", day.Format(time.DateOnly))
		return nil, fmt.Errorf("%w: %w", ErrEventsUnavailable, err)
	}
	appLog.Debug("fetched calendar day", "campus", campus.Key, "events", len(events), "took", time.Since(start))

	if s.store != nil {
		s.store.SaveDay(campus.CalendarID, day, events)
	}
	return events, nil
}

// Status resolves the room at the instant at.
func (s *Service) Status(ctx context.Context, room Room, at time.Time) (occupancy.Status, error) {
	events, err := s.Events(ctx, room.Campus, at)
	if err != nil {
		return occupancy.Status{}, err
	}
	return occupancy.Resolve(room.Name, room.Campus, events, at), nil
}

// Day returns every event of the room on the local day containing date.
func (s *Service) Day(ctx context.Context, room Room, date time.Time) ([]occupancy.ResolvedEvent, error) {
	events, err := s.Events(ctx, room.Campus, date)
	if err != nil {
		return nil, err
	}
	return occupancy.Attribute(room.Name, room.Campus, events, date), nil
}

// Refresh drops the stored day so the next request fetches again.
func (s *Service) Refresh(campus core.Campus, day time.Time) {
	if f, ok := s.store.(interface {
		Forget(calendarID string, day time.Time)
	}); ok {
		f.Forget(campus.CalendarID, day.In(campus.Location))
	}
}

// Formatter returns a formatter for dialect linked to the current professor
// directory.
func (s *Service) Formatter(dialect schedule.Dialect) schedule.Formatter {
	return schedule.Formatter{Dialect: dialect, Professors: s.Directory().Professors()}
}

// StatusText renders the room status at at. A fetch failure renders the
// unknown-status message.
func (s *Service) StatusText(ctx context.Context, room Room, at time.Time, dialect schedule.Dialect) string {
	f := s.Formatter(dialect)
	at = at.In(room.Campus.Location)
	st, err := s.Status(ctx, room, at)
	if err != nil {
		return f.FormatUnknown(room.Room, room.Campus, at)
	}
	return f.FormatStatus(room.Room, room.Campus, st, at)
}

// DayText renders the schedule of the room for date.
func (s *Service) DayText(ctx context.Context, room Room, date time.Time, dialect schedule.Dialect) string {
	f := s.Formatter(dialect)
	date = date.In(room.Campus.Location)
	events, err := s.Day(ctx, room, date)
	if err != nil {
		return f.FormatDayUnknown(room.Room, room.Campus, date)
	}
	return f.FormatDaySchedule(room.Room, room.Campus, events, date)
}
