// Package ics reads campus calendars published as iCalendar feeds.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/dove-unipi/dove/internal/core"
	appLog "github.com/dove-unipi/dove/internal/log"
)

// Feeds larger than this are rejected.
const maxFeedSize = 32 << 20

// Events with neither DTEND nor DURATION last this long.
const defaultDuration = time.Hour

type Adapter struct {
	client *http.Client
}

func New(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{client: &http.Client{Timeout: timeout}}
}

func (a *Adapter) Name() string { return "ICS feed" }

// FetchDay downloads the feed at feedURL and returns the occurrences that
// start on the local day containing day.
func (a *Adapter) FetchDay(ctx context.Context, feedURL string, day time.Time) ([]core.CalendarEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", redactURL(feedURL), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", redactURL(feedURL), resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", redactURL(feedURL), err)
	}
	return Parse(body, day)
}

// Parse extracts the occurrences of the local day containing day from an
// ICS body. Recurring events are expanded; VEVENTs that fail to parse are
// logged and skipped.
func Parse(body []byte, day time.Time) ([]core.CalendarEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing ICS: %w", err)
	}

	loc := day.Location()
	dayStart, dayEnd := core.DayWindow(day, loc)

	var parsed []vevent
	// UID -> RECURRENCE-IDs replaced by override VEVENTs
	overridden := map[string][]time.Time{}
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(comp, loc)
		if err != nil {
			appLog.Error("skipping VEVENT", err, "uid", propValue(comp, ical.ComponentPropertyUniqueId))
			continue
		}
		if ev.recurrenceID != nil {
			overridden[ev.uid] = append(overridden[ev.uid], *ev.recurrenceID)
		}
		parsed = append(parsed, ev)
	}

	var out []core.CalendarEvent
	for _, ev := range parsed {
		for _, start := range ev.occurrences(dayStart, dayEnd, overridden[ev.uid]) {
			out = append(out, ev.toEvent(start))
		}
	}
	return out, nil
}

type vevent struct {
	uid          string
	summary      string
	location     string
	start, end   time.Time
	rrule        string
	exdates      []time.Time
	recurrenceID *time.Time
	teachers     []core.Teacher
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (vevent, error) {
	ev := vevent{
		uid:      propValue(ve, ical.ComponentPropertyUniqueId),
		summary:  propValue(ve, ical.ComponentPropertySummary),
		location: propValue(ve, ical.ComponentPropertyLocation),
		rrule:    propValue(ve, ical.ComponentPropertyRrule),
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return ev, errors.New("missing DTSTART")
	}
	if !strings.Contains(dtstart.Value, "T") || hasParam(dtstart, "VALUE", "DATE") {
		return ev, errors.New("all-day event")
	}

	var err error
	if ev.start, err = propTime(dtstart, loc); err != nil {
		return ev, fmt.Errorf("DTSTART: %w", err)
	}
	if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil {
		if ev.end, err = propTime(dtend, loc); err != nil {
			return ev, fmt.Errorf("DTEND: %w", err)
		}
	} else if dur := ve.GetProperty("DURATION"); dur != nil {
		d, err := parseDuration(dur.Value)
		if err != nil {
			return ev, fmt.Errorf("DURATION: %w", err)
		}
		ev.end = ev.start.Add(d)
	} else {
		ev.end = ev.start.Add(defaultDuration)
	}
	if !ev.end.After(ev.start) {
		ev.end = ev.start.Add(defaultDuration)
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), tzOf(p, loc)); err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}
	if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil {
		if t, err := propTime(rid, loc); err == nil {
			ev.recurrenceID = &t
		}
	}

	// Lecturers appear as organizer and attendees with a common name.
	for _, prop := range []ical.ComponentProperty{ical.ComponentPropertyOrganizer, ical.ComponentPropertyAttendee} {
		for _, p := range ve.GetProperties(prop) {
			if cn := param(p, "CN"); cn != "" {
				ev.teachers = append(ev.teachers, core.Teacher{Display: cn})
			}
		}
	}
	return ev, nil
}

// parseDuration reads an RFC 5545 dur-value such as "PT1H30M" or "P1W".
func parseDuration(v string) (time.Duration, error) {
	s := strings.TrimPrefix(strings.TrimSpace(v), "+")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}

	var total time.Duration
	n, digits, timePart := 0, false, false
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9':
			n = n*10 + int(c-'0')
			digits = true
			continue
		case c == 'T':
			timePart = true
			continue
		}
		if !digits {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		unit := durationUnit(c, timePart)
		if unit == 0 {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		total += time.Duration(n) * unit
		n, digits = 0, false
	}
	if digits {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if neg {
		total = -total
	}
	return total, nil
}

func durationUnit(c rune, timePart bool) time.Duration {
	switch {
	case !timePart && c == 'W':
		return 7 * 24 * time.Hour
	case !timePart && c == 'D':
		return 24 * time.Hour
	case timePart && c == 'H':
		return time.Hour
	case timePart && c == 'M':
		return time.Minute
	case timePart && c == 'S':
		return time.Second
	}
	return 0
}

// occurrences returns the starts falling in [from, to).
func (ev vevent) occurrences(from, to time.Time, overridden []time.Time) []time.Time {
	inRange := func(t time.Time) bool {
		return !t.Before(from) && t.Before(to)
	}

	if ev.rrule == "" || ev.recurrenceID != nil {
		if inRange(ev.start) {
			return []time.Time{ev.start}
		}
		return nil
	}

	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		appLog.Error("skipping recurring VEVENT", err, "uid", ev.uid, "rrule", ev.rrule)
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exdates {
		set.ExDate(ex.In(ev.start.Location()))
	}
	for _, rid := range overridden {
		set.ExDate(rid.In(ev.start.Location()))
	}

	var out []time.Time
	for _, t := range set.Between(from.In(ev.start.Location()), to.In(ev.start.Location()), true) {
		if inRange(t) {
			out = append(out, t)
		}
	}
	return out
}

func (ev vevent) toEvent(start time.Time) core.CalendarEvent {
	out := core.CalendarEvent{
		Name:     ev.summary,
		Start:    start.Format(time.RFC3339),
		End:      start.Add(ev.end.Sub(ev.start)).Format(time.RFC3339),
		Teachers: ev.teachers,
	}
	for _, loc := range strings.Split(ev.location, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			out.Rooms = append(out.Rooms, core.EventRoom{Code: loc, Description: loc})
		}
	}
	return out
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

func hasParam(p *ical.IANAProperty, name, value string) bool {
	return strings.EqualFold(param(p, name), value)
}

// tzOf returns the TZID location of p, or fallback for floating times.
func tzOf(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if tzid := param(p, "TZID"); tzid != "" {
		if loc, err := time.LoadLocation(tzid); err == nil {
			return loc
		}
	}
	return fallback
}

func propTime(p *ical.IANAProperty, fallback *time.Location) (time.Time, error) {
	return parseICSTime(strings.TrimSpace(p.Value), tzOf(p, fallback))
}

// parseICSTime reads UTC ("...Z") or local date-times; floating values are
// read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

// redactURL keeps only scheme and host; feed URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
