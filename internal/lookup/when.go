package lookup

import (
	"fmt"
	"strings"
	"time"
)

// ParseDay reads a day argument: "oggi"/"today", "domani"/"tomorrow",
// "ieri"/"yesterday" or YYYY-MM-DD. The result is local midnight in loc.
func ParseDay(arg string, now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "oggi", "today":
		return today, nil
	case "domani", "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "ieri", "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(arg), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (use oggi, domani or YYYY-MM-DD)", arg)
	}
	return d, nil
}

// ParseInstant reads a reference instant. "HH:MM" is taken on now's day;
// naive date-times are read in loc; RFC 3339 values keep their offset.
// Empty means now.
func ParseInstant(arg string, now time.Time, loc *time.Location) (time.Time, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return now.In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, arg); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("15:04", arg, loc); err == nil {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, arg, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use HH:MM, YYYY-MM-DD HH:MM or RFC 3339)", arg)
}
