package bot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dove-unipi/dove/internal/core"
)

// Callback kinds carried in inline button data.
const (
	KindStatus  = "s"
	KindDay     = "d"
	KindRefresh = "r"
)

// Callback is the decoded data of an inline button:
//
//	s|<campus>|<code>
//	d|<campus>|<code>|<YYYY-MM-DD>
//	r|<campus>|<code>|<YYYY-MM-DD>
//
// An empty date on d/r means today. Codes that would not fit, or that
// contain '|', travel as a room key ("#" + 16 hex digits), see RoomKey.
type Callback struct {
	Kind   string
	Campus string
	Code   string
	Date   string
}

// Telegram rejects callback data longer than this.
const maxCallbackData = 64

const keyMarker = "#"

// RoomKey is the fixed-size stand-in for a room code in button data.
func RoomKey(campus, code string) string {
	sum := sha256.Sum256([]byte(campus + "|" + code))
	return keyMarker + hex.EncodeToString(sum[:8])
}

// IsRoomKey reports whether code is a RoomKey rather than a room code.
func IsRoomKey(code string) bool {
	return len(code) == len(keyMarker)+16 && strings.HasPrefix(code, keyMarker)
}

// ResolveRoomKey finds the room of campus whose key is key.
func ResolveRoomKey(rooms []core.Room, campus, key string) (core.Room, bool) {
	for _, r := range rooms {
		if r.Campus == campus && RoomKey(r.Campus, r.ShortCode()) == key {
			return r, true
		}
	}
	return core.Room{}, false
}

// Encode renders the button data. The date is never shortened; a code that
// does not fit is replaced by its RoomKey.
func (c Callback) Encode() string {
	data := c.join(c.Code)
	if len(data) > maxCallbackData || strings.Contains(c.Code, "|") || strings.HasPrefix(c.Code, keyMarker) {
		data = c.join(RoomKey(c.Campus, c.Code))
	}
	return data
}

func (c Callback) join(code string) string {
	parts := []string{c.Kind, c.Campus, code}
	if c.Kind != KindStatus {
		parts = append(parts, c.Date)
	}
	return strings.Join(parts, "|")
}

func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, "|")
	if len(parts) < 3 || parts[2] == "" {
		return Callback{}, fmt.Errorf("malformed callback %q", data)
	}
	c := Callback{Kind: parts[0], Campus: parts[1], Code: parts[2]}

	switch c.Kind {
	case KindStatus:
		if len(parts) != 3 {
			return Callback{}, fmt.Errorf("malformed status callback %q", data)
		}
	case KindDay, KindRefresh:
		if len(parts) != 4 {
			return Callback{}, fmt.Errorf("malformed day callback %q", data)
		}
		c.Date = parts[3]
	default:
		return Callback{}, fmt.Errorf("unknown callback kind %q", c.Kind)
	}
	return c, nil
}
