// Package server exposes the Telegram webhook and a small read-only JSON
// API over room status.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/dove-unipi/dove/internal/bot"
	"github.com/dove-unipi/dove/internal/core"
	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/lookup"
	"github.com/dove-unipi/dove/internal/occupancy"
	"github.com/dove-unipi/dove/internal/schedule"
)

type Options struct {
	Lookup *lookup.Service
	// Nil disables the webhook route
	Bot *bot.Bot
	// Path segment after /telegram/, see WebhookSecret
	WebhookSecret string
	// Nil disables rate limiting on /api
	Limiter *RateLimiter
}

// WebhookSecret derives the webhook path segment from the bot token. The
// token itself contains ':' and must not appear in URLs.
func WebhookSecret(token string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("dove-telegram:"+token)).String()
}

// WebhookPath is the route Telegram posts updates to.
func WebhookPath(secret string) string {
	return "/telegram/" + secret
}

func New(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	h := &handlers{svc: opts.Lookup, bot: opts.Bot}

	r.GET("/health", h.health)
	if opts.Bot != nil && opts.WebhookSecret != "" {
		r.POST(WebhookPath(opts.WebhookSecret), h.telegram)
	}

	api := r.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Accept"},
		MaxAge:          12 * time.Hour,
	}))
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Middleware())
	}
	api.GET("/rooms", h.rooms)
	api.GET("/rooms/:campus/:code/status", h.status)
	api.GET("/rooms/:campus/:code/schedule", h.schedule)
	return r
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		appLog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

type handlers struct {
	svc *lookup.Service
	bot *bot.Bot
}

func (h *handlers) health(c *gin.Context) {
	dir := h.svc.Directory()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"directory": dir != nil,
		"rooms":     len(dir.CampusRooms("")),
	})
}

func (h *handlers) telegram(c *gin.Context) {
	var u tgbotapi.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}
	h.bot.HandleUpdate(c.Request.Context(), u)
	c.Status(http.StatusOK)
}

type roomJSON struct {
	Campus   string   `json:"campus"`
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Building string   `json:"building,omitempty"`
	Floor    string   `json:"floor,omitempty"`
	Capacity int      `json:"capacity,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
	Link     string   `json:"link,omitempty"`
}

func toRoomJSON(r core.Room) roomJSON {
	return roomJSON{
		Campus:   r.Campus,
		Code:     r.ShortCode(),
		Name:     r.Name,
		Building: r.Building,
		Floor:    r.Floor,
		Capacity: r.Capacity,
		Aliases:  r.Aliases,
		Link:     r.ExternalLink,
	}
}

// rooms lists directory rooms whose name or alias contains q.
func (h *handlers) rooms(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	out := []roomJSON{}
	for _, r := range h.svc.Directory().CampusRooms(c.Query("campus")) {
		if q == "" || r.Contains(q) {
			out = append(out, toRoomJSON(r))
		}
	}
	c.JSON(http.StatusOK, out)
}

type eventJSON struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Teachers string    `json:"teachers,omitempty"`
}

func toEventJSON(ev occupancy.ResolvedEvent) eventJSON {
	return eventJSON{Title: ev.Title, Start: ev.Start, End: ev.End, Teachers: ev.Teachers}
}

type statusJSON struct {
	Room      roomJSON    `json:"room"`
	At        time.Time   `json:"at"`
	State     string      `json:"state"`
	FreeUntil *time.Time  `json:"free_until,omitempty"`
	BusyUntil *time.Time  `json:"busy_until,omitempty"`
	Current   *eventJSON  `json:"current,omitempty"`
	Next      []eventJSON `json:"next"`
	Text      string      `json:"text"`
}

func (h *handlers) room(c *gin.Context) (lookup.Room, bool) {
	room, err := h.svc.FindRoom(c.Param("campus"), c.Param("code"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, lookup.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return lookup.Room{}, false
	}
	return room, true
}

func (h *handlers) status(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	at, err := lookup.ParseInstant(c.Query("at"), h.svc.Now(), room.Campus.Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f := h.svc.Formatter(schedule.Plain{})
	st, err := h.svc.Status(c.Request.Context(), room, at)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, statusJSON{
			Room:  toRoomJSON(room.Room),
			At:    at,
			State: "unknown",
			Next:  []eventJSON{},
			Text:  f.FormatUnknown(room.Room, room.Campus, at),
		})
		return
	}

	out := statusJSON{
		Room:      toRoomJSON(room.Room),
		At:        at,
		State:     "free",
		FreeUntil: st.FreeUntil,
		BusyUntil: st.BusyUntil,
		Next:      []eventJSON{},
		Text:      f.FormatStatus(room.Room, room.Campus, st, at),
	}
	if st.Current != nil {
		out.State = "busy"
		cur := toEventJSON(*st.Current)
		out.Current = &cur
	}
	for _, ev := range st.Next {
		out.Next = append(out.Next, toEventJSON(ev))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) schedule(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	date, err := lookup.ParseDay(c.Query("date"), h.svc.Now(), room.Campus.Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.svc.Day(c.Request.Context(), room, date)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"room":  toRoomJSON(room.Room),
			"date":  date.Format(time.DateOnly),
			"error": err.Error(),
		})
		return
	}
	out := make([]eventJSON, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventJSON(ev))
	}
	c.JSON(http.StatusOK, gin.H{
		"room":   toRoomJSON(room.Room),
		"date":   date.Format(time.DateOnly),
		"events": out,
	})
}
