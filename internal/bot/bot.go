// Package bot is the Telegram front end: room status and day schedules on
// commands and buttons, directory search on inline queries.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/lookup"
	"github.com/dove-unipi/dove/internal/schedule"
)

// Telegram accepts at most 50 inline results per answer.
const inlinePageSize = 50

const helpText = `Bot attivo.

/aula <aula> - stato attuale dell'aula
/orario <aula> [oggi|domani|AAAA-MM-GG] - orario del giorno

Puoi anche scrivere @bot seguito dal nome di un'aula o di un docente in qualsiasi chat.`

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api API
	svc *lookup.Service
}

func New(api API, svc *lookup.Service) *Bot {
	return &Bot{api: api, svc: svc}
}

// Run handles updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate dispatches one update. Errors are logged, never returned:
// a failed reply must not stop the update loop.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.InlineQuery != nil:
		b.answerInline(u.InlineQuery)
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		// Plain text in a private chat is treated as a room name.
		if msg.Chat != nil && msg.Chat.IsPrivate() && strings.TrimSpace(msg.Text) != "" {
			b.sendStatus(ctx, msg.Chat.ID, msg.Text)
		}
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.send(tgbotapi.NewMessage(msg.Chat.ID, helpText))
	case "aula":
		if args == "" {
			b.send(tgbotapi.NewMessage(msg.Chat.ID, "Uso: /aula <aula>, ad esempio /aula A"))
			return
		}
		b.sendStatus(ctx, msg.Chat.ID, args)
	case "orario":
		if args == "" {
			b.send(tgbotapi.NewMessage(msg.Chat.ID, "Uso: /orario <aula> [oggi|domani|AAAA-MM-GG]"))
			return
		}
		query, day := splitDayArg(args)
		b.sendDay(ctx, msg.Chat.ID, query, day)
	default:
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Comando sconosciuto. Usa /help."))
	}
}

// splitDayArg separates a trailing day word ("domani", "2025-03-10") from
// the room query.
func splitDayArg(args string) (query, day string) {
	fields := strings.Fields(args)
	if len(fields) > 1 {
		last := strings.ToLower(fields[len(fields)-1])
		switch last {
		case "oggi", "domani", "ieri", "today", "tomorrow", "yesterday":
			return strings.Join(fields[:len(fields)-1], " "), last
		}
		if _, err := time.Parse(time.DateOnly, last); err == nil {
			return strings.Join(fields[:len(fields)-1], " "), last
		}
	}
	return args, ""
}

func (b *Bot) sendStatus(ctx context.Context, chatID int64, query string) {
	room, err := b.svc.FindRoom("", query)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, notFound(query, err)))
		return
	}
	msg := tgbotapi.NewMessage(chatID, b.svc.StatusText(ctx, room, b.svc.Now(), schedule.Markdown{}))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = StatusKeyboard(room.Campus.Key, room.ShortCode())
	b.send(msg)
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, query, dayArg string) {
	room, err := b.svc.FindRoom("", query)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, notFound(query, err)))
		return
	}
	date, err := lookup.ParseDay(dayArg, b.svc.Now(), room.Campus.Location)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Giorno non valido: usa oggi, domani o AAAA-MM-GG"))
		return
	}
	msg := tgbotapi.NewMessage(chatID, b.svc.DayText(ctx, room, date, schedule.Markdown{}))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = DayKeyboard(room.Campus.Key, room.ShortCode(), date)
	b.send(msg)
}

func notFound(query string, err error) string {
	if errors.Is(err, lookup.ErrRoomNotFound) {
		return "Aula \"" + strings.TrimSpace(query) + "\" non trovata."
	}
	return "Errore: " + err.Error()
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Stops the button spinner whatever happens next.
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			appLog.Error("answering callback", err, "id", q.ID)
		}
	}()

	if q.Message == nil {
		return
	}
	cb, err := ParseCallback(q.Data)
	if err != nil {
		appLog.Error("bad callback data", err)
		return
	}
	code := cb.Code
	if IsRoomKey(code) {
		r, ok := ResolveRoomKey(b.svc.Directory().CampusRooms(cb.Campus), cb.Campus, code)
		if !ok {
			appLog.Error("callback room key", lookup.ErrRoomNotFound, "campus", cb.Campus, "key", code)
			return
		}
		code = r.ShortCode()
	}
	room, err := b.svc.FindRoom(cb.Campus, code)
	if err != nil {
		appLog.Error("callback room lookup", err, "campus", cb.Campus, "code", cb.Code)
		return
	}

	var (
		text     string
		keyboard tgbotapi.InlineKeyboardMarkup
	)
	switch cb.Kind {
	case KindStatus:
		text = b.svc.StatusText(ctx, room, b.svc.Now(), schedule.Markdown{})
		keyboard = StatusKeyboard(room.Campus.Key, room.ShortCode())
	case KindDay, KindRefresh:
		date, err := lookup.ParseDay(cb.Date, b.svc.Now(), room.Campus.Location)
		if err != nil {
			appLog.Error("bad callback date", err, "data", q.Data)
			return
		}
		if cb.Kind == KindRefresh {
			b.svc.Refresh(room.Campus, date)
		}
		text = b.svc.DayText(ctx, room, date, schedule.Markdown{})
		keyboard = DayKeyboard(room.Campus.Key, room.ShortCode(), date)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(q.Message.Chat.ID, q.Message.MessageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	b.send(edit)
}

// answerInline answers from the search index: title filter, no caching,
// link previews off. Results are paged with the inline offset.
func (b *Bot) answerInline(q *tgbotapi.InlineQuery) {
	entries := b.svc.Directory().Search(q.Query)

	offset, _ := strconv.Atoi(q.Offset)
	if offset < 0 || offset > len(entries) {
		offset = 0
	}
	end := min(offset+inlinePageSize, len(entries))

	results := make([]interface{}, 0, end-offset)
	for _, e := range entries[offset:end] {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		parseMode := e.Content.ParseMode
		if parseMode == "" {
			parseMode = tgbotapi.ModeMarkdown
		}
		results = append(results, tgbotapi.InlineQueryResultArticle{
			Type:        "article",
			ID:          id,
			Title:       e.Title,
			Description: e.Description,
			InputMessageContent: tgbotapi.InputTextMessageContent{
				Text:                  e.Content.MessageText,
				ParseMode:             parseMode,
				DisableWebPagePreview: true,
			},
		})
	}

	cfg := tgbotapi.InlineConfig{
		InlineQueryID: q.ID,
		Results:       results,
		CacheTime:     0,
	}
	if end < len(entries) {
		cfg.NextOffset = strconv.Itoa(end)
	}
	if _, err := b.api.Request(cfg); err != nil {
		appLog.Error("answering inline query", err, "query", q.Query)
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		appLog.Error("sending telegram message", err)
	}
}

// SetWebhook registers url with Telegram, or removes the webhook when url
// is empty so polling works.
func SetWebhook(api API, url string) error {
	if url == "" {
		_, err := api.Request(tgbotapi.DeleteWebhookConfig{})
		return err
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = api.Request(wh)
	return err
}
