package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StatusKeyboard sits under a "now" message.
func StatusKeyboard(campus, code string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🔄 Aggiorna", Callback{Kind: KindStatus, Campus: campus, Code: code}),
			button("📅 Orario di oggi", Callback{Kind: KindDay, Campus: campus, Code: code}),
		),
	)
}

// DayKeyboard sits under a day schedule and moves between days.
func DayKeyboard(campus, code string, date time.Time) tgbotapi.InlineKeyboardMarkup {
	day := func(t time.Time) Callback {
		return Callback{Kind: KindDay, Campus: campus, Code: code, Date: t.Format(time.DateOnly)}
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("◀", day(date.AddDate(0, 0, -1))),
			button("Oggi", Callback{Kind: KindDay, Campus: campus, Code: code}),
			button("▶", day(date.AddDate(0, 0, 1))),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🔄 Aggiorna", Callback{Kind: KindRefresh, Campus: campus, Code: code, Date: date.Format(time.DateOnly)}),
			button("🟢 Adesso", Callback{Kind: KindStatus, Campus: campus, Code: code}),
		),
	)
}

func button(text string, cb Callback) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, cb.Encode())
}
