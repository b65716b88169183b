package message

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// FromTelegram adapts a Telegram message.
func FromTelegram(m *tgbotapi.Message) *Received {
	r := Received{
		ID:        m.MessageID,
		Text:      m.Text,
		Timestamp: int64(m.Date) * 1000,
	}
	if r.Text == "" {
		r.Text = m.Caption
	}
	if m.Chat != nil {
		r.Chat = m.Chat.ID
	}
	if m.From != nil {
		r.Sender = m.From.ID
		r.Name = displayName(m.From)
	}
	return &r
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
