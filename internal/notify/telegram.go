package notify

import (
	"context"
	"fmt"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram caps a message at 4096 UTF-16 code units.
const telegramLimit = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts notifications into one fixed chat.
type TelegramNotifier struct {
	s      sender
	chatID int64
}

func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{s: api, chatID: chatID}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	return t.SendText(ctx, Subject(n), Body(n))
}

func (t *TelegramNotifier) SendText(_ context.Context, subject, body string) error {
	text := subject + "\n\n" + body
	text = truncateUTF16(text, telegramLimit)
	if _, err := t.s.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// truncateUTF16 cuts s so that it fits in limit UTF-16 code units, marking
// the cut with an ellipsis.
func truncateUTF16(s string, limit int) string {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	if n <= limit {
		return s
	}
	n = 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if n+w > limit-1 {
			return s[:i] + "…"
		}
		n += w
	}
	return s
}
