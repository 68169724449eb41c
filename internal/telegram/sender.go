package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Sender delivers formatted notifications to a Telegram chat
type Sender struct {
	bot    *bot.Bot
	chatID int64
	logger *slog.Logger
}

// NewSender creates a new Telegram sender
func NewSender(token string, chatID int64, logger *slog.Logger) (*Sender, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Sender{
		bot:    b,
		chatID: chatID,
		logger: logger.With("component", "telegram_sender"),
	}, nil
}

// Send delivers one message to the configured chat using Telegram HTML
func (s *Sender) Send(ctx context.Context, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// SendTest delivers a fixed message used by the operator test endpoint
func (s *Sender) SendTest(ctx context.Context) error {
	text := `🧪 <b>Test Message</b>

✅ Bot is online and functional
✅ Message formatting is working
✅ Connection to Telegram is established`

	return s.Send(ctx, text)
}
