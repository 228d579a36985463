// Package notify delivers operational alerts to administrators.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Notifier is told when a user's AI access is suspended for the month.
type Notifier interface {
	NotifySuspension(ctx context.Context, record *model.CreditRecord) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) NotifySuspension(context.Context, *model.CreditRecord) error { return nil }

// TelegramNotifier отправляет уведомления в админский чат Telegram
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier создаёт клиента без запроса getMe при старте
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger, opts ...bot.Option) (*TelegramNotifier, error) {
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: b, chatID: chatID, logger: logger}, nil
}

// New выбирает реализацию по конфигурации: без токена уведомления отключены
func New(token string, chatID int64, logger *zap.Logger) (Notifier, error) {
	if token == "" {
		logger.Info("Telegram notifications disabled")
		return Nop{}, nil
	}
	return NewTelegramNotifier(token, chatID, logger)
}

func (n *TelegramNotifier) NotifySuspension(ctx context.Context, record *model.CreditRecord) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      SuspensionText(record),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send suspension message: %w", err)
	}

	n.logger.Debug("Suspension notification sent",
		zap.Int64("chat_id", n.chatID),
		zap.String("user_id", record.UserID),
	)

	return nil
}

// SuspensionText formats the admin alert for a suspended credit record.
func SuspensionText(record *model.CreditRecord) string {
	return fmt.Sprintf(
		"🚫 <b>AI access suspended</b>\n\nUser: <code>%s</code>\nMonth: %s\nStrikes: %d\nCredits: %d / %d",
		html.EscapeString(record.UserID),
		html.EscapeString(record.MonthYear),
		record.AbuseStrikes,
		record.CreditsUsed,
		record.CreditsLimit,
	)
}
