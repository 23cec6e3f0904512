// Package notify sends an optional Telegram message when a job finishes.
// It is a no-op whenever TELEGRAM_BOT_TOKEN is unset, so local and test
// runs never need a bot token configured (spec.md §6, SPEC_FULL.md §11).
package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/telebot.v3"
)

// Notifier sends job-completion messages to a single Telegram chat.
type Notifier struct {
	bot    *telebot.Bot
	chatID int64
}

// New builds a Notifier. If token is empty, it returns (nil, nil): callers
// should treat a nil *Notifier as "notifications disabled" and skip it.
func New(token string, chatID int64) (*Notifier, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// JobComplete announces a finished job's headline number.
func (n *Notifier) JobComplete(jobID string, globalReturn decimal.Decimal) error {
	if n == nil {
		return nil
	}
	msg := fmt.Sprintf("Job %s finished: global return %s EUR", jobID, globalReturn.StringFixed(2))
	_, err := n.bot.Send(telebot.ChatID(n.chatID), msg)
	return err
}

// JobFailed announces a failed job.
func (n *Notifier) JobFailed(jobID string, reason string) error {
	if n == nil {
		return nil
	}
	msg := fmt.Sprintf("Job %s failed: %s", jobID, reason)
	_, err := n.bot.Send(telebot.ChatID(n.chatID), msg)
	return err
}
