// Package notify sends backtest run summaries to a Telegram chat. The
// notifier is optional: with no token configured it is a no-op, and send
// failures are logged but never fail the request that triggered them.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"backtester/internal/model"
)

// Notifier posts run summaries to a fixed chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a Notifier. An empty token or zero chat id returns a disabled
// notifier and no error.
func New(token string, chatID int64) (*Notifier, error) {
	n := &Notifier{
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}
	if token == "" || chatID == 0 {
		return n, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	n.bot = bot
	return n, nil
}

// RunCompleted sends a one-line summary of a finished backtest.
func (n *Notifier) RunCompleted(run *model.Run) {
	if n == nil || n.bot == nil {
		return
	}

	text := fmt.Sprintf(
		"Backtest %s %s..%s (SMA %d): return %.2f%%, %d trades, win rate %.2f%%, Sharpe %.2f",
		run.Ticker, run.StartDate, run.EndDate, run.SMAPeriod,
		run.TotalReturn, run.NumberOfTrades, run.WinRate, run.SharpeRatio,
	)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("Failed to send run summary")
	}
}
