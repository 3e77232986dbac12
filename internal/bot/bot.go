// Package bot runs the Telegram long-polling loop and gates every
// update through dedup and the per-chat rate limiter before handing it
// to the handlers.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"remindbot/internal/bot/handlers"
	"remindbot/internal/dedup"
	"remindbot/internal/guard"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	dedup    *dedup.UpdateDeduplicator
	limiter  *guard.RateLimiter
	logger   zerolog.Logger
}

func New(api *tgbotapi.BotAPI, h *handlers.Handlers, dd *dedup.UpdateDeduplicator, limiter *guard.RateLimiter, logger zerolog.Logger) *Bot {
	return &Bot{
		api:      api,
		handlers: h,
		dedup:    dd,
		limiter:  limiter,
		logger:   logger,
	}
}

// NewAPI authenticates against the Telegram Bot API.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return api, nil
}

// SendText delivers one plain-text message. Satisfies the dispatcher's
// sender contract.
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Start blocks on the long-polling loop until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info().Str("account", b.api.Self.UserName).Msg("telegram bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	now := time.Now()
	chatID := update.Message.Chat.ID

	if !b.dedup.MarkSeen(update.UpdateID, now) {
		b.logger.Debug().Int("update_id", update.UpdateID).Msg("duplicate update dropped")
		return
	}

	if update.Message.IsCommand() {
		go b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	if !b.limiter.Allow(chatID, now) {
		b.logger.Debug().Int64("chat_id", chatID).Msg("rate limit rejected message")
		if err := b.SendText(chatID, "Too many requests, give me a minute to catch up."); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("rate limit reply failed")
		}
		return
	}

	go b.handlers.HandleMessage(ctx, update.Message)
}
