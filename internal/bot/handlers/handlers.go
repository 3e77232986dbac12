// Package handlers maps inbound Telegram messages to the command
// pipeline and renders the replies.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"remindbot/internal/ai"
	"remindbot/internal/command"
	"remindbot/internal/format"
	"remindbot/internal/models"
	"remindbot/internal/nlu"
)

// CommandBuilder turns user text into a validated command.
type CommandBuilder interface {
	BuildCommand(ctx context.Context, userText string, now time.Time) (command.Command, error)
}

// ReminderService executes the three reminder commands.
type ReminderService interface {
	Create(ctx context.Context, chatID int64, cmd *command.Create, now time.Time) ([]*models.Reminder, error)
	List(ctx context.Context, chatID int64, cmd *command.List, now time.Time) ([]*models.Reminder, error)
	Delete(ctx context.Context, chatID int64, cmd *command.Delete, now time.Time) ([]*models.Reminder, error)
}

// Notifier wakes the dispatcher after new reminders are stored.
type Notifier interface {
	Notify()
}

type Handlers struct {
	api      *tgbotapi.BotAPI
	builder  CommandBuilder
	service  ReminderService
	notifier Notifier
	loc      *time.Location
	logger   zerolog.Logger
}

func New(api *tgbotapi.BotAPI, builder CommandBuilder, service ReminderService, notifier Notifier, loc *time.Location, logger zerolog.Logger) *Handlers {
	return &Handlers{
		api:      api,
		builder:  builder,
		service:  service,
		notifier: notifier,
		loc:      loc,
		logger:   logger,
	}
}

const welcomeText = `I am a reminder assistant. Tell me what to remember in plain language:

"remind me to call mom tomorrow at 6pm"
"water the plants every day at 9:00"
"what do I have scheduled this week?"
"delete the reminders about the dentist"`

// HandleCommand processes slash commands.
func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		h.reply(msg.Chat.ID, welcomeText)
	default:
		h.reply(msg.Chat.ID, "Unknown command. Just write me what to remind you about.")
	}
}

// HandleMessage runs one free-form message through the pipeline.
func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	chatID := msg.Chat.ID
	now := time.Now().In(h.loc)

	cmd, err := h.builder.BuildCommand(ctx, text, now)
	if err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("command interpretation failed")
		h.reply(chatID, errorReply(err))
		return
	}

	switch c := cmd.(type) {
	case *command.Create:
		created, err := h.service.Create(ctx, chatID, c, now)
		if err != nil {
			h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("create failed")
			h.reply(chatID, "Could not save the reminder, please try again.")
			return
		}
		h.reply(chatID, createdReply(created, c, h.loc))
		h.notifier.Notify()
	case *command.List:
		items, err := h.service.List(ctx, chatID, c, now)
		if err != nil {
			h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("list failed")
			h.reply(chatID, "Could not read your reminders, please try again.")
			return
		}
		h.reply(chatID, format.List(items, h.loc))
	case *command.Delete:
		deleted, err := h.service.Delete(ctx, chatID, c, now)
		if err != nil {
			h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("delete failed")
			h.reply(chatID, "Could not delete, please try again.")
			return
		}
		h.reply(chatID, format.Deleted(deleted, h.loc))
	}
}

// createdReply appends a recurrence description for recurring inputs.
func createdReply(created []*models.Reminder, cmd *command.Create, loc *time.Location) string {
	text := format.Created(created, loc)
	for i := range cmd.Reminders {
		if desc := format.DescribeRule(cmd.Reminders[i].RecurrenceRule, loc); desc != "" {
			text += fmt.Sprintf("\nRepeats: %s", desc)
		}
	}
	return text
}

func errorReply(err error) string {
	switch {
	case errors.Is(err, nlu.ErrBudgetExceeded):
		return "The monthly assistant budget is used up. Reminders still fire; new requests resume next month."
	case errors.Is(err, nlu.ErrCircuitOpen):
		return "The assistant is temporarily unavailable. Please try again in a minute."
	case errors.Is(err, ai.ErrRateLimited):
		return "The assistant is overloaded right now. Please try again shortly."
	case errors.Is(err, command.ErrInvalid):
		return "I could not understand that. Try rephrasing, for example: \"remind me to pay rent tomorrow at 10:00\"."
	default:
		return "Something went wrong, please try again."
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("reply send failed")
	}
}
