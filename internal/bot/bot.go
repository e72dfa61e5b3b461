// Package bot is the Telegram front end: it feeds incoming messages to the
// keyword triggers and answers a few commands.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"botsub/internal/models"
	"botsub/internal/triggers"
)

const userPrefix = "telegram:"

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Store interface {
	ListAll(ctx context.Context) ([]models.Subscription, error)
	GetSubscribed(ctx context.Context, userID string) ([]string, error)
}

type Bot struct {
	api     API
	store   Store
	matcher *triggers.Matcher
	log     zerolog.Logger
}

func New(api API, store Store, matcher *triggers.Matcher, log zerolog.Logger) *Bot {
	return &Bot{api: api, store: store, matcher: matcher, log: log}
}

// UserID is the host user id of a Telegram user.
func UserID(telegramID int64) string {
	return userPrefix + strconv.FormatInt(telegramID, 10)
}

// ChatID extracts the Telegram id from a host user id.
func ChatID(userID string) (int64, error) {
	raw, ok := strings.CutPrefix(userID, userPrefix)
	if !ok {
		return 0, errors.Errorf("%q is not a telegram user", userID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing telegram id of %q", userID)
	}
	return id, nil
}

// Run long-polls Telegram until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	userID := UserID(msg.From.ID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "list":
			b.handleList(ctx, msg, userID)
		case "categories":
			b.handleCategories(ctx, msg)
		case "start", "help":
			b.reply(msg, "Send /categories to see what you can subscribe to and /list to see your subscriptions.")
		default:
			b.reply(msg, "I don't know that command")
		}
		return
	}

	action, ok, err := b.matcher.Handle(ctx, userID, msg.Text)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("handling keyword")
		b.reply(msg, "Something went wrong, please try again later.")
		return
	}
	if !ok {
		return
	}
	if action.Already {
		b.reply(msg, fmt.Sprintf("You are already subscribed to %s.", action.Category))
		return
	}
	if action.Type != models.ActionTypeText {
		b.log.Warn().Str("type", action.Type).Str("category", action.Category).Msg("unsupported action type")
		return
	}
	b.reply(msg, action.Text)
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message, userID string) {
	categories, err := b.store.GetSubscribed(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user", userID).Msg("listing user subscriptions")
		b.reply(msg, "Internal server error")
		return
	}
	if len(categories) == 0 {
		b.reply(msg, "You have no subscriptions.")
		return
	}
	b.reply(msg, "You are subscribed to: "+strings.Join(categories, ", "))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) {
	subs, err := b.store.ListAll(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("listing categories")
		b.reply(msg, "Internal server error")
		return
	}
	if len(subs) == 0 {
		b.reply(msg, "There is nothing to subscribe to yet.")
		return
	}

	var sb strings.Builder
	for _, sub := range subs {
		sb.WriteString(sub.Category)
		if len(sub.SubKeywords) > 0 {
			fmt.Fprintf(&sb, ": send %s", sub.SubKeywords[0])
		}
		sb.WriteString("\n")
	}
	b.reply(msg, strings.TrimSuffix(sb.String(), "\n"))
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, text)); err != nil {
		b.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("sending reply")
	}
}

// Send delivers text to a host user id; it lets the announce worker reach
// Telegram members.
func (b *Bot) Send(ctx context.Context, userID, text string) error {
	chatID, err := ChatID(userID)
	if err != nil {
		return err
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return errors.Wrapf(err, "sending to %s", userID)
	}
	return nil
}
