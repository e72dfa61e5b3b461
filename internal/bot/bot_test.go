package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botsub/internal/db"
	"botsub/internal/test"
	"botsub/internal/triggers"
)

type fakeAPI struct {
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	stopped bool
	err     error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() { f.stopped = true }

func (f *fakeAPI) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

func newBot(t *testing.T) (*Bot, *fakeAPI, *db.Store) {
	store := test.NewSQLiteStore(t)
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	return New(api, store, triggers.New(store, zerolog.Nop()), zerolog.Nop()), api, store
}

func message(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: 42, UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: 42},
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestUserIDRoundTrip(t *testing.T) {
	assert.Equal(t, "telegram:42", UserID(42))

	id, err := ChatID("telegram:42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ChatID("web:42")
	assert.Error(t, err)
	_, err = ChatID("telegram:abc")
	assert.Error(t, err)
}

func TestKeywordMessages(t *testing.T) {
	ctx := context.Background()
	b, api, store := newBot(t)
	test.Seed(t, store, nil, "weather")

	b.handleUpdate(ctx, message("SUBSCRIBE_WEATHER"))
	assert.Equal(t, "Successfully subscribed to weather", api.lastText())
	assert.Equal(t, int64(42), api.sent[0].ChatID)

	b.handleUpdate(ctx, message("subscribe_weather"))
	assert.Equal(t, "You are already subscribed to weather.", api.lastText())

	b.handleUpdate(ctx, message("/list"))
	assert.Equal(t, "You are subscribed to: weather", api.lastText())

	b.handleUpdate(ctx, message("UNSUBSCRIBE_WEATHER"))
	assert.Equal(t, "You are now unsubscribed from weather", api.lastText())

	b.handleUpdate(ctx, message("/list"))
	assert.Equal(t, "You have no subscriptions.", api.lastText())

	sent := len(api.sent)
	b.handleUpdate(ctx, message("good morning"))
	assert.Len(t, api.sent, sent)
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	b, api, store := newBot(t)

	b.handleUpdate(ctx, message("/categories"))
	assert.Equal(t, "There is nothing to subscribe to yet.", api.lastText())

	test.Seed(t, store, nil, "weather", "news")
	b.handleUpdate(ctx, message("/categories"))
	assert.Equal(t, "weather: send SUBSCRIBE_WEATHER\nnews: send SUBSCRIBE_NEWS", api.lastText())

	b.handleUpdate(ctx, message("/dance"))
	assert.Equal(t, "I don't know that command", api.lastText())

	b.handleUpdate(ctx, tgbotapi.Update{})
	assert.Len(t, api.sent, 3)
}

func TestSend(t *testing.T) {
	b, api, _ := newBot(t)

	require.NoError(t, b.Send(context.Background(), "telegram:7", "hello"))
	assert.Equal(t, int64(7), api.sent[0].ChatID)
	assert.Equal(t, "hello", api.sent[0].Text)

	assert.Error(t, b.Send(context.Background(), "web:7", "hello"))

	api.err = errors.New("Forbidden: bot was blocked by the user")
	assert.ErrorContains(t, b.Send(context.Background(), "telegram:7", "hello"), "blocked")
}

func TestRunStopsOnCancel(t *testing.T) {
	b, api, store := newBot(t)
	test.Seed(t, store, nil, "weather")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	api.updates <- message("SUBSCRIBE_WEATHER")
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, api.stopped)
	assert.Equal(t, "Successfully subscribed to weather", api.lastText())
}
