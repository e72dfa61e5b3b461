// Package triggers turns incoming message text into subscribe and unsubscribe
// calls by matching it against each category's keywords.
package triggers

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"botsub/internal/models"
)

type Kind string

const (
	KindSubscribe   Kind = "subscribe"
	KindUnsubscribe Kind = "unsubscribe"
)

// Action is what the host should do after a keyword matched.
type Action struct {
	Category string
	Kind     Kind
	// Type and Text come from the subscription's sub_action/unsub_action fields.
	Type string
	Text string
	// Already is set when a subscribe keyword came from an existing member.
	Already bool
}

type Store interface {
	ListAll(ctx context.Context) ([]models.Subscription, error)
	Subscribe(ctx context.Context, userID, category string) error
	Unsubscribe(ctx context.Context, userID, category string) error
}

type Matcher struct {
	store Store
	log   zerolog.Logger
}

func New(store Store, log zerolog.Logger) *Matcher {
	return &Matcher{store: store, log: log}
}

// Handle checks text against every category and applies the first match.
// The bool result is false when nothing matched.
func (m *Matcher) Handle(ctx context.Context, userID, text string) (Action, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Action{}, false, nil
	}

	subs, err := m.store.ListAll(ctx)
	if err != nil {
		return Action{}, false, err
	}

	for _, sub := range subs {
		switch {
		case matches(sub.SubKeywords, text):
			action := Action{Category: sub.Category, Kind: KindSubscribe, Type: sub.SubActionType, Text: sub.SubAction}
			err := m.store.Subscribe(ctx, userID, sub.Category)
			if errors.Is(err, models.ErrConflict) {
				action.Already = true
				err = nil
			}
			if err != nil {
				return Action{}, true, err
			}
			m.log.Info().Str("user", userID).Str("category", sub.Category).Bool("already", action.Already).Msg("subscribe keyword")
			return action, true, nil

		case matches(sub.UnsubKeywords, text):
			if err := m.store.Unsubscribe(ctx, userID, sub.Category); err != nil {
				return Action{}, true, err
			}
			m.log.Info().Str("user", userID).Str("category", sub.Category).Msg("unsubscribe keyword")
			return Action{Category: sub.Category, Kind: KindUnsubscribe, Type: sub.UnsubActionType, Text: sub.UnsubAction}, true, nil
		}
	}
	return Action{}, false, nil
}

func matches(keywords []string, text string) bool {
	for _, kw := range keywords {
		if strings.EqualFold(kw, text) {
			return true
		}
	}
	return false
}
