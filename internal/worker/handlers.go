package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"botsub/pkg/tasks"
)

// Sender delivers a message to a host user id.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

type SubscriberStore interface {
	Subscribers(ctx context.Context, category string) ([]string, error)
}

type TaskHandler struct {
	store  SubscriberStore
	sender Sender
	log    zerolog.Logger
}

func NewTaskHandler(store SubscriberStore, sender Sender, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{store: store, sender: sender, log: log}
}

// HandleAnnounceTask sends the announcement to every member of the category.
// It only fails when nobody could be reached, so a retry does not spam the
// members who already got it.
func (h *TaskHandler) HandleAnnounceTask(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseAnnounce(t)
	if err != nil {
		return errors.Wrapf(asynq.SkipRetry, "unmarshalling announce payload: %v", err)
	}
	l := h.log.With().Str("category", p.Category).Logger()

	users, err := h.store.Subscribers(ctx, p.Category)
	if err != nil {
		return errors.Wrap(err, "loading subscribers")
	}
	if len(users) == 0 {
		l.Info().Msg("announcement has no recipients")
		return nil
	}

	var failed int
	for _, user := range users {
		if err := h.sender.Send(ctx, user, p.Text); err != nil {
			failed++
			l.Warn().Err(err).Str("user", user).Msg("sending announcement")
		}
	}

	l.Info().Int("recipients", len(users)).Int("failed", failed).Msg("announcement sent")
	if failed == len(users) {
		return errors.Errorf("announcement to %q reached none of %d subscribers", p.Category, len(users))
	}
	return nil
}
