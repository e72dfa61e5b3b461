package tasks

import (
	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const TypeAnnounce = "category:announce"

// AnnouncePayload asks the worker to send Text to every member of Category.
type AnnouncePayload struct {
	Category string
	Text     string
}

func NewAnnounceTask(category, text string) (*asynq.Task, error) {
	payload, err := json.Marshal(AnnouncePayload{Category: category, Text: text})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAnnounce, payload, asynq.MaxRetry(3)), nil
}

func ParseAnnounce(t *asynq.Task) (AnnouncePayload, error) {
	var p AnnouncePayload
	err := json.Unmarshal(t.Payload(), &p)
	return p, err
}
