package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"botsub/internal/models"
	"botsub/pkg/tasks"
)

// Store is the part of db.Store the admin routes use.
type Store interface {
	ListAll(ctx context.Context) ([]models.Subscription, error)
	Create(ctx context.Context, category string) (*models.Subscription, error)
	Modify(ctx context.Context, id int, opts models.ModifyOptions) error
	Delete(ctx context.Context, id int) error
	FindByCategory(ctx context.Context, category string) (*models.Subscription, error)
	GetSubscribed(ctx context.Context, userID string) ([]string, error)
}

type Handlers struct {
	store       Store
	asynqClient tasks.TaskEnqueuer
	log         zerolog.Logger
}

func New(store Store, asynqClient tasks.TaskEnqueuer, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:       store,
		asynqClient: asynqClient,
		log:         log,
	}
}

// NewRouter mounts the admin routes behind the given middleware.
func NewRouter(h *Handlers, mws ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(mws...)
	r.HandleFunc("/subscriptions", h.ListSubscriptions).Methods(http.MethodGet)
	r.HandleFunc("/subscriptions", h.CreateSubscription).Methods(http.MethodPut)
	r.HandleFunc("/subscriptions/{id:[0-9]+}", h.ModifySubscription).Methods(http.MethodPost)
	r.HandleFunc("/subscriptions/{id:[0-9]+}", h.DeleteSubscription).Methods(http.MethodDelete)
	r.HandleFunc("/categories/{category}/announce", h.Announce).Methods(http.MethodPost)
	r.HandleFunc("/users/{userId}/subscriptions", h.GetUserSubscriptions).Methods(http.MethodGet)
	return r
}

type errorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("writing response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid arguments", Violations: verr.Violations})
	case errors.Is(err, models.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrConflict):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: "already exists"})
	default:
		h.log.Error().Err(err).Msg("admin request failed")
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}
