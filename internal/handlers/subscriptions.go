package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"botsub/internal/models"
	"botsub/pkg/tasks"
)

// maxBodyBytes caps admin request bodies.
const maxBodyBytes = 64 << 10

func (h *Handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, subs)
}

func (h *Handlers) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be a JSON object with a category"})
		return
	}

	sub, err := h.store.Create(r.Context(), body.Category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sub)
}

func (h *Handlers) ModifySubscription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reading body"})
		return
	}
	opts, err := models.DecodeModifyOptions(data)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.store.Modify(r.Context(), id, opts); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Announce queues a message for every member of a category.
func (h *Handlers) Announce(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil || body.Text == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be a JSON object with a non-empty text"})
		return
	}

	if _, err := h.store.FindByCategory(r.Context(), category); err != nil {
		h.writeError(w, err)
		return
	}

	task, err := tasks.NewAnnounceTask(category, body.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info().Str("category", category).Str("task_id", info.ID).Msg("announcement queued")
	h.writeJSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID})
}

func (h *Handlers) GetUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.GetSubscribed(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, categories)
}
