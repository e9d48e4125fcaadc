package handlers

import (
	"net/http"
	"time"

	"yoosprint/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// notificationKey addresses one notification inside the caller's
// partition.
type notificationKey struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.notifications.List(r.Context(), actor.ID.Hex())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var key notificationKey
	if err := decodeJSON(w, r, &key); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), actor.ID.Hex(), key.ID, key.CreatedAt); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var key notificationKey
	if err := decodeJSON(w, r, &key); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), actor.ID.Hex(), key.ID, key.CreatedAt); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
