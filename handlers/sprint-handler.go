package handlers

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
	"yoosprint/services"
)

type SprintHandler struct {
	sprints  *services.SprintService
	timeline *services.TimelineService
}

func NewSprintHandler(sprints *services.SprintService, timeline *services.TimelineService) *SprintHandler {
	return &SprintHandler{sprints: sprints, timeline: timeline}
}

// List accepts project and status filters. populate=true embeds each
// sprint's backlog items.
func (h *SprintHandler) List(w http.ResponseWriter, r *http.Request) {
	project, err := queryID(r, "project")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := models.SprintFilter{Project: project, Status: models.SprintStatus(r.URL.Query().Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, r, badRequest("invalid status %q", f.Status))
		return
	}
	populate, _ := strconv.ParseBool(r.URL.Query().Get("populate"))

	sprints, err := h.sprints.List(r.Context(), f, populate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sprints == nil {
		sprints = []models.Sprint{}
	}
	writeJSON(w, http.StatusOK, sprints)
}

func (h *SprintHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var sprint models.Sprint
	if err := decodeJSON(w, r, &sprint); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.sprints.Create(r.Context(), actor, &sprint)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *SprintHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sprint, err := h.sprints.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sprint)
}

func (h *SprintHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.SprintPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	sprint, err := h.sprints.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sprint)
}

func (h *SprintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sprints.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SprintHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		BacklogIDs []primitive.ObjectID `json:"backlogIds"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sprint, err := h.sprints.AddItems(r.Context(), id, req.BacklogIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sprint)
}

func (h *SprintHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	backlogID, err := pathID(r, "backlogId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sprint, err := h.sprints.RemoveItem(r.Context(), id, backlogID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sprint)
}

func (h *SprintHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	project, err := queryID(r, "project")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tl, err := h.timeline.Build(r.Context(), project)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}
