package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
	"yoosprint/services"
)

type BacklogHandler struct {
	backlogs *services.BacklogService
	deps     *services.DependencyService
}

func NewBacklogHandler(backlogs *services.BacklogService, deps *services.DependencyService) *BacklogHandler {
	return &BacklogHandler{backlogs: backlogs, deps: deps}
}

func backlogFilter(r *http.Request) (models.BacklogFilter, error) {
	var f models.BacklogFilter
	var err error
	if f.Project, err = queryID(r, "project"); err != nil {
		return f, err
	}
	if f.Sprint, err = queryID(r, "sprint"); err != nil {
		return f, err
	}
	if f.Assignee, err = queryID(r, "assignee"); err != nil {
		return f, err
	}
	q := r.URL.Query()
	f.Status = models.BacklogStatus(q.Get("status"))
	if f.Status != "" && !f.Status.Valid() {
		return f, badRequest("invalid status %q", f.Status)
	}
	f.TaskStatus = models.TaskProgress(q.Get("taskStatus"))
	if f.TaskStatus != "" && !f.TaskStatus.Valid() {
		return f, badRequest("invalid taskStatus %q", f.TaskStatus)
	}
	return f, nil
}

func (h *BacklogHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := backlogFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.backlogs.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Backlog{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BacklogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var b models.Backlog
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.backlogs.Create(r.Context(), &b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *BacklogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.backlogs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BacklogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.BacklogPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.backlogs.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BacklogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.backlogs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BacklogHandler) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.backlogs.AddChecklistItem(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BacklogHandler) UpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.ChecklistPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.backlogs.UpdateChecklistItem(r.Context(), id, mux.Vars(r)["itemId"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BacklogHandler) RemoveChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.backlogs.RemoveChecklistItem(r.Context(), id, mux.Vars(r)["itemId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BacklogHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.backlogs.StartTimer(r.Context(), id, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BacklogHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.backlogs.StopTimer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ActiveTimer answers with a null backlog when the caller has no running
// timer.
func (h *BacklogHandler) ActiveTimer(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	active, err := h.backlogs.ActiveTimer(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if active == nil {
		active = &services.ActiveTimer{}
	}
	writeJSON(w, http.StatusOK, active)
}

func (h *BacklogHandler) ListDependencies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	deps, err := h.deps.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

func (h *BacklogHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		DependsOn primitive.ObjectID `json:"dependsOn"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.DependsOn.IsZero() {
		writeError(w, r, badRequest("dependsOn is required"))
		return
	}
	if err := h.deps.Add(r.Context(), id, req.DependsOn); err != nil {
		writeError(w, r, err)
		return
	}
	deps, err := h.deps.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deps)
}

func (h *BacklogHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	dependsOn, err := pathID(r, "dependsOn")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Remove(r.Context(), id, dependsOn); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
