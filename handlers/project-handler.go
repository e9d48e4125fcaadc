package handlers

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
	"yoosprint/services"
)

type ProjectHandler struct {
	projects *services.ProjectService
	deps     *services.DependencyService
}

func NewProjectHandler(projects *services.ProjectService, deps *services.DependencyService) *ProjectHandler {
	return &ProjectHandler{projects: projects, deps: deps}
}

// List filters by member, department and status. mine=true restricts the
// result to projects the caller belongs to.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	member, err := queryID(r, "member")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	if mine, _ := strconv.ParseBool(q.Get("mine")); mine {
		actor, err := actorFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		member = &actor.ID
	}
	f := models.ProjectFilter{
		Member:     member,
		Department: q.Get("department"),
		Status:     models.ProjectStatus(q.Get("status")),
	}
	projects, err := h.projects.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p models.Project
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.projects.Create(r.Context(), actor, &p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.projects.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		UserID primitive.ObjectID `json:"userId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.UserID.IsZero() {
		writeError(w, r, badRequest("userId is required"))
		return
	}
	p, err := h.projects.AddMember(r.Context(), id, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.projects.RemoveMember(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) DependencyGraph(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.projects.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	edges, err := h.deps.ProjectGraph(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}
