package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"yoosprint/logging"
	"yoosprint/models"
	"yoosprint/services"
)

const maxUploadBytes = 32 << 20

type FileHandler struct {
	files *services.FileService
}

func NewFileHandler(files *services.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// ListFolders filters by parent and project. root=true lists top-level
// folders only.
func (h *FileHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	parent, err := queryID(r, "parent")
	if err != nil {
		writeError(w, r, err)
		return
	}
	project, err := queryID(r, "project")
	if err != nil {
		writeError(w, r, err)
		return
	}
	root, _ := strconv.ParseBool(r.URL.Query().Get("root"))

	folders, err := h.files.ListFolders(r.Context(), models.FolderFilter{Parent: parent, Project: project, Root: root})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if folders == nil {
		folders = []models.FileFolder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *FileHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var f models.FileFolder
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.files.CreateFolder(r.Context(), actor, &f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *FileHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.files.GetFolder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FileHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.FolderPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.files.UpdateFolder(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FileHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.files.DeleteFolder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload expects a multipart form with the content in the "file" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
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
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, badRequest("invalid multipart upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("file field is required"))
		return
	}
	defer file.Close()

	doc, err := h.files.UploadFile(r.Context(), actor, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Download streams the stored contents with the recorded content type.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, rc, err := h.files.OpenFile(r.Context(), id, mux.Vars(r)["fileId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	w.Header().Set("Content-Length", fmt.Sprint(doc.Size))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logging.Logger.Warnf("Event ID: FILE_DOWNLOAD_INTERRUPTED, Description: Streaming file %s failed: %v", doc.ID, err)
	}
}

func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.files.DeleteFile(r.Context(), id, mux.Vars(r)["fileId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
