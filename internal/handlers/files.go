package handlers

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shebashongskar/apiserver/internal/storage"
)

// FileHandler streams stored objects (report images) back to clients.
type FileHandler struct {
	storage *storage.Storage
}

// NewFileHandler constructs a handler over the configured object storage.
func NewFileHandler(st *storage.Storage) *FileHandler {
	return &FileHandler{storage: st}
}

// FileRouter registers the object download route on the given router.
func FileRouter(r chi.Router, st *storage.Storage) {
	handler := NewFileHandler(st)
	r.Get("/*", handler.ServeFile)
}

// ServeFile streams the object named by the wildcard path segment.
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	object, err := h.storage.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer object.Close()

	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, object); err != nil {
		// response already started; nothing sensible left to send
		return
	}
}
