package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/calband/calchart/internal/repositories"
)

// ExportHandler serves a show's stored JSON document as a file download.
type ExportHandler struct {
	shows *repositories.ShowRepository
}

// NewExportHandler creates the export endpoint over the show repository.
func NewExportHandler(shows *repositories.ShowRepository) *ExportHandler {
	return &ExportHandler{shows: shows}
}

// Routes implements [server.Handler].
func (h *ExportHandler) Routes() []string {
	return []string{"/export/"}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/export/"), "/")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	show, err := h.shows.GetBySlug(slug)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !show.IsInitialized() {
		http.NotFound(w, r)
		return
	}

	// The document is streamed verbatim; no transformation occurs.
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", slug))
	w.Write(show.Data())
}
