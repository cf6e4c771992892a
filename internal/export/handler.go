package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ErrNoScene is returned by a Source that has no scene under an id.
var ErrNoScene = errors.New("no such scene")

// Source produces a consistent snapshot of a scene by id.
type Source interface {
	Scene(ctx context.Context, id string) (*Scene, error)
}

type Handler struct {
	source Source
	canvas Canvas
}

func NewHandler(source Source, canvas Canvas) *Handler {
	return &Handler{source: source, canvas: canvas}
}

// Export serves GET /api/sessions/{id}/export/{format}.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	format, err := ParseFormat(vars["format"])
	if err != nil {
		http.Error(w, "invalid format: must be json, html, png, or pdf", http.StatusBadRequest)
		return
	}

	scene, err := h.source.Scene(r.Context(), id)
	if errors.Is(err, ErrNoScene) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("snapshot scene", "session", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Buffer the output so a failed encode can still report an error status.
	var buf bytes.Buffer
	if err := Write(&buf, format, scene, h.canvas); err != nil {
		slog.Error("export failed", "session", id, "format", format, "error", err)
		http.Error(w, fmt.Sprintf("export failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)

	slog.Info("export complete", "session", id, "format", format, "size", buf.Len())
}
