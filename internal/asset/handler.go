// Package asset accepts image uploads and drops them onto a session's
// canvas.
package asset

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/imaging"
	"github.com/inamate/sketchboard/internal/live"
	"github.com/inamate/sketchboard/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID       string `json:"id"`
	ObjectID string `json:"objectId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Type     string `json:"type"`
	Name     string `json:"name"`
}

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Handler serves the image upload endpoint.
type Handler struct {
	hub *live.Hub
}

func NewHandler(hub *live.Hub) *Handler {
	return &Handler{hub: hub}
}

// Upload handles POST /api/sessions/{id}/images (multipart form with a
// "file" field). The image is stored inline in the scene as a data URI.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	session, err := h.hub.Get(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 10MB)"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 10MB)"})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read upload", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read file"})
		return
	}

	// Trust the bytes, not the client's Content-Type.
	contentType := http.DetectContentType(data)
	if !allowedTypes[contentType] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only PNG, JPEG, GIF and WebP images are supported"})
		return
	}

	cfg, format, err := imaging.DecodeConfig(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image: " + err.Error()})
		return
	}

	src := imaging.EncodeDataURL(contentType, data)
	var objectID string
	err = session.Do(r.Context(), func(e *engine.Engine) error {
		var err error
		objectID, err = e.AddImage(src)
		return err
	})
	switch {
	case errors.Is(err, live.ErrSessionClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
		return
	case err != nil:
		slog.Error("add image", "session", session.ID(), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add image"})
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		ID:       typeid.NewAssetID(),
		ObjectID: objectID,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Type:     format,
		Name:     header.Filename,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
