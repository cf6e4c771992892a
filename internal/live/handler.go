package live

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/store"
)

// TokenIssuer signs a token scoped to one session.
type TokenIssuer interface {
	IssueToken(sessionID string) (string, error)
}

type Handler struct {
	hub            *Hub
	tokens         TokenIssuer
	allowedOrigins []string
}

func NewHandler(hub *Hub, tokens TokenIssuer, allowedOrigins []string) *Handler {
	return &Handler{hub: hub, tokens: tokens, allowedOrigins: allowedOrigins}
}

type createRequest struct {
	Key string `json:"key"`
}

type createResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Create serves POST /api/sessions. The optional body names the storage key
// to open.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, err := h.hub.Create(r.Context(), req.Key)
	if errors.Is(err, store.ErrInvalidKey) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid storage key"})
		return
	}
	if err != nil {
		slog.Error("create session failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	token, err := h.tokens.IssueToken(s.ID())
	if err != nil {
		slog.Error("issue token failed", "session", s.ID(), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{ID: s.ID(), Token: token})
}

// Scene serves GET /api/sessions/{id}/scene with the scene in its saved form.
func (h *Handler) Scene(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.hub.Get(id)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	var data []byte
	err = s.Do(r.Context(), func(e *engine.Engine) error {
		var err error
		data, err = document.Marshal(e.Objects())
		return err
	})
	if err != nil {
		handleSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Connect upgrades GET /ws/sessions/{id} and attaches the connection.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.hub.Get(id)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		slog.Error("websocket accept failed", "session", id, "error", err)
		return
	}

	NewClient(s, conn).Serve(r.Context())
}

func handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, ErrSessionClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
	default:
		slog.Error("session request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
