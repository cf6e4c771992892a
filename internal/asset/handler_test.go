package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/live"
	"github.com/inamate/sketchboard/internal/store"
	"github.com/inamate/sketchboard/internal/typeid"
)

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	hub := live.NewHub(st, live.HubOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	defer hub.Stop()
	session, err := hub.Create(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/sessions/{id}/images", NewHandler(hub).Upload).Methods("POST")

	var img bytes.Buffer
	png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 12, 7)))

	tests := []struct {
		name       string
		session    string
		file       string
		data       []byte
		wantStatus int
	}{
		{"png", session.ID(), "dot.png", img.Bytes(), http.StatusOK},
		{"not an image", session.ID(), "notes.txt", []byte("hello there"), http.StatusBadRequest},
		{"unknown session", "sess_missing", "dot.png", img.Bytes(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.file, tt.data)
			req := httptest.NewRequest("POST", "/api/sessions/"+tt.session+"/images", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp UploadResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if err := typeid.Validate(resp.ID, typeid.PrefixAsset); err != nil {
				t.Errorf("asset id: %v", err)
			}
			if resp.Width != 12 || resp.Height != 7 || resp.Type != "png" || resp.Name != "dot.png" {
				t.Errorf("response = %+v", resp)
			}
		})
	}

	var placed *document.Object
	session.Do(context.Background(), func(e *engine.Engine) error {
		for _, o := range e.Objects() {
			if o.Kind() == document.KindImage {
				placed = o.Clone()
			}
		}
		return nil
	})
	if placed == nil {
		t.Fatal("uploaded image not on the canvas")
	}
	if placed.X != engine.ImageX || placed.Y != engine.ImageY || placed.W != engine.ImageSize || placed.H != engine.ImageSize {
		t.Errorf("image placed at %v,%v %vx%v", placed.X, placed.Y, placed.W, placed.H)
	}
}
