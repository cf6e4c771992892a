package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"
)

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantType  string
		wantData  string
		wantError bool
	}{
		{"base64", "data:image/png;base64,aGVsbG8=", "image/png", "hello", false},
		{"unpadded base64", "data:image/png;base64,aGVsbG8", "image/png", "hello", false},
		{"percent encoded", "data:text/plain,a%20b", "text/plain", "a b", false},
		{"default media type", "data:,x", "text/plain", "x", false},
		{"parameters", "data:image/svg+xml;charset=utf-8;base64,eA==", "image/svg+xml", "x", false},
		{"no scheme", "image/png;base64,aGVsbG8=", "", "", true},
		{"no comma", "data:image/png;base64", "", "", true},
		{"bad base64", "data:image/png;base64,!!!", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, data, err := ParseDataURL(tt.in)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidDataURL) {
					t.Errorf("ParseDataURL() error = %v, want ErrInvalidDataURL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataURL() error = %v", err)
			}
			if mt != tt.wantType || string(data) != tt.wantData {
				t.Errorf("ParseDataURL() = %q, %q, want %q, %q", mt, data, tt.wantType, tt.wantData)
			}
		})
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodePostsOnce(t *testing.T) {
	posted := make(chan func(), 2)
	d := &Decoder{Post: func(fn func()) { posted <- fn }}

	calls := 0
	h := d.Decode(EncodeDataURL("image/png", encodePNG(t, 3, 2)), func() { calls++ })

	select {
	case <-h.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("decode never became ready")
	}
	(<-posted)()

	img, ok := h.Image()
	if !ok || img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("Image() = %v, %v", img, ok)
	}
	if calls != 1 || len(posted) != 0 {
		t.Errorf("onReady calls = %d, pending posts = %d", calls, len(posted))
	}
	if h.resolve(img) {
		t.Error("handle resolved twice")
	}
}

func TestDecodeFailureStaysPending(t *testing.T) {
	d := &Decoder{Post: func(fn func()) { t.Error("onReady posted for a failed decode") }}
	h := d.Decode(EncodeDataURL("image/png", []byte("not a png")), func() {})

	deadline := time.After(5 * time.Second)
	for h.Err() == nil {
		select {
		case <-deadline:
			t.Fatal("decode error never recorded")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if _, ok := h.Image(); ok {
		t.Error("failed decode reported an image")
	}
	select {
	case <-h.Ready():
		t.Error("failed decode closed Ready")
	default:
	}
}

func TestDecodeConfig(t *testing.T) {
	cfg, format, err := DecodeConfig(encodePNG(t, 7, 5))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 7 || cfg.Height != 5 || format != "png" {
		t.Errorf("DecodeConfig() = %+v, %q", cfg, format)
	}
	if _, _, err := DecodeConfig([]byte("junk")); err == nil {
		t.Error("DecodeConfig(junk) error = nil")
	}
}

func TestNilHandle(t *testing.T) {
	var h *Handle
	if _, ok := h.Image(); ok {
		t.Error("nil handle reported an image")
	}
}
