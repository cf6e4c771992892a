package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Handle is the decode state of one image source. It starts pending and
// moves to ready at most once; a failed decode leaves it pending forever.
type Handle struct {
	mu    sync.Mutex
	img   image.Image
	err   error
	ready chan struct{}
}

func newHandle() *Handle {
	return &Handle{ready: make(chan struct{})}
}

// Ready is closed when the bitmap becomes available.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}

// Image returns the decoded bitmap without blocking.
func (h *Handle) Image() (image.Image, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.img, h.img != nil
}

// Err returns the decode error, if the decode failed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) resolve(img image.Image) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.img != nil {
		return false
	}
	h.img = img
	close(h.ready)
	return true
}

func (h *Handle) fail(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// Resolved returns a handle that is already ready with img.
func Resolved(img image.Image) *Handle {
	h := newHandle()
	h.resolve(img)
	return h
}

// Decoder runs decodes off the caller's goroutine and hands completion
// back through Post, so the owner observes readiness on its own loop.
type Decoder struct {
	// Post schedules fn on the owner's event loop. When nil, fn runs on the
	// decode goroutine.
	Post   func(fn func())
	Logger *slog.Logger
}

// Decode starts decoding src (a data URI). onReady, if non-nil, is posted
// exactly once after the bitmap is available and never on failure.
func (d *Decoder) Decode(src string, onReady func()) *Handle {
	h := newHandle()
	go func() {
		img, err := DecodeSource(src)
		if err != nil {
			h.fail(err)
			d.logger().Warn("image decode failed", "error", err)
			return
		}
		if !h.resolve(img) || onReady == nil {
			return
		}
		if d.Post != nil {
			d.Post(onReady)
		} else {
			onReady()
		}
	}()
	return h
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// DecodeSource synchronously decodes a data URI into a bitmap.
func DecodeSource(src string) (image.Image, error) {
	_, data, err := ParseDataURL(src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeConfig reads the dimensions and format of encoded image bytes.
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decode image config: %w", err)
	}
	return cfg, format, nil
}
