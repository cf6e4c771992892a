package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/sketchboard/internal/document"
)

// DefaultKey is the key a scene is saved under unless configured otherwise.
const DefaultKey = document.StorageKey

const saveTimeout = 5 * time.Second

// Document loads and saves one scene under a fixed key.
type Document struct {
	store Store
	key   string
	log   *slog.Logger
}

func NewDocument(s Store, key string, log *slog.Logger) *Document {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &Document{store: s, key: key, log: log}
}

func (d *Document) Key() string { return d.key }

// Load returns the saved scene. Missing or unreadable data yields an empty
// scene.
func (d *Document) Load(ctx context.Context) []*document.Object {
	data, err := d.store.Get(ctx, d.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		d.log.Warn("failed to read saved scene, starting empty", "key", d.key, "error", err)
		return nil
	}
	objs, err := document.Unmarshal(data)
	if err != nil {
		d.log.Warn("saved scene is malformed, starting empty", "key", d.key, "error", err)
		return nil
	}
	return objs
}

// Save writes the scene, giving up after a few seconds.
func (d *Document) Save(objs []*document.Object) error {
	data, err := document.Marshal(objs)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := d.store.Put(ctx, d.key, data); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return nil
}
