package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/sketchboard/internal/export"
	"github.com/inamate/sketchboard/internal/store"
	"github.com/inamate/sketchboard/internal/typeid"
)

// maxImageMessage bounds an image.add message, matching the upload limit.
const maxImageMessage = 14 << 20

// DefaultIdleTimeout is how long a session without a client stays open.
const DefaultIdleTimeout = 10 * time.Minute

// HubOptions configures a Hub. IdleTimeout evicts a session once it has had
// no client for that long; zero means DefaultIdleTimeout and a negative value
// keeps sessions until Stop.
type HubOptions struct {
	DefaultKey   string
	HistoryLimit int
	IdleTimeout  time.Duration
	Logger       *slog.Logger
}

// Hub tracks the live sessions by id.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    store.Store
	opts     HubOptions
	log      *slog.Logger
}

func NewHub(st store.Store, opts HubOptions) *Hub {
	if opts.DefaultKey == "" {
		opts.DefaultKey = store.DefaultKey
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]*Session),
		store:    st,
		opts:     opts,
		log:      log,
	}
}

// Create opens a session on the document stored under key, or the default
// key when key is empty.
func (h *Hub) Create(ctx context.Context, key string) (*Session, error) {
	if key == "" {
		key = h.opts.DefaultKey
	}
	if err := store.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	id := typeid.NewSessionID()
	doc := store.NewDocument(h.store, key, h.log)
	s := NewSession(ctx, id, doc, SessionOptions{
		HistoryLimit: h.opts.HistoryLimit,
		IdleTimeout:  h.opts.IdleTimeout,
		OnIdle:       h.evict,
		Logger:       h.log,
	})

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	h.log.Info("session created", "session", id, "key", key)
	return s, nil
}

func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// evict drops an idle session from the hub and closes it, which saves the
// scene. It runs off the session loop.
func (h *Hub) evict(s *Session) {
	h.mu.Lock()
	if h.sessions[s.id] == s {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()

	s.Close()
	h.log.Info("idle session evicted", "session", s.id)
}

// Scene implements export.Source.
func (h *Hub) Scene(ctx context.Context, id string) (*export.Scene, error) {
	s, err := h.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Scene(ctx)
}

// Stop closes every session, saving each scene.
func (h *Hub) Stop() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
	h.log.Info("all sessions closed", "count", len(sessions))
}
