package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/export"
	"github.com/inamate/sketchboard/internal/imaging"
	"github.com/inamate/sketchboard/internal/store"
)

var (
	ErrSessionNotFound = fmt.Errorf("session: %w", export.ErrNoScene)
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownMessage  = errors.New("unknown message type")
)

const inboxSize = 64

// Session owns one engine and runs every operation on it from a single
// goroutine. Messages, decode completions and snapshot requests are all
// queued onto that loop.
type Session struct {
	id     string
	doc    *store.Document
	engine *engine.Engine
	log    *slog.Logger

	inbox     chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	idleTimeout time.Duration
	onIdle      func(*Session)

	// Loop-owned.
	client    *Client
	hover     engine.Handle
	idle      *time.Timer
	idleEpoch int
}

// SessionOptions configures a Session. While the session has no client an
// IdleTimeout timer runs, and OnIdle is called on its own goroutine when it
// fires.
type SessionOptions struct {
	HistoryLimit int
	IdleTimeout  time.Duration
	OnIdle       func(*Session)
	Logger       *slog.Logger
}

// NewSession loads the document and starts the session loop.
func NewSession(ctx context.Context, id string, doc *store.Document, opts SessionOptions) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		id:    id,
		doc:   doc,
		log:   log.With("session", id),
		inbox: make(chan func(), inboxSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),

		idleTimeout: opts.IdleTimeout,
		onIdle:      opts.OnIdle,
	}
	s.engine = engine.New(
		engine.WithHistoryLimit(opts.HistoryLimit),
		engine.WithPersister(doc),
		engine.WithRenderHook(s.pushFrame),
		engine.WithDecoder(&imaging.Decoder{Post: func(fn func()) { s.post(fn) }, Logger: s.log}),
		engine.WithLogger(s.log),
	)
	// The loop has not started, so this goroutine still owns the engine.
	s.engine.Load(doc.Load(ctx))
	s.armIdle()

	go s.run()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-s.quit:
			s.shutdown()
			return
		}
	}
}

func (s *Session) shutdown() {
	s.disarmIdle()
	if err := s.doc.Save(s.engine.Objects()); err != nil {
		s.log.Error("failed to save session on close", "error", err)
	}
	if s.client != nil {
		close(s.client.send)
		s.client = nil
	}
	s.log.Info("session closed")
}

// armIdle starts the idle timer. It runs on the loop. A fire that races a
// later attach is dropped by the epoch check.
func (s *Session) armIdle() {
	if s.idleTimeout <= 0 || s.onIdle == nil {
		return
	}
	s.disarmIdle()
	epoch := s.idleEpoch
	s.idle = time.AfterFunc(s.idleTimeout, func() {
		s.post(func() {
			if s.idleEpoch != epoch || s.client != nil {
				return
			}
			s.idle = nil
			go s.onIdle(s)
		})
	})
}

func (s *Session) disarmIdle() {
	s.idleEpoch++
	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
}

// post queues fn on the loop. It reports false once the session is closed.
func (s *Session) post(fn func()) bool {
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

// Do runs fn on the session loop and waits for it to finish.
func (s *Session) Do(ctx context.Context, fn func(e *engine.Engine) error) error {
	result := make(chan error, 1)
	if !s.post(func() { result <- fn(s.engine) }) {
		return ErrSessionClosed
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// Close saves the scene and stops the loop.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

// Scene snapshots the scene for export. The frame carries no selection
// chrome.
func (s *Session) Scene(ctx context.Context) (*export.Scene, error) {
	var out *export.Scene
	err := s.Do(ctx, func(e *engine.Engine) error {
		objs := document.CloneAll(e.Objects())
		out = &export.Scene{
			Objects:  objs,
			Commands: engine.CompileDrawCommands(objs, nil),
			Images:   e.Images(),
		}
		return nil
	})
	return out, err
}

// Attach makes c the session's client, detaching any previous one. It fails
// once the session has closed.
func (s *Session) Attach(c *Client) error {
	ok := s.post(func() {
		if s.client != nil {
			s.log.Info("client replaced", "old", s.client.ClientID, "new", c.ClientID)
			close(s.client.send)
		}
		s.client = c
		s.hover = engine.HandleNone
		s.disarmIdle()

		welcome, err := newMessage(TypeWelcome, WelcomePayload{
			SessionID: s.id,
			ClientID:  c.ClientID,
			Tool:      string(s.engine.Tool()),
			Stroke:    s.engine.Stroke(),
			Frame:     s.frame(s.engine.Render()),
		})
		if err != nil {
			s.log.Error("marshal welcome", "error", err)
			return
		}
		c.Send(welcome)
		s.log.Info("client attached", "client", c.ClientID)
	})
	if !ok {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) detach(c *Client) {
	s.post(func() {
		if s.client != c {
			return
		}
		close(c.send)
		s.client = nil
		s.armIdle()
		s.log.Info("client detached", "client", c.ClientID)
	})
}

// Dispatch queues a client message for the loop.
func (s *Session) Dispatch(msg *Message) {
	s.post(func() {
		if err := s.handle(msg); err != nil {
			s.log.Debug("message rejected", "type", msg.Type, "error", err)
			s.reply(TypeError, ErrorPayload{Message: err.Error()})
		}
	})
}

func (s *Session) handle(msg *Message) error {
	e := s.engine
	switch msg.Type {
	case TypePointerDown:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		e.PointerDown(p.X, p.Y, p.Additive)
	case TypePointerMove:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if h := e.PointerMove(p.X, p.Y); h != s.hover {
			s.hover = h
			s.reply(TypeHover, HoverPayload{Handle: h})
		}
	case TypePointerUp:
		e.PointerUp()
	case TypeKeyDown:
		var k engine.KeyEvent
		if err := decode(msg, &k); err != nil {
			return err
		}
		e.KeyDown(k)
	case TypeToolSet:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return e.SetTool(document.Kind(p.Tool))
	case TypeStrokeSet:
		var p StrokePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return e.SetStrokeColor(p.Color)
	case TypePropertySet:
		var p PropertyPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return e.UpdateProperty(engine.Property(p.Key), p.Value)
	case TypeTextCommit:
		var p TextPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return e.CommitText(p.Text)
	case TypeTextEntry:
		var p TextEntryPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		e.SetTextEntry(p.Active)
	case TypeLayerSelect:
		var p LayerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return e.SelectLayer(p.Row)
	case TypeImageAdd:
		var p ImagePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		_, err := e.AddImage(p.Source)
		return err
	case TypeSceneSample:
		e.LoadSampleScene()
		if err := s.doc.Save(e.Objects()); err != nil {
			return err
		}
	case TypeUndo:
		e.Undo()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return nil
}

func decode(msg *Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}
	return nil
}

func (s *Session) frame(cmds []engine.DrawCommand) FramePayload {
	return FramePayload{Commands: cmds, Layers: s.engine.Layers()}
}

// pushFrame is the engine's render hook; it runs on the loop.
func (s *Session) pushFrame(cmds []engine.DrawCommand) {
	s.reply(TypeFrame, s.frame(cmds))
}

func (s *Session) reply(typ string, payload any) {
	if s.client == nil {
		return
	}
	msg, err := newMessage(typ, payload)
	if err != nil {
		s.log.Error("marshal message", "type", typ, "error", err)
		return
	}
	msg.SessionID = s.id
	s.client.Send(msg)
}
