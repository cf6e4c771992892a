package live

import (
	"encoding/json"

	"github.com/inamate/sketchboard/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client -> server
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeKeyDown     = "key.down"
	TypeToolSet     = "tool.set"
	TypeStrokeSet   = "stroke.set"
	TypePropertySet = "property.set"
	TypeTextCommit  = "text.commit"
	TypeTextEntry   = "text.entry"
	TypeLayerSelect = "layer.select"
	TypeImageAdd    = "image.add"
	TypeSceneSample = "scene.sample"
	TypeUndo        = "undo"

	// Server -> client
	TypeWelcome = "welcome"
	TypeFrame   = "frame"
	TypeHover   = "hover"
	TypeError   = "error"
)

type PointerPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Additive bool    `json:"additive,omitempty"`
}

type ToolPayload struct {
	Tool string `json:"tool"`
}

type StrokePayload struct {
	Color string `json:"color"`
}

type PropertyPayload struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type TextEntryPayload struct {
	Active bool `json:"active"`
}

type LayerPayload struct {
	Row int `json:"row"`
}

type ImagePayload struct {
	Source string `json:"src"`
}

type FramePayload struct {
	Commands []engine.DrawCommand `json:"commands"`
	Layers   []engine.Layer       `json:"layers"`
}

type HoverPayload struct {
	Handle engine.Handle `json:"handle"`
}

type WelcomePayload struct {
	SessionID string       `json:"sessionId"`
	ClientID  string       `json:"clientId"`
	Tool      string       `json:"tool"`
	Stroke    string       `json:"stroke"`
	Frame     FramePayload `json:"frame"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
