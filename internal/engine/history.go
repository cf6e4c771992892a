package engine

import "github.com/inamate/sketchboard/internal/document"

// DefaultHistoryLimit is how many snapshots History keeps.
const DefaultHistoryLimit = 30

// History is a bounded stack of deep-copied scene snapshots. When full, the
// oldest snapshot is dropped.
type History struct {
	limit int
	stack [][]*document.Object
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Snapshot records a deep copy of objs.
func (h *History) Snapshot(objs []*document.Object) {
	if len(h.stack) == h.limit {
		h.stack = append(h.stack[:0], h.stack[1:]...)
	}
	h.stack = append(h.stack, document.CloneAll(objs))
}

// Undo pops the newest snapshot.
func (h *History) Undo() ([]*document.Object, bool) {
	if len(h.stack) == 0 {
		return nil, false
	}
	last := h.stack[len(h.stack)-1]
	h.stack[len(h.stack)-1] = nil
	h.stack = h.stack[:len(h.stack)-1]
	return last, true
}

func (h *History) Len() int { return len(h.stack) }

func (h *History) Limit() int { return h.limit }

func (h *History) Clear() { h.stack = nil }
