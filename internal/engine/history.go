package engine

import "github.com/buildrate/ratebook/internal/model"

// History implements undo/redo as full deep snapshots of the estimate graph,
// taken at defined mutation boundaries. Snapshots are bounded; the oldest is
// dropped once the limit is reached.
type History struct {
	undo  []*model.Estimate
	redo  []*model.Estimate
	limit int
}

// NewHistory creates a history keeping at most limit undo snapshots.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{limit: limit}
}

// Push records a snapshot of the estimate before a mutation. Any redo
// snapshots become unreachable and are discarded.
func (h *History) Push(e *model.Estimate) {
	h.undo = append(h.undo, e.Clone())
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// Undo returns the most recent snapshot, recording current so the step can be
// redone. Returns nil when there is nothing to undo.
func (h *History) Undo(current *model.Estimate) *model.Estimate {
	if len(h.undo) == 0 {
		return nil
	}
	snapshot := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current.Clone())
	return snapshot
}

// Redo reverses the most recent undo. Returns nil when there is nothing to
// redo.
func (h *History) Redo(current *model.Estimate) *model.Estimate {
	if len(h.redo) == 0 {
		return nil
	}
	snapshot := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current.Clone())
	return snapshot
}

// Len returns the number of undoable snapshots.
func (h *History) Len() int { return len(h.undo) }
