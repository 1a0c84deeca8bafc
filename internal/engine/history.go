package engine

import (
	"github.com/abaj8494/draw/internal/board"
)

// record is one reversible structural edit. Each variant carries exactly
// what its inverse needs; indices are positions at the time the edit was
// applied, so replay must follow the ordering rules below.
type record interface {
	isRecord()
}

type addRecord struct {
	stroke board.Stroke
}

type removeRecord struct {
	index  int
	stroke board.Stroke
}

// Removed pairs a deleted stroke with the index it occupied. RemoveMany
// records keep their pairs sorted ascending by index.
type Removed struct {
	Index  int
	Stroke board.Stroke
}

type removeManyRecord struct {
	items []Removed
}

type clearRecord struct {
	strokes []board.Stroke
}

func (addRecord) isRecord()        {}
func (removeRecord) isRecord()     {}
func (removeManyRecord) isRecord() {}
func (clearRecord) isRecord()      {}

// History is a linear undo/redo stack over structural document edits.
// Recording any forward edit invalidates the redo stack; there is no
// branching.
type History struct {
	undo []record
	redo []record
}

func (h *History) push(r record) {
	h.undo = append(h.undo, r)
	h.redo = nil
}

// RecordAdd notes that s was appended to the document.
func (h *History) RecordAdd(s board.Stroke) {
	h.push(addRecord{stroke: s})
}

// RecordRemove notes that s was removed from the given index.
func (h *History) RecordRemove(index int, s board.Stroke) {
	h.push(removeRecord{index: index, stroke: s})
}

// RecordRemoveMany notes a bulk removal. items must be sorted ascending
// by original index.
func (h *History) RecordRemoveMany(items []Removed) {
	h.push(removeManyRecord{items: items})
}

// RecordClear notes that the whole stroke list was replaced with empty.
// prev is the list as it stood before the clear.
func (h *History) RecordClear(prev []board.Stroke) {
	h.push(clearRecord{strokes: prev})
}

// CanUndo reports whether an edit is available to undo.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether an undone edit is available to redo.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Reset drops both stacks, for document loads.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

// Undo reverses the most recent edit against doc. It returns false,
// changing nothing, when there is nothing to undo.
func (h *History) Undo(doc *board.Document) bool {
	if len(h.undo) == 0 {
		return false
	}
	rec := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	switch r := rec.(type) {
	case addRecord:
		doc.Remove(doc.Len() - 1)
	case removeRecord:
		doc.Insert(r.index, r.stroke)
	case removeManyRecord:
		// Ascending re-insertion restores the exact original order:
		// each insert lands below the positions of the pairs still to
		// come.
		for _, it := range r.items {
			doc.Insert(it.Index, it.Stroke)
		}
	case clearRecord:
		doc.Strokes = append([]board.Stroke(nil), r.strokes...)
	}

	h.redo = append(h.redo, rec)
	return true
}

// Redo re-applies the most recently undone edit against doc. It returns
// false, changing nothing, when there is nothing to redo.
func (h *History) Redo(doc *board.Document) bool {
	if len(h.redo) == 0 {
		return false
	}
	rec := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	switch r := rec.(type) {
	case addRecord:
		doc.Append(r.stroke)
	case removeRecord:
		doc.Remove(r.index)
	case removeManyRecord:
		// Descending removal keeps the remaining recorded indices valid.
		for i := len(r.items) - 1; i >= 0; i-- {
			doc.Remove(r.items[i].Index)
		}
	case clearRecord:
		doc.Strokes = nil
	}

	h.undo = append(h.undo, rec)
	return true
}
