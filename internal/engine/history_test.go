package engine

import (
	"testing"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/geom"
)

func dot(x, y float64) *board.Freehand {
	return &board.Freehand{
		Tool:    board.ToolPen,
		Points:  []geom.Point{{X: x, Y: y}},
		Color:   "#000000",
		Size:    2,
		Opacity: 1,
	}
}

func wantStrokes(t *testing.T, doc *board.Document, want []board.Stroke) {
	t.Helper()
	if doc.Len() != len(want) {
		t.Fatalf("document has %d strokes, want %d", doc.Len(), len(want))
	}
	for i := range want {
		if doc.Strokes[i] != want[i] {
			t.Fatalf("stroke %d is %p, want %p", i, doc.Strokes[i], want[i])
		}
	}
}

func TestHistoryEmptyStacks(t *testing.T) {
	var h History
	doc := board.NewDocument()

	if h.Undo(doc) {
		t.Error("undo on empty history returned true")
	}
	if h.Redo(doc) {
		t.Error("redo on empty history returned true")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history reports available edits")
	}
}

func TestHistoryAddUndoRedo(t *testing.T) {
	var h History
	doc := board.NewDocument()
	s := dot(1, 1)

	doc.Append(s)
	h.RecordAdd(s)

	if !h.Undo(doc) {
		t.Fatal("undo failed")
	}
	wantStrokes(t, doc, nil)

	if !h.Redo(doc) {
		t.Fatal("redo failed")
	}
	wantStrokes(t, doc, []board.Stroke{s})
}

func TestHistoryRemoveUndoRedo(t *testing.T) {
	var h History
	doc := board.NewDocument()
	a, b, c := dot(0, 0), dot(1, 1), dot(2, 2)
	doc.Append(a)
	doc.Append(b)
	doc.Append(c)

	removed := doc.Remove(1)
	h.RecordRemove(1, removed)
	wantStrokes(t, doc, []board.Stroke{a, c})

	h.Undo(doc)
	wantStrokes(t, doc, []board.Stroke{a, b, c})

	h.Redo(doc)
	wantStrokes(t, doc, []board.Stroke{a, c})
}

func TestHistoryRemoveManyIndexStability(t *testing.T) {
	var h History
	doc := board.NewDocument()
	strokes := make([]board.Stroke, 6)
	for i := range strokes {
		strokes[i] = dot(float64(i), 0)
		doc.Append(strokes[i])
	}

	// Remove indices 1, 3, 5: record pairs ascending, remove descending.
	items := []Removed{
		{Index: 1, Stroke: strokes[1]},
		{Index: 3, Stroke: strokes[3]},
		{Index: 5, Stroke: strokes[5]},
	}
	doc.Remove(5)
	doc.Remove(3)
	doc.Remove(1)
	h.RecordRemoveMany(items)
	wantStrokes(t, doc, []board.Stroke{strokes[0], strokes[2], strokes[4]})

	if !h.Undo(doc) {
		t.Fatal("undo failed")
	}
	wantStrokes(t, doc, strokes)

	if !h.Redo(doc) {
		t.Fatal("redo failed")
	}
	wantStrokes(t, doc, []board.Stroke{strokes[0], strokes[2], strokes[4]})
}

func TestHistoryClearUndoRedo(t *testing.T) {
	var h History
	doc := board.NewDocument()
	a, b := dot(0, 0), dot(1, 1)
	doc.Append(a)
	doc.Append(b)

	prev := doc.Strokes
	doc.Strokes = nil
	h.RecordClear(prev)

	h.Undo(doc)
	wantStrokes(t, doc, []board.Stroke{a, b})

	h.Redo(doc)
	wantStrokes(t, doc, nil)
}

func TestHistoryForwardEditClearsRedo(t *testing.T) {
	var h History
	doc := board.NewDocument()
	a, b := dot(0, 0), dot(1, 1)

	doc.Append(a)
	h.RecordAdd(a)
	h.Undo(doc)

	if !h.CanRedo() {
		t.Fatal("expected redo available after undo")
	}

	doc.Append(b)
	h.RecordAdd(b)

	if h.CanRedo() {
		t.Error("redo stack survived a forward edit")
	}
	if h.Redo(doc) {
		t.Error("redo applied after invalidation")
	}
}

func TestHistoryInverseLaw(t *testing.T) {
	var h History
	doc := board.NewDocument()

	// E1..E4: three adds and a bulk removal.
	a, b, c := dot(0, 0), dot(1, 1), dot(2, 2)
	doc.Append(a)
	h.RecordAdd(a)
	doc.Append(b)
	h.RecordAdd(b)
	doc.Append(c)
	h.RecordAdd(c)

	items := []Removed{{Index: 0, Stroke: a}, {Index: 2, Stroke: c}}
	doc.Remove(2)
	doc.Remove(0)
	h.RecordRemoveMany(items)

	final := append([]board.Stroke(nil), doc.Strokes...)

	for i := 0; i < 4; i++ {
		if !h.Undo(doc) {
			t.Fatalf("undo %d failed", i)
		}
	}
	wantStrokes(t, doc, nil)

	for i := 0; i < 4; i++ {
		if !h.Redo(doc) {
			t.Fatalf("redo %d failed", i)
		}
	}
	wantStrokes(t, doc, final)
}
