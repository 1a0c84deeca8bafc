package engine

import (
	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/geom"
	"github.com/abaj8494/draw/internal/recognize"
)

// Tool identifies the active interaction mode.
type Tool string

const (
	ToolPencil      Tool = "pencil"
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolShape       Tool = "shape"
	ToolImage       Tool = "image"
	ToolEraser      Tool = "eraser"
	ToolLasso       Tool = "lasso"
	ToolMarquee     Tool = "marquee"
	ToolPan         Tool = "pan"
	ToolLaser       Tool = "laser"
)

// brush returns the stroke variant a drawing tool produces. The second
// return is false for tools that do not draw strokes.
func (t Tool) brush() (board.Tool, bool) {
	switch t {
	case ToolPencil:
		return board.ToolPencil, true
	case ToolPen:
		return board.ToolPen, true
	case ToolHighlighter:
		return board.ToolHighlighter, true
	case ToolShape:
		// Shape strokes are inked like pen strokes until recognition
		// replaces them at commit.
		return board.ToolPen, true
	default:
		return "", false
	}
}

// Default zoom bounds.
const (
	DefaultMinScale = 0.25
	DefaultMaxScale = 4.0
)

// Session owns one document and everything that edits it: the
// in-progress stroke, the undo/redo history, the transient selection and
// the view transform. A session has exactly one logical owner and does
// no locking of its own; open several documents by creating several
// sessions.
type Session struct {
	// Document state
	doc *board.Document

	// Active tool and the stroke being drawn, if any
	tool    Tool
	builder *board.Builder
	snap    bool

	// Edit history and transient selection
	history   History
	selection []int

	// Zoom bounds
	minScale float64
	maxScale float64

	// Shape recognition thresholds
	recognizer recognize.Config

	// Laser pointer trail
	laser LaserTrail

	// Unsaved changes since the last save
	dirty bool
}

// NewSession creates a session over an empty document.
func NewSession() *Session {
	return &Session{
		doc:        board.NewDocument(),
		tool:       ToolPen,
		minScale:   DefaultMinScale,
		maxScale:   DefaultMaxScale,
		recognizer: recognize.DefaultConfig(),
		laser:      NewLaserTrail(),
	}
}

// --- Document lifecycle ---

// Document returns the live document. Callers outside the owning
// goroutine must not hold on to it.
func (s *Session) Document() *board.Document { return s.doc }

// LoadDocument replaces the document, dropping the history, selection
// and any stroke in progress.
func (s *Session) LoadDocument(doc *board.Document) {
	if doc == nil {
		doc = board.NewDocument()
	}
	if doc.Transform.Scale < s.minScale || doc.Transform.Scale > s.maxScale {
		doc.Transform.Scale = clamp(doc.Transform.Scale, s.minScale, s.maxScale)
	}
	s.doc = doc
	s.builder = nil
	s.selection = nil
	s.history.Reset()
	s.dirty = false
}

// Dirty reports whether the document changed since the last MarkClean.
func (s *Session) Dirty() bool { return s.dirty }

// MarkClean resets the dirty flag, after a save.
func (s *Session) MarkClean() { s.dirty = false }

// SetBackground switches the backdrop preset.
func (s *Session) SetBackground(bg board.Background) {
	if s.doc.Background == bg {
		return
	}
	s.doc.Background = bg
	s.dirty = true
}

// --- Tools ---

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// SetTool switches the active tool. Switching aborts any stroke in
// progress and drops the selection.
func (s *Session) SetTool(t Tool) {
	if t == s.tool {
		return
	}
	s.tool = t
	s.builder = nil
	s.selection = nil
}

// --- Drawing ---

// BeginStroke starts a stroke at first with the given brush settings,
// in canvas coordinates. It returns false when the active tool does not
// draw. A stroke already in progress is discarded.
func (s *Session) BeginStroke(first geom.Point, color string, size, opacity float64) bool {
	brush, ok := s.tool.brush()
	if !ok {
		return false
	}
	s.builder = board.NewBuilder(brush, color, size, opacity)
	s.builder.Append(first)
	s.snap = s.tool == ToolShape
	return true
}

// ExtendStroke appends the next pointer sample to the stroke in
// progress. Without one it does nothing.
func (s *Session) ExtendStroke(p geom.Point) {
	if s.builder == nil {
		return
	}
	s.builder.Append(p)
}

// ActivePoints returns the in-progress stroke's samples for live
// preview, or nil when nothing is being drawn.
func (s *Session) ActivePoints() []geom.Point {
	if s.builder == nil {
		return nil
	}
	return s.builder.Points()
}

// CommitStroke finishes the stroke in progress and adds it to the
// document. Committing with nothing drawn is a no-op returning false.
// With the shape tool, a recognized path replaces the freehand ink;
// otherwise the ink is kept as drawn.
func (s *Session) CommitStroke() bool {
	if s.builder == nil {
		return false
	}
	f := s.builder.Commit()
	s.builder = nil
	if f == nil {
		return false
	}

	var stroke board.Stroke = f
	if s.snap {
		if pts, kind := s.recognizer.Recognize(f.Points); kind != recognize.KindNone {
			stroke = &board.Shape{Points: pts, Color: f.Color, Size: f.Size, Opacity: f.Opacity}
		}
	}

	s.addStroke(stroke)
	return true
}

// AbortStroke discards the stroke in progress, for gesture
// disambiguation: a pinch-zoom starting mid-stroke must not commit the
// partial ink.
func (s *Session) AbortStroke() {
	s.builder = nil
}

// Add appends a finished stroke as a single undoable edit, for callers
// that build strokes outside the begin/extend/commit flow (paste, wire
// sync). Path strokes without points are ignored.
func (s *Session) Add(stroke board.Stroke) bool {
	switch st := stroke.(type) {
	case nil:
		return false
	case *board.Freehand:
		if len(st.Points) == 0 {
			return false
		}
	case *board.Shape:
		if len(st.Points) == 0 {
			return false
		}
	}
	s.addStroke(stroke)
	return true
}

// AddShape adds an idealized shape path directly, as the rectangle and
// ellipse drag tools do. Empty paths are ignored.
func (s *Session) AddShape(points []geom.Point, color string, size, opacity float64) bool {
	if len(points) == 0 {
		return false
	}
	s.addStroke(&board.Shape{Points: points, Color: color, Size: size, Opacity: opacity})
	return true
}

// AddImage places a bitmap on the canvas. A non-positive box is ignored.
func (s *Session) AddImage(source string, x, y, width, height, opacity float64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	s.addStroke(&board.Image{Source: source, X: x, Y: y, Width: width, Height: height, Opacity: opacity})
	return true
}

// addStroke appends the stroke, records the edit and invalidates the
// positional selection.
func (s *Session) addStroke(stroke board.Stroke) {
	s.doc.Append(stroke)
	s.history.RecordAdd(stroke)
	s.selection = nil
	s.dirty = true
}

// --- Editing ---

// EraseAt removes the topmost stroke within thresholdPx screen pixels of
// the canvas point p. It reports whether anything was erased.
func (s *Session) EraseAt(p geom.Point, thresholdPx float64) bool {
	idx, ok := s.HitTest(p, thresholdPx)
	if !ok {
		return false
	}
	stroke := s.doc.Remove(idx)
	s.history.RecordRemove(idx, stroke)
	s.selection = nil
	s.dirty = true
	return true
}

// Translate moves the strokes at the given indices by (dx, dy) in canvas
// units. Stale indices are skipped. Moves are not recorded in the edit
// history and do not disturb the selection.
func (s *Session) Translate(indices []int, dx, dy float64) {
	moved := false
	for _, i := range indices {
		if i < 0 || i >= s.doc.Len() {
			continue
		}
		s.doc.Strokes[i].Translate(dx, dy)
		moved = true
	}
	if moved {
		s.dirty = true
	}
}

// TranslateSelection moves the currently selected strokes.
func (s *Session) TranslateSelection(dx, dy float64) {
	s.Translate(s.selection, dx, dy)
}

// Clear removes every stroke. The wipe is a single undoable edit. An
// already-empty document is left untouched.
func (s *Session) Clear() bool {
	if s.doc.Len() == 0 {
		return false
	}
	prev := s.doc.Strokes
	s.doc.Strokes = nil
	s.history.RecordClear(prev)
	s.selection = nil
	s.dirty = true
	return true
}

// Undo reverses the most recent structural edit. It reports false, and
// changes nothing, when the history is empty.
func (s *Session) Undo() bool {
	if !s.history.Undo(s.doc) {
		return false
	}
	s.selection = nil
	s.dirty = true
	return true
}

// Redo re-applies the most recently undone edit. It reports false, and
// changes nothing, when nothing was undone.
func (s *Session) Redo() bool {
	if !s.history.Redo(s.doc) {
		return false
	}
	s.selection = nil
	s.dirty = true
	return true
}

// CanUndo reports whether Undo would apply an edit.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would apply an edit.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Laser returns the laser pointer trail buffer.
func (s *Session) Laser() *LaserTrail { return &s.laser }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
