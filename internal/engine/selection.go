package engine

import (
	"sort"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/geom"
)

// Selection returns the currently selected stroke indices. Indices are
// positional and become stale on the next structural edit.
func (s *Session) Selection() []int { return s.selection }

// ClearSelection drops the selection.
func (s *Session) ClearSelection() { s.selection = nil }

// SelectInPolygon selects every stroke with at least one defining point
// inside the lasso polygon: any path point for freehand and shape
// strokes, any bounding-box corner for images. Returns the selected
// indices in ascending order.
func (s *Session) SelectInPolygon(poly []geom.Point) []int {
	var hits []int
	for i, stroke := range s.doc.Strokes {
		if strokeInPolygon(stroke, poly) {
			hits = append(hits, i)
		}
	}
	s.selection = hits
	return hits
}

// SelectInRect selects every stroke with a defining point inside the
// marquee rect; images count when their bounding box overlaps the rect
// at all. Returns the selected indices in ascending order.
func (s *Session) SelectInRect(r geom.Rect) []int {
	var hits []int
	for i, stroke := range s.doc.Strokes {
		if strokeInRect(stroke, r) {
			hits = append(hits, i)
		}
	}
	s.selection = hits
	return hits
}

// HitTest returns the index of the topmost stroke within thresholdPx
// screen pixels of the canvas point p, or (-1, false) when nothing is
// hit. The tolerance is converted to canvas units under the current
// zoom, and path strokes add half their brush size.
func (s *Session) HitTest(p geom.Point, thresholdPx float64) (int, bool) {
	tol := thresholdPx / s.doc.Transform.Scale
	for i := s.doc.Len() - 1; i >= 0; i-- {
		if strokeHit(s.doc.Strokes[i], p, tol) {
			return i, true
		}
	}
	return -1, false
}

// DeleteStrokes removes the strokes at the given indices as one undoable
// edit. Stale indices are skipped; with no valid index the document and
// history are untouched and the result is false.
func (s *Session) DeleteStrokes(indices []int) bool {
	valid := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= s.doc.Len() || seen[i] {
			continue
		}
		seen[i] = true
		valid = append(valid, i)
	}
	if len(valid) == 0 {
		return false
	}
	sort.Ints(valid)

	items := make([]Removed, len(valid))
	for i, idx := range valid {
		items[i] = Removed{Index: idx, Stroke: s.doc.Strokes[idx]}
	}

	// Physical removal runs descending so earlier indices stay valid.
	for i := len(valid) - 1; i >= 0; i-- {
		s.doc.Remove(valid[i])
	}

	s.history.RecordRemoveMany(items)
	s.selection = nil
	s.dirty = true
	return true
}

// DeleteSelection removes the currently selected strokes.
func (s *Session) DeleteSelection() bool {
	return s.DeleteStrokes(s.selection)
}

// pathPoints returns the defining points of path-backed strokes, nil
// for images.
func pathPoints(s board.Stroke) []geom.Point {
	switch st := s.(type) {
	case *board.Freehand:
		return st.Points
	case *board.Shape:
		return st.Points
	default:
		return nil
	}
}

func strokeSize(s board.Stroke) float64 {
	switch st := s.(type) {
	case *board.Freehand:
		return st.Size
	case *board.Shape:
		return st.Size
	default:
		return 0
	}
}

func strokeInPolygon(stroke board.Stroke, poly []geom.Point) bool {
	if im, ok := stroke.(*board.Image); ok {
		for _, c := range im.Bounds().Corners() {
			if geom.PointInPolygon(c, poly) {
				return true
			}
		}
		return false
	}
	for _, p := range pathPoints(stroke) {
		if geom.PointInPolygon(p, poly) {
			return true
		}
	}
	return false
}

func strokeInRect(stroke board.Stroke, r geom.Rect) bool {
	if im, ok := stroke.(*board.Image); ok {
		return r.Intersects(im.Bounds())
	}
	for _, p := range pathPoints(stroke) {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

func strokeHit(stroke board.Stroke, p geom.Point, tol float64) bool {
	if im, ok := stroke.(*board.Image); ok {
		return im.Bounds().Expand(tol).Contains(p)
	}
	return pathHit(pathPoints(stroke), p, tol+strokeSize(stroke)/2)
}

// pathHit tests the sample points and every connecting segment, so
// sparse sampling at high pointer speed cannot open hit-test gaps
// between points.
func pathHit(pts []geom.Point, p geom.Point, dist float64) bool {
	for _, q := range pts {
		if p.Distance(q) <= dist {
			return true
		}
	}
	for i := 1; i < len(pts); i++ {
		if geom.PointSegmentDistance(p, pts[i-1], pts[i]) <= dist {
			return true
		}
	}
	return false
}
