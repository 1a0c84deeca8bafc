package engine

import "github.com/abaj8494/draw/internal/geom"

// Transform returns the current canvas-to-screen transform.
func (s *Session) Transform() geom.Transform { return s.doc.Transform }

// SetScaleBounds overrides the zoom clamp range. Nonsense bounds are
// ignored.
func (s *Session) SetScaleBounds(min, max float64) {
	if min <= 0 || max < min {
		return
	}
	s.minScale = min
	s.maxScale = max
	if clamped := clamp(s.doc.Transform.Scale, min, max); clamped != s.doc.Transform.Scale {
		s.doc.Transform.Scale = clamped
		s.dirty = true
	}
}

// SetView replaces the view state wholesale, as wire sync does after a
// client-side pan or zoom. Scale is clamped to the zoom bounds.
func (s *Session) SetView(offsetX, offsetY, scale float64) {
	next := geom.Transform{
		OffsetX: offsetX,
		OffsetY: offsetY,
		Scale:   clamp(scale, s.minScale, s.maxScale),
	}
	if next == s.doc.Transform {
		return
	}
	s.doc.Transform = next
	s.dirty = true
}

// Pan shifts the view by (dx, dy) screen pixels. Panning is unbounded.
func (s *Session) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	s.doc.Transform.OffsetX += dx
	s.doc.Transform.OffsetY += dy
	s.dirty = true
}

// SetScale zooms to target, clamped to the scale bounds, keeping the
// focal screen position (the cursor or pinch centroid) visually fixed:
// the canvas point under the focal position before the zoom maps back to
// the same screen position after it. A clamped target equal to the
// current scale is a no-op, which also makes repeated calls with the
// same arguments idempotent.
func (s *Session) SetScale(target, focalX, focalY float64) {
	target = clamp(target, s.minScale, s.maxScale)
	t := s.doc.Transform
	if target == t.Scale {
		return
	}

	focal := geom.Point{X: focalX, Y: focalY}
	anchor := t.ToCanvas(focal)

	t.Scale = target
	t.OffsetX = focal.X - anchor.X*target
	t.OffsetY = focal.Y - anchor.Y*target

	s.doc.Transform = t
	s.dirty = true
}
