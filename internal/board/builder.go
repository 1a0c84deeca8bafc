package board

import "github.com/abaj8494/draw/internal/geom"

// Builder accumulates pointer samples for an in-progress freehand
// stroke. The stroke only enters a document when Commit returns it; a
// builder that is dropped (pinch-zoom took over, pointer cancelled)
// leaves no trace.
type Builder struct {
	tool    Tool
	color   string
	size    float64
	opacity float64
	points  []geom.Point
}

// NewBuilder starts a stroke with the given brush settings. Inputs come
// from untrusted front-ends, so the constructor clamps instead of
// erroring: opacity snaps into [0, 1] and a non-positive size becomes 1.
func NewBuilder(tool Tool, color string, size, opacity float64) *Builder {
	if size <= 0 {
		size = 1
	}
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return &Builder{tool: tool, color: color, size: size, opacity: opacity}
}

// Append records the next pointer sample in canvas coordinates.
func (b *Builder) Append(p geom.Point) {
	b.points = append(b.points, p)
}

// Len returns the number of samples recorded so far.
func (b *Builder) Len() int { return len(b.points) }

// Points returns the samples recorded so far, for live preview. The
// slice is shared with the builder and must not be mutated.
func (b *Builder) Points() []geom.Point { return b.points }

// Commit finishes the stroke. With no recorded samples there is nothing
// to add and Commit returns nil; a tap with a single sample is a valid
// dot stroke.
func (b *Builder) Commit() *Freehand {
	if len(b.points) == 0 {
		return nil
	}
	f := &Freehand{
		Tool:    b.tool,
		Points:  b.points,
		Color:   b.color,
		Size:    b.size,
		Opacity: b.opacity,
	}
	b.points = nil
	return f
}
