package board

import (
	"encoding/json"
	"fmt"

	"github.com/abaj8494/draw/internal/geom"
)

// Tool identifies the pen variant that produced a freehand stroke.
type Tool string

const (
	ToolPencil      Tool = "pencil"
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
)

// Stroke type tags used in the serialized form.
const (
	TypeFreehand = "freehand"
	TypeShape    = "shape"
	TypeImage    = "image"
)

// Stroke is one drawable element on the board. The concrete variants are
// Freehand, Shape and Image; code that needs the variant switches on the
// concrete type.
type Stroke interface {
	// Bounds returns the axis-aligned bounding box in canvas coordinates.
	Bounds() geom.Rect
	// Translate moves the stroke by (dx, dy) in place.
	Translate(dx, dy float64)
	// Type returns the serialization tag for the variant.
	Type() string
}

// Freehand is a hand-drawn polyline. Points holds at least one sample in
// canvas coordinates; Size is the brush diameter in logical pixels;
// Opacity is in [0, 1].
type Freehand struct {
	Tool    Tool
	Points  []geom.Point
	Color   string
	Size    float64
	Opacity float64
}

func (f *Freehand) Bounds() geom.Rect { return geom.BoundsOf(f.Points) }

func (f *Freehand) Translate(dx, dy float64) {
	for i := range f.Points {
		f.Points[i].X += dx
		f.Points[i].Y += dy
	}
}

func (f *Freehand) Type() string { return TypeFreehand }

// Shape is a recognized geometric outline. It renders as straight
// segments regardless of which tool drew the original path.
type Shape struct {
	Points  []geom.Point
	Color   string
	Size    float64
	Opacity float64
}

func (s *Shape) Bounds() geom.Rect { return geom.BoundsOf(s.Points) }

func (s *Shape) Translate(dx, dy float64) {
	for i := range s.Points {
		s.Points[i].X += dx
		s.Points[i].Y += dy
	}
}

func (s *Shape) Type() string { return TypeShape }

// Image is a bitmap placed on the canvas. Source is an opaque asset
// reference resolved by the renderer; the geometry is the logical box
// the bitmap is scaled into.
type Image struct {
	Source  string
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Opacity float64
}

func (im *Image) Bounds() geom.Rect {
	return geom.Rect{X: im.X, Y: im.Y, Width: im.Width, Height: im.Height}
}

// Translate moves the image origin. Width and height are untouched.
func (im *Image) Translate(dx, dy float64) {
	im.X += dx
	im.Y += dy
}

func (im *Image) Type() string { return TypeImage }

// --- Serialization ---

type freehandJSON struct {
	Type    string       `json:"type"`
	Tool    Tool         `json:"tool"`
	Points  []geom.Point `json:"points"`
	Color   string       `json:"color"`
	Size    float64      `json:"size"`
	Opacity float64      `json:"opacity"`
}

type shapeJSON struct {
	Type    string       `json:"type"`
	Points  []geom.Point `json:"points"`
	Color   string       `json:"color"`
	Size    float64      `json:"size"`
	Opacity float64      `json:"opacity"`
}

type imageJSON struct {
	Type    string  `json:"type"`
	Source  string  `json:"source"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Opacity float64 `json:"opacity"`
}

func (f *Freehand) MarshalJSON() ([]byte, error) {
	return json.Marshal(freehandJSON{TypeFreehand, f.Tool, f.Points, f.Color, f.Size, f.Opacity})
}

func (s *Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(shapeJSON{TypeShape, s.Points, s.Color, s.Size, s.Opacity})
}

func (im *Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageJSON{TypeImage, im.Source, im.X, im.Y, im.Width, im.Height, im.Opacity})
}

// UnmarshalStroke decodes one serialized stroke by its type tag.
func UnmarshalStroke(data []byte) (Stroke, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode stroke: %w", err)
	}

	switch probe.Type {
	case TypeFreehand:
		var w freehandJSON
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode freehand stroke: %w", err)
		}
		return &Freehand{Tool: w.Tool, Points: w.Points, Color: w.Color, Size: w.Size, Opacity: w.Opacity}, nil
	case TypeShape:
		var w shapeJSON
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode shape stroke: %w", err)
		}
		return &Shape{Points: w.Points, Color: w.Color, Size: w.Size, Opacity: w.Opacity}, nil
	case TypeImage:
		var w imageJSON
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode image stroke: %w", err)
		}
		return &Image{Source: w.Source, X: w.X, Y: w.Y, Width: w.Width, Height: w.Height, Opacity: w.Opacity}, nil
	default:
		return nil, fmt.Errorf("unknown stroke type %q", probe.Type)
	}
}
