package board

import (
	"encoding/json"
	"fmt"

	"github.com/abaj8494/draw/internal/geom"
)

// Document is the full serializable state of one board: the stroke list
// in z-order (index 0 is the bottom layer) plus the backdrop and the
// current view transform.
type Document struct {
	Strokes    []Stroke
	Background Background
	Transform  geom.Transform
}

// NewDocument returns an empty document with the default backdrop and an
// identity view.
func NewDocument() *Document {
	return &Document{
		Background: DefaultBackground,
		Transform:  geom.IdentityTransform(),
	}
}

// Insert places s at index i, shifting later strokes up. The index is
// clamped to the valid range so replayed edits never panic.
func (d *Document) Insert(i int, s Stroke) {
	if i < 0 {
		i = 0
	}
	if i > len(d.Strokes) {
		i = len(d.Strokes)
	}
	d.Strokes = append(d.Strokes, nil)
	copy(d.Strokes[i+1:], d.Strokes[i:])
	d.Strokes[i] = s
}

// Append adds s on top of the stack and returns its index.
func (d *Document) Append(s Stroke) int {
	d.Strokes = append(d.Strokes, s)
	return len(d.Strokes) - 1
}

// Remove deletes and returns the stroke at index i. Out-of-range indices
// return nil and leave the document unchanged.
func (d *Document) Remove(i int) Stroke {
	if i < 0 || i >= len(d.Strokes) {
		return nil
	}
	s := d.Strokes[i]
	d.Strokes = append(d.Strokes[:i], d.Strokes[i+1:]...)
	return s
}

// Len returns the number of strokes.
func (d *Document) Len() int { return len(d.Strokes) }

type documentJSON struct {
	Strokes    []json.RawMessage `json:"strokes"`
	Background Background        `json:"background"`
	OffsetX    float64           `json:"offsetX"`
	OffsetY    float64           `json:"offsetY"`
	Scale      float64           `json:"scale"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, len(d.Strokes))
	for i, s := range d.Strokes {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal stroke %d: %w", i, err)
		}
		raw[i] = data
	}
	return json.Marshal(documentJSON{
		Strokes:    raw,
		Background: d.Background,
		OffsetX:    d.Transform.OffsetX,
		OffsetY:    d.Transform.OffsetY,
		Scale:      d.Transform.Scale,
	})
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	strokes := make([]Stroke, 0, len(w.Strokes))
	for i, raw := range w.Strokes {
		s, err := UnmarshalStroke(raw)
		if err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
		strokes = append(strokes, s)
	}

	scale := w.Scale
	if scale <= 0 {
		scale = 1
	}

	d.Strokes = strokes
	d.Background = w.Background
	d.Transform = geom.Transform{OffsetX: w.OffsetX, OffsetY: w.OffsetY, Scale: scale}
	return nil
}
